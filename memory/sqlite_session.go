// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package memory

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/nlpodyssey/news-search-agent/types/message"
)

// SQLiteSession is a SQLite-based implementation of Session.
type SQLiteSession struct {
	sessionID     string
	dbDSN         string
	sessionTable  string
	messagesTable string
	db            *sql.DB
	mu            sync.Mutex
}

type SQLiteSessionParams struct {
	// Unique identifier for the conversation session
	SessionID string

	// Optional database data source name.
	// Defaults to "file::memory:?cache=shared" (in-memory database).
	DBDataSourceName string

	// Optional name of the table to store session metadata and state.
	// Defaults to "agent_sessions".
	SessionTable string

	// Optional name of the table to store message data.
	// Defaults to "agent_messages".
	MessagesTable string
}

func NewSQLiteSession(ctx context.Context, params SQLiteSessionParams) (_ *SQLiteSession, err error) {
	s := &SQLiteSession{
		sessionID:     params.SessionID,
		dbDSN:         cmp.Or(params.DBDataSourceName, "file::memory:?cache=shared"),
		sessionTable:  cmp.Or(params.SessionTable, "agent_sessions"),
		messagesTable: cmp.Or(params.MessagesTable, "agent_messages"),
	}

	s.db, err = sql.Open("sqlite3", s.dbDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite3 database: %w", err)
	}

	defer func() {
		if err != nil {
			if e := s.Close(); e != nil {
				err = errors.Join(err, e)
			}
		}
	}()

	_, err = s.db.ExecContext(ctx, `PRAGMA journal_mode=WAL`)
	if err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}

	err = s.initDB(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSession) SessionID(context.Context) string {
	return s.sessionID
}

func (s *SQLiteSession) GetItems(ctx context.Context, limit int) (_ []message.Message, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	if limit <= 0 {
		rows, err = s.db.QueryContext(ctx, fmt.Sprintf(`
			SELECT message_data FROM "%s"
			WHERE session_id = ?
			ORDER BY id ASC
		`, s.messagesTable), s.sessionID)
	} else {
		rows, err = s.db.QueryContext(ctx, fmt.Sprintf(`
			SELECT message_data FROM "%s"
			WHERE session_id = ?
			ORDER BY id DESC
			LIMIT ?
		`, s.messagesTable), s.sessionID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("error querying session items: %w", err)
	}
	defer func() {
		if e := rows.Close(); e != nil {
			err = errors.Join(err, fmt.Errorf("error closing sql.Rows: %w", e))
		}
	}()

	var items []message.Message
	for rows.Next() {
		var messageData string
		if err = rows.Scan(&messageData); err != nil {
			return nil, fmt.Errorf("sql rows scan error: %w", err)
		}

		item, err := unmarshalMessageData(messageData)
		if err != nil {
			continue // Skip invalid JSON entries
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sql rows scan error: %w", err)
	}

	if limit > 0 {
		slices.Reverse(items)
	}
	return trimLeadingToolResults(items), nil
}

func (s *SQLiteSession) AddItems(ctx context.Context, items []message.Message) (err error) {
	if len(items) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	if err = s.ensureSession(ctx, tx); err != nil {
		return err
	}

	for _, item := range items {
		jsonItem, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("error JSON marshaling item: %w", err)
		}
		_, err = tx.ExecContext(
			ctx,
			fmt.Sprintf(`INSERT INTO "%s" (session_id, message_data) VALUES (?, ?)`, s.messagesTable),
			s.sessionID, string(jsonItem),
		)
		if err != nil {
			return fmt.Errorf("error inserting item in messages table: %w", err)
		}
	}

	_, err = tx.ExecContext(
		ctx,
		fmt.Sprintf(`UPDATE "%s" SET updated_at = CURRENT_TIMESTAMP WHERE session_id = ?`, s.sessionTable),
		s.sessionID,
	)
	if err != nil {
		return fmt.Errorf("error updating session timestamp: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteSession) PopItem(ctx context.Context) (*message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var messageData string
	err := s.db.QueryRowContext(
		ctx,
		fmt.Sprintf(`
			DELETE FROM "%s"
			WHERE id = (
				SELECT id FROM "%s"
				WHERE session_id = ?
				ORDER BY id DESC
				LIMIT 1
			)
			RETURNING message_data
		`, s.messagesTable, s.messagesTable),
		s.sessionID,
	).Scan(&messageData)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	item, err := unmarshalMessageData(messageData)
	if err != nil {
		return nil, nil // Return nil for corrupted JSON entries (already deleted)
	}
	return &item, nil
}

func (s *SQLiteSession) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(
		ctx,
		fmt.Sprintf(`DELETE FROM "%s" WHERE session_id = ?`, s.messagesTable),
		s.sessionID,
	)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		fmt.Sprintf(`DELETE FROM "%s" WHERE session_id = ?`, s.sessionTable),
		s.sessionID,
	)
	return err
}

func (s *SQLiteSession) GetState(ctx context.Context) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getState(ctx, s.db)
}

func (s *SQLiteSession) UpdateState(ctx context.Context, delta map[string]any) (err error) {
	if len(delta) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	if err = s.ensureSession(ctx, tx); err != nil {
		return err
	}

	state, err := s.getState(ctx, tx)
	if err != nil {
		return err
	}
	stateData, err := marshalState(mergeState(state, delta))
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(
		ctx,
		fmt.Sprintf(`UPDATE "%s" SET state_data = ?, updated_at = CURRENT_TIMESTAMP WHERE session_id = ?`, s.sessionTable),
		stateData, s.sessionID,
	)
	if err != nil {
		return fmt.Errorf("error updating session state: %w", err)
	}

	return tx.Commit()
}

type sqlQueryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteSession) ensureSession(ctx context.Context, q sqlQueryer) error {
	_, err := q.ExecContext(
		ctx,
		fmt.Sprintf(`INSERT OR IGNORE INTO "%s" (session_id) VALUES (?)`, s.sessionTable),
		s.sessionID,
	)
	if err != nil {
		return fmt.Errorf("error ensuring session exists: %w", err)
	}
	return nil
}

func (s *SQLiteSession) getState(ctx context.Context, q sqlQueryer) (map[string]any, error) {
	var stateData string
	err := q.QueryRowContext(
		ctx,
		fmt.Sprintf(`SELECT state_data FROM "%s" WHERE session_id = ?`, s.sessionTable),
		s.sessionID,
	).Scan(&stateData)
	if errors.Is(err, sql.ErrNoRows) {
		return make(map[string]any), nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying session state: %w", err)
	}
	return unmarshalState(stateData)
}

func (s *SQLiteSession) initDB(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s" (
			session_id TEXT PRIMARY KEY,
			state_data TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, s.sessionTable))
	if err != nil {
		return fmt.Errorf("error creating session table: %w", err)
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s" (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			message_data TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES "%s" (session_id) ON DELETE CASCADE
		)
	`, s.messagesTable, s.sessionTable))
	if err != nil {
		return fmt.Errorf("error creating messages table: %w", err)
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS "idx_%s_session_id" ON "%s" (session_id, id)`,
		s.messagesTable, s.messagesTable))
	if err != nil {
		return fmt.Errorf("error creating index: %w", err)
	}

	return nil
}

func (s *SQLiteSession) Close() error {
	return s.db.Close()
}
