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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/nlpodyssey/news-search-agent/types/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPgConn is a mock implementation of PgConnInterface for testing
type MockPgConn struct {
	mock.Mock
}

func (m *MockPgConn) Query(ctx context.Context, sql string, args ...any) (PgRowsInterface, error) {
	arguments := []any{ctx, sql}
	arguments = append(arguments, args...)
	ret := m.Called(arguments...)
	rows, _ := ret.Get(0).(PgRowsInterface)
	return rows, ret.Error(1)
}

func (m *MockPgConn) QueryRow(ctx context.Context, sql string, args ...any) PgRowInterface {
	arguments := []any{ctx, sql}
	arguments = append(arguments, args...)
	ret := m.Called(arguments...)
	return ret.Get(0).(PgRowInterface)
}

func (m *MockPgConn) Exec(ctx context.Context, sql string, args ...any) (any, error) {
	arguments := []any{ctx, sql}
	arguments = append(arguments, args...)
	ret := m.Called(arguments...)
	return ret.Get(0), ret.Error(1)
}

func (m *MockPgConn) Close(ctx context.Context) error {
	ret := m.Called(ctx)
	return ret.Error(0)
}

// MockPgRows is a mock implementation of PgRowsInterface for testing
type MockPgRows struct {
	data []string
	pos  int
}

func NewMockPgRows(data []string) *MockPgRows {
	return &MockPgRows{data: data, pos: -1}
}

func (m *MockPgRows) Next() bool {
	m.pos++
	return m.pos < len(m.data)
}

func (m *MockPgRows) Scan(dest ...any) error {
	if m.pos >= len(m.data) {
		return fmt.Errorf("no more rows")
	}
	if strPtr, ok := dest[0].(*string); ok {
		*strPtr = m.data[m.pos]
	}
	return nil
}

func (m *MockPgRows) Err() error { return nil }
func (m *MockPgRows) Close()     {}

// MockPgRow is a mock implementation of PgRowInterface for testing
type MockPgRow struct {
	data string
	err  error
}

func (m *MockPgRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if strPtr, ok := dest[0].(*string); ok {
		*strPtr = m.data
	}
	return nil
}

func sqlContaining(fragment string) any {
	return mock.MatchedBy(func(sql string) bool { return strings.Contains(sql, fragment) })
}

func createMockPgSession(t *testing.T, sessionID string, mockConn *MockPgConn) *PgSession {
	t.Helper()
	mockConn.On("Exec", mock.Anything, sqlContaining("CREATE")).Return(nil, nil).Times(3)
	session, err := NewPgSession(t.Context(), PgSessionParams{
		SessionID:     sessionID,
		SessionTable:  "test_sessions",
		MessagesTable: "test_messages",
		Conn:          mockConn,
	})
	require.NoError(t, err)
	return session
}

func marshalItems(t *testing.T, items []message.Message) []string {
	t.Helper()
	out := make([]string, len(items))
	for i, item := range items {
		b, err := json.Marshal(item)
		require.NoError(t, err)
		out[i] = string(b)
	}
	return out
}

func TestNewPgSession(t *testing.T) {
	t.Run("missing connection string and no conn provided", func(t *testing.T) {
		_, err := NewPgSession(t.Context(), PgSessionParams{SessionID: "test"})
		assert.ErrorContains(t, err, "connection string is required")
	})

	t.Run("successful creation with mock connection", func(t *testing.T) {
		mockConn := &MockPgConn{}
		session := createMockPgSession(t, "test", mockConn)

		assert.Equal(t, "test", session.SessionID(t.Context()))
		assert.Equal(t, "test_sessions", session.sessionTable)
		assert.Equal(t, "test_messages", session.messagesTable)
		mockConn.AssertExpectations(t)
	})

	t.Run("init failure closes the connection", func(t *testing.T) {
		mockConn := &MockPgConn{}
		mockConn.On("Exec", mock.Anything, sqlContaining("CREATE TABLE")).Return(nil, errors.New("denied")).Once()
		mockConn.On("Close", mock.Anything).Return(nil).Once()

		_, err := NewPgSession(t.Context(), PgSessionParams{SessionID: "test", Conn: mockConn})
		assert.ErrorContains(t, err, "error creating session table")
		mockConn.AssertExpectations(t)
	})
}

func TestPgSession_GetItems(t *testing.T) {
	items := createTestItems()

	t.Run("no limit", func(t *testing.T) {
		mockConn := &MockPgConn{}
		session := createMockPgSession(t, "test", mockConn)
		mockConn.On("Query", mock.Anything, sqlContaining("ORDER BY id ASC"), "test").
			Return(NewMockPgRows(marshalItems(t, items)), nil).Once()

		retrieved, err := session.GetItems(t.Context(), 0)
		require.NoError(t, err)
		assert.Equal(t, items, retrieved)
		mockConn.AssertExpectations(t)
	})

	t.Run("with limit returns chronological order", func(t *testing.T) {
		mockConn := &MockPgConn{}
		session := createMockPgSession(t, "test", mockConn)
		newestFirst := marshalItems(t, []message.Message{items[2], items[1]})
		mockConn.On("Query", mock.Anything, sqlContaining("LIMIT"), "test", 2).
			Return(NewMockPgRows(newestFirst), nil).Once()

		retrieved, err := session.GetItems(t.Context(), 2)
		require.NoError(t, err)
		assert.Equal(t, items[1:], retrieved)
	})

	t.Run("invalid rows are skipped", func(t *testing.T) {
		mockConn := &MockPgConn{}
		session := createMockPgSession(t, "test", mockConn)
		data := append([]string{"not json"}, marshalItems(t, items[:1])...)
		mockConn.On("Query", mock.Anything, mock.Anything, "test").
			Return(NewMockPgRows(data), nil).Once()

		retrieved, err := session.GetItems(t.Context(), 0)
		require.NoError(t, err)
		assert.Equal(t, items[:1], retrieved)
	})

	t.Run("query error", func(t *testing.T) {
		mockConn := &MockPgConn{}
		session := createMockPgSession(t, "test", mockConn)
		mockConn.On("Query", mock.Anything, mock.Anything, "test").
			Return(nil, errors.New("connection lost")).Once()

		_, err := session.GetItems(t.Context(), 0)
		assert.ErrorContains(t, err, "connection lost")
	})
}

func TestPgSession_AddItems(t *testing.T) {
	items := createTestItems()
	mockConn := &MockPgConn{}
	session := createMockPgSession(t, "test", mockConn)

	mockConn.On("Exec", mock.Anything, sqlContaining("ON CONFLICT"), "test").Return(nil, nil).Once()
	for _, data := range marshalItems(t, items) {
		mockConn.On("Exec", mock.Anything, sqlContaining("INSERT INTO test_messages"), "test", data).Return(nil, nil).Once()
	}
	mockConn.On("Exec", mock.Anything, sqlContaining("SET updated_at"), "test").Return(nil, nil).Once()

	require.NoError(t, session.AddItems(t.Context(), items))
	require.NoError(t, session.AddItems(t.Context(), nil))
	mockConn.AssertExpectations(t)
}

func TestPgSession_PopItem(t *testing.T) {
	t.Run("returns the deleted item", func(t *testing.T) {
		mockConn := &MockPgConn{}
		session := createMockPgSession(t, "test", mockConn)
		item := message.Assistant("news_publisher", "## Report")
		mockConn.On("QueryRow", mock.Anything, sqlContaining("RETURNING message_data"), "test").
			Return(&MockPgRow{data: marshalItems(t, []message.Message{item})[0]}).Once()

		popped, err := session.PopItem(t.Context())
		require.NoError(t, err)
		require.NotNil(t, popped)
		assert.Equal(t, item, *popped)
	})

	t.Run("empty session", func(t *testing.T) {
		mockConn := &MockPgConn{}
		session := createMockPgSession(t, "test", mockConn)
		mockConn.On("QueryRow", mock.Anything, mock.Anything, "test").
			Return(&MockPgRow{err: pgx.ErrNoRows}).Once()

		popped, err := session.PopItem(t.Context())
		require.NoError(t, err)
		assert.Nil(t, popped)
	})
}

func TestPgSession_ClearSession(t *testing.T) {
	mockConn := &MockPgConn{}
	session := createMockPgSession(t, "test", mockConn)
	mockConn.On("Exec", mock.Anything, sqlContaining("DELETE FROM test_messages"), "test").Return(nil, nil).Once()
	mockConn.On("Exec", mock.Anything, sqlContaining("DELETE FROM test_sessions"), "test").Return(nil, nil).Once()

	require.NoError(t, session.ClearSession(t.Context()))
	mockConn.AssertExpectations(t)
}

func TestPgSession_State(t *testing.T) {
	t.Run("missing session yields empty state", func(t *testing.T) {
		mockConn := &MockPgConn{}
		session := createMockPgSession(t, "test", mockConn)
		mockConn.On("QueryRow", mock.Anything, sqlContaining("state_data::text"), "test").
			Return(&MockPgRow{err: pgx.ErrNoRows}).Once()

		state, err := session.GetState(t.Context())
		require.NoError(t, err)
		assert.Empty(t, state)
	})

	t.Run("stored state is decoded", func(t *testing.T) {
		mockConn := &MockPgConn{}
		session := createMockPgSession(t, "test", mockConn)
		mockConn.On("QueryRow", mock.Anything, sqlContaining("state_data::text"), "test").
			Return(&MockPgRow{data: `{"search_queries":"q"}`}).Once()

		state, err := session.GetState(t.Context())
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"search_queries": "q"}, state)
	})

	t.Run("update merges with jsonb concatenation", func(t *testing.T) {
		mockConn := &MockPgConn{}
		session := createMockPgSession(t, "test", mockConn)
		mockConn.On("Exec", mock.Anything, sqlContaining("ON CONFLICT"), "test").Return(nil, nil).Once()
		mockConn.On("Exec", mock.Anything, sqlContaining("state_data || $1::jsonb"), `{"news_articles":"[]"}`, "test").
			Return(nil, nil).Once()

		require.NoError(t, session.UpdateState(t.Context(), map[string]any{"news_articles": "[]"}))
		require.NoError(t, session.UpdateState(t.Context(), nil))
		mockConn.AssertExpectations(t)
	})
}
