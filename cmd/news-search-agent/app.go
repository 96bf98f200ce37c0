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

package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/nlpodyssey/news-search-agent/agents"
	"github.com/nlpodyssey/news-search-agent/memory"
	"github.com/nlpodyssey/news-search-agent/newsagent"
	"github.com/nlpodyssey/news-search-agent/toolinit"
)

// app holds what every command needs. Close must be called when done.
type app struct {
	cfg      *newsagent.Config
	pipeline *newsagent.Pipeline
	runner   agents.Runner
	closers  []func(context.Context) error
}

func newApp(ctx context.Context, flags *rootFlags) (_ *app, err error) {
	if flags.verbose {
		agents.EnableVerboseStdoutLogging()
	}
	if err = newsagent.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := newsagent.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}
	cfg.Model = cmp.Or(flags.model, cfg.Model)
	cfg.Database = cmp.Or(flags.database, cfg.Database)
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}

	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			err = errors.Join(err, a.Close(context.WithoutCancel(ctx)))
		}
	}()

	session, err := a.openSession(ctx, flags.sessionID)
	if err != nil {
		return nil, err
	}

	a.pipeline = newsagent.NewPipeline(newsagent.PipelineParams{
		ModelName: cfg.Model,
		Connector: toolinit.NewMCPConnector(cfg.ConnectorParams()),
	})
	a.closers = append(a.closers, a.pipeline.Close)

	a.runner = agents.Runner{Config: agents.RunConfig{
		ModelProvider: cfg.ModelProvider(),
		MaxTurns:      cfg.MaxTurns,
		Session:       session,
		HistorySize:   cfg.HistorySize,
	}}

	if flags.wait {
		tools, err := a.pipeline.EnsureTools(ctx)
		if err != nil {
			return nil, err
		}
		agents.Logger().Info("Research tools ready", slog.Int("count", len(tools)))
	}
	return a, nil
}

// openSession opens the configured session database. Without a database
// and a session ID there is no session.
func (a *app) openSession(ctx context.Context, sessionID string) (memory.Session, error) {
	db := a.cfg.Database
	switch {
	case db == "" && sessionID == "":
		return nil, nil
	case db == "":
		return memory.NewInMemorySession(sessionID), nil
	}

	sessionID = cmp.Or(sessionID, uuid.NewString())
	agents.Logger().Debug("Opening session", slog.String("sessionID", sessionID))

	if strings.HasPrefix(db, "postgres://") || strings.HasPrefix(db, "postgresql://") {
		s, err := memory.NewPgSession(ctx, memory.PgSessionParams{
			SessionID:        sessionID,
			ConnectionString: db,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	}

	s, err := memory.NewSQLiteSession(ctx, memory.SQLiteSessionParams{
		SessionID:        sessionID,
		DBDataSourceName: db,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return s.Close() })
	return s, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}
