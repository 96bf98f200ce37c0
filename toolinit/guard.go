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

package toolinit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/nlpodyssey/news-search-agent/agents"
	"github.com/nlpodyssey/news-search-agent/asynctask"
)

// Connector obtains tools from an external provider.
type Connector interface {
	// Connect establishes the connection and returns the available tools.
	Connect(context.Context) ([]agents.FunctionTool, error)

	// Close releases the connection. It must be safe to call more than
	// once, and after a failed Connect.
	Close(context.Context) error
}

// Number of tool names included in the log line reporting a connection.
const loggedToolNames = 5

// Guard runs a Connector at most once and caches the tools it returns.
//
// The first caller to need the tools starts the connection in a background
// task; concurrent callers share that task. The attempt runs on a context
// detached from the caller, so canceling a request does not cancel it.
type Guard struct {
	name       string
	connector  Connector
	registries []*agents.ToolRegistry
	messages   Messages

	state atomic.Int32

	mu       sync.Mutex
	task     *asynctask.TaskNoValue
	tools    []agents.FunctionTool
	err      error
	attempts int
	closed   bool

	// Set when Close stopped waiting for the attempt. The attempt then
	// releases the connection itself.
	abandoned bool
}

type GuardParams struct {
	// Name used in log messages.
	Name string

	Connector Connector

	// Registries receiving the tools once the connection succeeds.
	Registries []*agents.ToolRegistry

	// Optional texts returned by the before-model callback. Empty fields
	// take the value from DefaultMessages.
	Messages Messages
}

func NewGuard(params GuardParams) *Guard {
	if params.Connector == nil {
		panic(errors.New("toolinit: NewGuard requires a Connector"))
	}
	return &Guard{
		name:       params.Name,
		connector:  params.Connector,
		registries: params.Registries,
		messages:   params.Messages.withDefaults(),
	}
}

// State returns the current state without locking.
func (g *Guard) State() State {
	return State(g.state.Load())
}

// Tools returns the cached tools. It is nil unless the state is StateReady,
// and the same slice on every call after that.
func (g *Guard) Tools() []agents.FunctionTool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tools
}

// Attempts returns the number of connection attempts started.
func (g *Guard) Attempts() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attempts
}

// Task returns the background connection task, or nil if none was started.
func (g *Guard) Task() *asynctask.TaskNoValue {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.task
}

// Start begins the connection attempt unless one was already started. It
// returns the attempt's task and whether this call started it. The task is
// nil only if the guard was closed before any attempt.
func (g *Guard) Start(ctx context.Context) (*asynctask.TaskNoValue, bool) {
	if g.State() != StateUninitialized {
		return g.Task(), false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// Another caller may have won the race for the lock.
	if g.State() != StateUninitialized || g.closed {
		return g.task, false
	}

	g.state.Store(int32(StateInProgress))
	g.attempts++
	g.task = asynctask.CreateTaskNoValue(context.WithoutCancel(ctx), g.connect)

	agents.Logger().Info("Initializing tools", slog.String("guard", g.name))
	return g.task, true
}

func (g *Guard) connect(ctx context.Context) error {
	tools, err := g.connector.Connect(ctx)
	if err == nil && len(tools) == 0 {
		err = errors.New("no tools exposed")
	}

	g.mu.Lock()
	if g.abandoned {
		g.err = &ConnectError{Err: ErrGuardClosed}
		g.state.Store(int32(StateFailed))
		g.mu.Unlock()

		agents.Logger().Info("Tool initialization finished after close, releasing the connection",
			slog.String("guard", g.name))
		g.closeConnector(ctx)
		return g.err
	}
	defer g.mu.Unlock()

	if err != nil {
		connectErr := &ConnectError{Err: err}
		g.tools = nil
		g.err = connectErr
		g.state.Store(int32(StateFailed))
		agents.Logger().Error("Tool initialization failed",
			slog.String("guard", g.name),
			slog.String("error", err.Error()))
		return connectErr
	}

	// Registries are filled before the state becomes visible as ready, so
	// an agent never sees StateReady with an empty registry.
	for _, r := range g.registries {
		r.Publish(tools)
	}
	g.tools = tools
	g.state.Store(int32(StateReady))

	names := agents.ToolNames(tools)
	if len(names) > loggedToolNames {
		names = names[:loggedToolNames]
	}
	agents.Logger().Info("Tools initialized",
		slog.String("guard", g.name),
		slog.Int("count", len(tools)),
		slog.Any("first", names))
	return nil
}

// Ensure starts the connection if needed and waits for it to finish. It
// returns the tools on success and an error wrapping ErrToolsUnavailable
// on failure. If ctx is done first, only the wait is abandoned.
func (g *Guard) Ensure(ctx context.Context) ([]agents.FunctionTool, error) {
	task, _ := g.Start(ctx)
	if task == nil {
		return nil, ErrGuardClosed
	}
	if _, err := task.AwaitContext(ctx); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrToolsUnavailable, g.err)
	}
	return g.tools, nil
}

// Wait blocks until no attempt is in progress or ctx is done. It does not
// start an attempt.
func (g *Guard) Wait(ctx context.Context) error {
	task := g.Task()
	if task == nil {
		return nil
	}
	_, err := task.AwaitContext(ctx)
	return err
}

// Close waits for an in-flight attempt, then closes the connector. It is
// safe to call more than once; later calls do nothing. Connector errors are
// logged, not returned.
//
// If ctx ends before the in-flight attempt does, Close returns the context
// error and leaves the release to the attempt, which closes the connector
// as soon as it finishes and records StateFailed.
func (g *Guard) Close(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	task := g.task
	g.mu.Unlock()

	if task == nil {
		return nil
	}

	if _, err := task.AwaitContext(ctx); err != nil {
		g.mu.Lock()
		// The attempt stores its outcome under the lock, so it either has
		// done so already or will see the flag.
		stillRunning := g.State() == StateInProgress
		if stillRunning {
			g.abandoned = true
		}
		g.mu.Unlock()

		if stillRunning {
			agents.Logger().Warn("Closing tool connection while initialization is still running",
				slog.String("guard", g.name),
				slog.String("error", err.Error()))
			return err
		}
	}

	g.closeConnector(ctx)
	return nil
}

func (g *Guard) closeConnector(ctx context.Context) {
	if err := g.connector.Close(context.WithoutCancel(ctx)); err != nil {
		agents.Logger().Error("Error closing tool connection",
			slog.String("guard", g.name),
			slog.String("error", err.Error()))
	} else {
		agents.Logger().Debug("Tool connection closed", slog.String("guard", g.name))
	}
}
