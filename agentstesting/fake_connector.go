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

package agentstesting

import (
	"context"
	"sync"

	"github.com/nlpodyssey/news-search-agent/agents"
)

// FakeConnector stands in for a tool provider connection.
//
// If Release is not nil, Connect blocks until it is closed (or ctx is
// done), which lets tests observe the in-progress state. Started is
// closed when the first Connect call begins.
type FakeConnector struct {
	Tools    []agents.FunctionTool
	Err      error
	CloseErr error
	Release  chan struct{}

	mu          sync.Mutex
	started     chan struct{}
	startedOnce sync.Once
	connects    int
	closes      int
}

func NewFakeConnector(tools []agents.FunctionTool, err error) *FakeConnector {
	return &FakeConnector{
		Tools:   tools,
		Err:     err,
		started: make(chan struct{}),
	}
}

// NewBlockingFakeConnector returns a connector whose Connect waits for
// Release to be closed.
func NewBlockingFakeConnector(tools []agents.FunctionTool, err error) *FakeConnector {
	c := NewFakeConnector(tools, err)
	c.Release = make(chan struct{})
	return c
}

func (c *FakeConnector) Connect(ctx context.Context) ([]agents.FunctionTool, error) {
	c.mu.Lock()
	c.connects++
	c.mu.Unlock()
	c.startedOnce.Do(func() { close(c.started) })

	if c.Release != nil {
		select {
		case <-c.Release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Tools, nil
}

func (c *FakeConnector) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return c.CloseErr
}

// Started is closed once Connect has been entered.
func (c *FakeConnector) Started() <-chan struct{} {
	return c.started
}

func (c *FakeConnector) Connects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connects
}

func (c *FakeConnector) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}
