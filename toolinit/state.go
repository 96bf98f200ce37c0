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

// Package toolinit connects to an external tool provider lazily, at most
// once, and hands the resulting tools to the agents that need them.
package toolinit

import (
	"errors"
	"fmt"
)

// State is the lifecycle state of a Guard.
//
// A Guard moves from StateUninitialized to StateInProgress when the first
// caller starts the connection, then to exactly one of StateReady or
// StateFailed. StateFailed is terminal: there is no retry.
type State int32

const (
	StateUninitialized State = iota
	StateInProgress
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInProgress:
		return "in_progress"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// ErrToolsUnavailable is returned by Guard.Ensure when the connection
// attempt failed.
var ErrToolsUnavailable = errors.New("tools unavailable: initialization failed")

// ErrGuardClosed is returned by Guard.Ensure once the guard is closed.
var ErrGuardClosed = errors.New("tool guard is closed")

// ConnectError wraps the reason a connection attempt failed.
type ConnectError struct {
	Err error
}

func (err *ConnectError) Error() string { return "tool provider connection failed: " + err.Err.Error() }
func (err *ConnectError) Unwrap() error { return err.Err }
