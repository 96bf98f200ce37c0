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

package agents

import (
	"errors"
	"fmt"
)

// AgentsError is the base error for failures raised while running a pipeline
// that are neither the caller's nor the model's fault, such as a tool
// transport failing.
type AgentsError struct {
	Err error
}

func (err *AgentsError) Error() string { return err.Err.Error() }
func (err *AgentsError) Unwrap() error { return err.Err }

func NewAgentsError(message string) error {
	return &AgentsError{Err: errors.New(message)}
}

func AgentsErrorf(format string, a ...any) error {
	return &AgentsError{Err: fmt.Errorf(format, a...)}
}

// MaxTurnsExceededError is returned when a stage keeps calling tools past
// the maximum number of turns.
type MaxTurnsExceededError struct {
	Err error
}

func (err *MaxTurnsExceededError) Error() string { return err.Err.Error() }
func (err *MaxTurnsExceededError) Unwrap() error { return err.Err }

func MaxTurnsExceededErrorf(format string, a ...any) error {
	return &MaxTurnsExceededError{Err: fmt.Errorf(format, a...)}
}

// ModelBehaviorError is returned when the model does something unexpected,
// e.g. returning a response with no content, or providing output that does
// not match the stage output schema.
type ModelBehaviorError struct {
	Err error
}

func (err *ModelBehaviorError) Error() string { return err.Err.Error() }
func (err *ModelBehaviorError) Unwrap() error { return err.Err }

func NewModelBehaviorError(message string) error {
	return &ModelBehaviorError{Err: errors.New(message)}
}

func ModelBehaviorErrorf(format string, a ...any) error {
	return &ModelBehaviorError{Err: fmt.Errorf(format, a...)}
}

// UserError is returned when the pipeline is misconfigured by its caller.
type UserError struct {
	Err error
}

func (err *UserError) Error() string { return err.Err.Error() }
func (err *UserError) Unwrap() error { return err.Err }

func NewUserError(message string) error {
	return &UserError{Err: errors.New(message)}
}

func UserErrorf(format string, a ...any) error {
	return &UserError{Err: fmt.Errorf(format, a...)}
}
