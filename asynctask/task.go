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

package asynctask

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Task is a handle to a function running in its own goroutine.
//
// The result becomes visible once Done is closed; it is written exactly once.
type Task[T any] struct {
	mu       sync.Mutex
	done     chan struct{}
	cancel   context.CancelFunc
	canceled bool
	result   Result[T]
}

type Result[T any] struct {
	Value T
	Error error
}

var taskCanceledErr = errors.New("task has been canceled")

func TaskCanceledErr() error { return taskCanceledErr }

// Done returns a channel that is closed when the task function has returned.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Await blocks until the task is done and returns its result.
func (t *Task[T]) Await() Result[T] {
	<-t.done
	return t.result
}

// AwaitContext is like Await, but gives up when ctx is done.
// Giving up does not cancel the task.
func (t *Task[T]) AwaitContext(ctx context.Context) (Result[T], error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return Result[T]{}, ctx.Err()
	}
}

func (t *Task[T]) IsDone() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *Task[T]) IsCanceled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canceled
}

// Cancel cancels the context passed to the task function. It has no effect
// once the task is done.
func (t *Task[T]) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.IsDone() && !t.canceled {
		t.cancel()
		t.canceled = true
	}
}

type TaskFunc[T any] = func(context.Context) (T, error)

// CreateTask starts fn in a new goroutine. A panic in fn is turned into the
// task error.
func CreateTask[T any](ctx context.Context, fn TaskFunc[T]) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		var value T
		var err error

		defer func() {
			if r := recover(); r != nil {
				err = errors.Join(err, fmt.Errorf("task panicked: %v", r))
			}

			t.mu.Lock()
			if t.canceled {
				err = errors.Join(err, TaskCanceledErr())
			}
			t.result = Result[T]{Value: value, Error: err}
			close(t.done)
			t.mu.Unlock()

			cancel()
		}()

		value, err = fn(ctx)
	}()

	return t
}

type TaskNoValue = Task[struct{}]

func CreateTaskNoValue(ctx context.Context, fn func(context.Context) error) *TaskNoValue {
	return CreateTask[struct{}](ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}
