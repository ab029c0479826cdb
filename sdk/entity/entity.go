// Copyright 2025 Nguyen Nhat Nguyen
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

// Package entity dispatches named operations to stateful Go values.
//
// An entity is any value whose exported methods are its operations. An
// operation may take a context.Context first and one input, and may return
// a plain value, nothing, an awaitable (*Task, *Completion) or a result
// channel (<-chan error, <-chan Result[T]), optionally followed by an error.
// Whatever shape it returns, Dispatch waits for the operation to settle,
// records the entity's state and returns the value.
//
//	type Counter struct{ n int }
//
//	func (c *Counter) Add(delta int) int { c.n += delta; return c.n }
//	func (c *Counter) State() any        { return c.n }
//
//	state := entity.NewState(nil)
//	v, err := entity.Dispatch(ctx, &Counter{}, state, "add", 5)
package entity

import (
	"context"

	"github.com/ngnhng/durabletask/api/serde"
	"github.com/ngnhng/durabletask/sdk/internal"
)

type (
	// State holds an entity's state between operations.
	State = internal.EntityState
	// StateProvider is implemented by entities that expose their state.
	StateProvider = internal.StateProvider
	// Dispatcher invokes operations with a given serde for input conversion.
	Dispatcher = internal.EntityDispatcher

	// ResultShape is how an operation delivers its result.
	ResultShape = internal.ResultShape

	Waiter       = internal.Waiter
	ValueAwaiter = internal.ValueAwaiter
	Completion   = internal.Completion
)

// Task is a settle-once asynchronous result.
type Task[T any] = internal.Task[T]

// Result is the element of a value result channel.
type Result[T any] = internal.Result[T]

const (
	ShapeNone           = internal.ShapeNone
	ShapeValue          = internal.ShapeValue
	ShapeAsync          = internal.ShapeAsync
	ShapeAsyncValue     = internal.ShapeAsyncValue
	ShapeChanAsync      = internal.ShapeChanAsync
	ShapeChanAsyncValue = internal.ShapeChanAsyncValue
)

var (
	ErrOperationNotFound   = internal.ErrEntityOperationNotFound
	ErrUnknownResultShape  = internal.ErrUnknownResultShape
	ErrResultChannelClosed = internal.ErrResultChannelClosed
)

func NewState(initial any) *State { return internal.NewEntityState(initial) }

func NewDispatcher(conv serde.BinarySerde) *Dispatcher { return internal.NewEntityDispatcher(conv) }

// Dispatch runs operation on target and returns its normalized result. A
// failed operation returns its error unchanged and leaves state as it was.
func Dispatch(ctx context.Context, target any, state *State, operation string, input any) (any, error) {
	return internal.DispatchEntityOperation(ctx, target, state, operation, input)
}

// Unwrap normalizes a result already obtained from an operation. getState
// is read once the result has settled.
func Unwrap(ctx context.Context, state *State, getState func() any, result any, shape ResultShape) (any, error) {
	return internal.UnwrapResult(ctx, state, getState, result, shape)
}

// UnwrapTask is Unwrap for a statically typed task.
func UnwrapTask[T any](ctx context.Context, state *State, getState func() any, t *Task[T]) (T, error) {
	return internal.UnwrapTask(ctx, state, getState, t)
}

func NewTask[T any]() *Task[T] { return internal.NewTask[T]() }

// RunTask runs fn on its own goroutine and settles the returned task with its result.
func RunTask[T any](fn func() (T, error)) *Task[T] { return internal.RunTask(fn) }

func NewCompletion() *Completion { return internal.NewCompletion() }

// Go runs fn asynchronously and delivers its result on a channel.
func Go[T any](fn func() (T, error)) <-chan Result[T] { return internal.Go(fn) }

// GoErr runs fn asynchronously. Closing the channel without a value means success.
func GoErr(fn func() error) <-chan error { return internal.GoErr(fn) }
