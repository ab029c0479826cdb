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

package internal

import (
	"context"
	"fmt"
	"sync"
)

// Waiter is an awaitable operation without a value.
type Waiter interface {
	Wait(ctx context.Context) error
}

// ValueAwaiter is an awaitable operation producing a value.
type ValueAwaiter interface {
	AwaitAny(ctx context.Context) (any, error)
}

var (
	_ Waiter       = (*Task[int])(nil)
	_ ValueAwaiter = (*Task[int])(nil)
	_ Waiter       = (*Completion)(nil)
)

// Task is a settle-once result shared between a producer and any number of
// waiters.
type Task[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

func NewTask[T any]() *Task[T] {
	return &Task[T]{done: make(chan struct{})}
}

// RunTask runs fn on its own goroutine and settles the task with its result.
func RunTask[T any](fn func() (T, error)) *Task[T] {
	t := NewTask[T]()
	go func() {
		v, err := fn()
		if err != nil {
			t.Fail(err)
			return
		}
		t.Resolve(v)
	}()
	return t
}

// Resolve settles the task with v. It reports false if already settled.
func (t *Task[T]) Resolve(v T) bool {
	settled := false
	t.once.Do(func() {
		t.value = v
		close(t.done)
		settled = true
	})
	return settled
}

// Fail settles the task with err. It reports false if already settled.
func (t *Task[T]) Fail(err error) bool {
	settled := false
	t.once.Do(func() {
		t.err = err
		close(t.done)
		settled = true
	})
	return settled
}

func (t *Task[T]) Done() <-chan struct{} { return t.done }

func (t *Task[T]) Await(ctx context.Context) (T, error) {
	if t == nil {
		var zero T
		return zero, fmt.Errorf("%w: nil %T", ErrUnknownResultShape, t)
	}
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (t *Task[T]) Wait(ctx context.Context) error {
	_, err := t.Await(ctx)
	return err
}

func (t *Task[T]) AwaitAny(ctx context.Context) (any, error) {
	v, err := t.Await(ctx)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Completion is a Task without a value.
type Completion struct {
	t *Task[struct{}]
}

func NewCompletion() *Completion {
	return &Completion{t: NewTask[struct{}]()}
}

// Complete settles the completion, successfully when err is nil.
func (c *Completion) Complete(err error) bool {
	if err != nil {
		return c.t.Fail(err)
	}
	return c.t.Resolve(struct{}{})
}

func (c *Completion) Done() <-chan struct{} { return c.t.Done() }

func (c *Completion) Wait(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("%w: nil *Completion", ErrUnknownResultShape)
	}
	return c.t.Wait(ctx)
}

// Result is the element of a value channel, the lightweight form of Task.
type Result[T any] struct {
	Value T
	Err   error
}

func (r Result[T]) Unpack() (any, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Value, nil
}

// Go runs fn on its own goroutine and delivers its result on the returned
// channel, which is closed afterwards.
func Go[T any](fn func() (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		defer close(ch)
		v, err := fn()
		ch <- Result[T]{Value: v, Err: err}
	}()
	return ch
}

// GoErr is Go for functions without a value. A nil error is delivered by
// closing the channel.
func GoErr(fn func() error) <-chan error {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		if err := fn(); err != nil {
			ch <- err
		}
	}()
	return ch
}
