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
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeOf(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
		want ResultShape
	}{
		{"no result", nil, ShapeNone},
		{"plain value", reflect.TypeFor[int](), ShapeValue},
		{"struct value", reflect.TypeFor[struct{ N int }](), ShapeValue},
		{"task", reflect.TypeFor[*Task[int]](), ShapeAsyncValue},
		{"completion", reflect.TypeFor[*Completion](), ShapeAsync},
		{"error channel", reflect.TypeFor[<-chan error](), ShapeChanAsync},
		{"bidirectional error channel", reflect.TypeFor[chan error](), ShapeChanAsync},
		{"result channel", reflect.TypeFor[<-chan Result[string]](), ShapeChanAsyncValue},
		{"send-only channel", reflect.TypeFor[chan<- error](), ShapeValue},
		{"channel of ints", reflect.TypeFor[<-chan int](), ShapeValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShapeOf(tt.typ))
		})
	}
}

func TestUnwrapResultShapes(t *testing.T) {
	ctx := context.Background()

	t.Run("none", func(t *testing.T) {
		v, err := UnwrapResult(ctx, nil, nil, "ignored", ShapeNone)
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("value", func(t *testing.T) {
		v, err := UnwrapResult(ctx, nil, nil, 42, ShapeValue)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})

	t.Run("async", func(t *testing.T) {
		c := NewCompletion()
		go c.Complete(nil)
		v, err := UnwrapResult(ctx, nil, nil, c, ShapeAsync)
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("async value", func(t *testing.T) {
		task := RunTask(func() (int, error) { return 42, nil })
		v, err := UnwrapResult(ctx, nil, nil, task, ShapeAsyncValue)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})

	t.Run("channel closed without error", func(t *testing.T) {
		v, err := UnwrapResult(ctx, nil, nil, GoErr(func() error { return nil }), ShapeChanAsync)
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("channel value", func(t *testing.T) {
		ch := Go(func() (int, error) { return 42, nil })
		v, err := UnwrapResult(ctx, nil, nil, ch, ShapeChanAsyncValue)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})
}

func TestUnwrapResultReturnsTheSameFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	results := map[ResultShape]any{
		ShapeAsync:          func() *Completion { c := NewCompletion(); c.Complete(boom); return c }(),
		ShapeAsyncValue:     RunTask(func() (int, error) { return 0, boom }),
		ShapeChanAsync:      GoErr(func() error { return boom }),
		ShapeChanAsyncValue: Go(func() (int, error) { return 0, boom }),
	}
	for shape, result := range results {
		t.Run(shape.String(), func(t *testing.T) {
			state := NewEntityState(5)
			_, err := UnwrapResult(ctx, state, func() any { return 6 }, result, shape)
			assert.Same(t, boom, err)
			assert.Equal(t, 5, state.State(), "a failed operation leaves the state alone")
		})
	}
}

func TestUnwrapResultCapturesStateAfterSettling(t *testing.T) {
	ctx := context.Background()
	state := NewEntityState(5)
	current := 5

	task := NewTask[int]()
	go func() {
		time.Sleep(10 * time.Millisecond)
		current = 6
		task.Resolve(current)
	}()

	v, err := UnwrapResult(ctx, state, func() any { return current }, task, ShapeAsyncValue)
	require.NoError(t, err)
	assert.Equal(t, 6, v)
	assert.Equal(t, 6, state.State())
	assert.True(t, state.HasState())
}

func TestUnwrapResultClosedValueChannel(t *testing.T) {
	ch := make(chan Result[int])
	close(ch)

	_, err := UnwrapResult(context.Background(), nil, nil, (<-chan Result[int])(ch), ShapeChanAsyncValue)
	assert.ErrorIs(t, err, ErrResultChannelClosed)
}

func TestUnwrapResultMismatch(t *testing.T) {
	ctx := context.Background()

	_, err := UnwrapResult(ctx, nil, nil, 42, ShapeAsync)
	assert.ErrorIs(t, err, ErrUnknownResultShape)

	_, err = UnwrapResult(ctx, nil, nil, "not a task", ShapeAsyncValue)
	assert.ErrorIs(t, err, ErrUnknownResultShape)

	_, err = UnwrapResult(ctx, nil, nil, 42, ShapeChanAsync)
	assert.ErrorIs(t, err, ErrUnknownResultShape)

	var nilCh <-chan error
	_, err = UnwrapResult(ctx, nil, nil, nilCh, ShapeChanAsync)
	assert.ErrorIs(t, err, ErrUnknownResultShape)

	_, err = UnwrapResult(ctx, nil, nil, 42, ResultShape(99))
	assert.ErrorIs(t, err, ErrUnknownResultShape)

	var nilCompletion *Completion
	_, err = UnwrapResult(ctx, nil, nil, nilCompletion, ShapeAsync)
	assert.ErrorIs(t, err, ErrUnknownResultShape)

	var nilTask *Task[int]
	_, err = UnwrapResult(ctx, nil, nil, nilTask, ShapeAsyncValue)
	assert.ErrorIs(t, err, ErrUnknownResultShape)
}

func TestNilHandlesDoNotPanic(t *testing.T) {
	ctx := context.Background()

	var c *Completion
	assert.ErrorIs(t, c.Wait(ctx), ErrUnknownResultShape)

	var task *Task[string]
	v, err := UnwrapTask(ctx, nil, nil, task)
	assert.ErrorIs(t, err, ErrUnknownResultShape)
	assert.Empty(t, v)
}

func TestUnwrapResultHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := UnwrapResult(ctx, nil, nil, make(<-chan error), ShapeChanAsync)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = UnwrapResult(ctx, nil, nil, NewTask[int](), ShapeAsyncValue)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUnwrapTask(t *testing.T) {
	state := NewEntityState(nil)
	assert.False(t, state.HasState())

	v, err := UnwrapTask(context.Background(), state, func() any { return "after" },
		RunTask(func() (string, error) { return "ok", nil }))
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, "after", state.State())
}

func TestTaskSettlesOnce(t *testing.T) {
	task := NewTask[int]()
	assert.True(t, task.Resolve(1))
	assert.False(t, task.Resolve(2))
	assert.False(t, task.Fail(errors.New("late")))

	v, err := task.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	c := NewCompletion()
	assert.True(t, c.Complete(nil))
	assert.False(t, c.Complete(errors.New("late")))
	assert.NoError(t, c.Wait(context.Background()))
}

func TestUnwrapResultSeesMutationsOfEveryShape(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		shape ResultShape
		// start runs the operation against current and returns its result.
		start func(current *int) any
		want  any
	}{
		{ShapeNone, func(c *int) any { *c = 6; return nil }, nil},
		{ShapeValue, func(c *int) any { *c = 6; return 42 }, 42},
		{ShapeAsync, func(c *int) any {
			done := NewCompletion()
			go func() { time.Sleep(5 * time.Millisecond); *c = 6; done.Complete(nil) }()
			return done
		}, nil},
		{ShapeAsyncValue, func(c *int) any {
			return RunTask(func() (int, error) { time.Sleep(5 * time.Millisecond); *c = 6; return 42, nil })
		}, 42},
		{ShapeChanAsync, func(c *int) any {
			return GoErr(func() error { time.Sleep(5 * time.Millisecond); *c = 6; return nil })
		}, nil},
		{ShapeChanAsyncValue, func(c *int) any {
			return Go(func() (int, error) { time.Sleep(5 * time.Millisecond); *c = 6; return 42, nil })
		}, 42},
	}

	for _, tt := range tests {
		t.Run(tt.shape.String(), func(t *testing.T) {
			current := 5
			state := NewEntityState(current)

			v, err := UnwrapResult(ctx, state, func() any { return current }, tt.start(&current), tt.shape)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
			assert.Equal(t, 6, state.State())
		})
	}
}
