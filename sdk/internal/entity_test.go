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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNegative = errors.New("negative amount")

type counter struct {
	value int
}

func (c *counter) Add(n int) (int, error) {
	if n < 0 {
		return 0, errNegative
	}
	c.value += n
	return c.value, nil
}

func (c *counter) Double() *Task[int] {
	return RunTask(func() (int, error) {
		c.value *= 2
		return c.value, nil
	})
}

func (c *counter) Reset() <-chan error {
	return GoErr(func() error {
		c.value = 0
		return nil
	})
}

func (c *counter) Get(ctx context.Context) int { return c.value }

func (c *counter) Touch() {}

func (c *counter) Split(a, b int) int { return a + b }

func (c *counter) State() any { return c.value }

// lazy returns typed nil handles instead of running anything.
type lazy struct{}

func (lazy) Later() *Completion { return nil }

func (lazy) Eventually() *Task[int] { return nil }

// plain has no State method, so dispatch keeps the previous state.
type plain struct{}

func (plain) Echo(s string) string { return s }

func TestDispatchOperations(t *testing.T) {
	ctx := context.Background()
	c := &counter{value: 5}
	state := NewEntityState(5)

	v, err := DispatchEntityOperation(ctx, c, state, "add", int64(1))
	require.NoError(t, err)
	assert.Equal(t, 6, v)
	assert.Equal(t, 6, state.State())

	v, err = DispatchEntityOperation(ctx, c, state, "DOUBLE", nil)
	require.NoError(t, err)
	assert.Equal(t, 12, v)
	assert.Equal(t, 12, state.State())

	v, err = DispatchEntityOperation(ctx, c, state, "get", nil)
	require.NoError(t, err)
	assert.Equal(t, 12, v)

	v, err = DispatchEntityOperation(ctx, c, state, "Reset", nil)
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Equal(t, 0, state.State())

	v, err = DispatchEntityOperation(ctx, c, state, "touch", nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDispatchReturnsOperationErrorVerbatim(t *testing.T) {
	c := &counter{value: 5}
	state := NewEntityState(5)

	_, err := DispatchEntityOperation(context.Background(), c, state, "Add", -1)
	assert.Same(t, errNegative, err)
	assert.Equal(t, 5, state.State())
}

func TestDispatchKeepsStateWithoutProvider(t *testing.T) {
	state := NewEntityState("initial")

	v, err := DispatchEntityOperation(context.Background(), plain{}, state, "echo", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", v)
	assert.Equal(t, "initial", state.State())
}

func TestDispatchRejectsUnknownOperations(t *testing.T) {
	ctx := context.Background()
	state := NewEntityState(nil)

	_, err := DispatchEntityOperation(ctx, &counter{}, state, "missing", nil)
	assert.ErrorIs(t, err, ErrEntityOperationNotFound)

	_, err = DispatchEntityOperation(ctx, nil, state, "add", 1)
	assert.ErrorIs(t, err, ErrEntityOperationNotFound)

	_, err = DispatchEntityOperation(ctx, &counter{}, state, "split", 1)
	assert.Error(t, err)
}

func TestDispatchRejectsNilHandles(t *testing.T) {
	ctx := context.Background()
	state := NewEntityState("before")

	for _, op := range []string{"later", "eventually"} {
		t.Run(op, func(t *testing.T) {
			var v any
			var err error
			require.NotPanics(t, func() {
				v, err = DispatchEntityOperation(ctx, lazy{}, state, op, nil)
			})
			assert.ErrorIs(t, err, ErrUnknownResultShape)
			assert.Nil(t, v)
			assert.Equal(t, "before", state.State())
		})
	}
}
