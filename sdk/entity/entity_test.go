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


package entity_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngnhng/durabletask/sdk/entity"
)

var errEmpty = errors.New("cart is empty")

type Cart struct {
	items []string
}

func (c *Cart) AddItem(item string) int {
	c.items = append(c.items, item)
	return len(c.items)
}

func (c *Cart) Checkout(ctx context.Context) *entity.Task[[]string] {
	return entity.RunTask(func() ([]string, error) {
		if len(c.items) == 0 {
			return nil, errEmpty
		}
		out := c.items
		c.items = nil
		return out, nil
	})
}

func (c *Cart) Count() <-chan entity.Result[int] {
	return entity.Go(func() (int, error) { return len(c.items), nil })
}

func (c *Cart) State() any { return len(c.items) }

func TestCartOperations(t *testing.T) {
	ctx := context.Background()
	cart := &Cart{}
	state := entity.NewState(0)

	n, err := entity.Dispatch(ctx, cart, state, "additem", "book")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = entity.Dispatch(ctx, cart, state, "AddItem", "pen")
	require.NoError(t, err)
	assert.Equal(t, 2, state.State())

	count, err := entity.Dispatch(ctx, cart, state, "count", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	items, err := entity.Dispatch(ctx, cart, state, "checkout", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"book", "pen"}, items)
	assert.Equal(t, 0, state.State())

	_, err = entity.Dispatch(ctx, cart, state, "checkout", nil)
	assert.ErrorIs(t, err, errEmpty)

	_, err = entity.Dispatch(ctx, cart, state, "refund", nil)
	assert.ErrorIs(t, err, entity.ErrOperationNotFound)
}

func TestUnwrapTaskKeepsStaticType(t *testing.T) {
	state := entity.NewState(nil)
	task := entity.NewTask[int]()
	task.Resolve(7)

	v, err := entity.UnwrapTask(context.Background(), state, func() any { return "settled" }, task)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, "settled", state.State())
}

func ExampleDispatch() {
	cart := &Cart{}
	state := entity.NewState(nil)

	n, _ := entity.Dispatch(context.Background(), cart, state, "addItem", "apple")
	fmt.Println(n, state.State())
	// Output: 1 1
}
