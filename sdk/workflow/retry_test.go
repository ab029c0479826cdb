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

package workflow_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngnhng/durabletask/sdk/workflow"
)

// timerContext implements only what the retry loop touches.
type timerContext struct {
	workflow.Context
	now    time.Time
	timers []time.Duration
}

func (c *timerContext) Now() time.Time { return c.now }

func (c *timerContext) Err() error { return nil }

func (c *timerContext) NewTimer(d time.Duration) workflow.Future {
	c.timers = append(c.timers, d)
	c.now = c.now.Add(d)
	return workflow.NewResolvedFuture(nil, nil)
}

func TestRetryForms(t *testing.T) {
	opts := workflow.FromRetryPolicy(&workflow.RetryPolicy{InitialInterval: time.Second, MaximumAttempts: 3})

	t.Run("Retry", func(t *testing.T) {
		ctx := &timerContext{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
		calls := 0
		err := workflow.Retry(ctx, &opts, func() error {
			calls++
			if calls < 3 {
				return errors.New("not yet")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, ctx.timers)
	})

	t.Run("RetryValue", func(t *testing.T) {
		ctx := &timerContext{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
		calls := 0
		v, err := workflow.RetryValue(ctx, &opts, func() (string, error) {
			calls++
			if calls < 2 {
				return "", errors.New("not yet")
			}
			return "charged", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "charged", v)
		assert.Equal(t, []time.Duration{time.Second}, ctx.timers)
	})

	t.Run("invalid policy", func(t *testing.T) {
		bad := workflow.FromRetryPolicy(&workflow.RetryPolicy{BackoffCoefficient: 0.5})
		ctx := &timerContext{}
		err := workflow.Retry(ctx, &bad, func() error {
			t.Fatal("op must not run")
			return nil
		})
		assert.ErrorIs(t, err, workflow.ErrInvalidRetryPolicy)
	})
}
