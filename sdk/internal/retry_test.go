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
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngnhng/durabletask/api"
)

// scriptedContext is a Context whose commands settle immediately from a
// script and whose timers advance a virtual clock.
type scriptedContext struct {
	context.Context
	cancel context.CancelFunc

	now      time.Time
	timers   []time.Duration
	children []string
	calls    int
	outcomes []outcome
}

type outcome struct {
	value any
	err   error
}

func newScriptedContext(outcomes ...outcome) *scriptedContext {
	ctx, cancel := context.WithCancel(context.Background())
	return &scriptedContext{
		Context:  ctx,
		cancel:   cancel,
		now:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		outcomes: outcomes,
	}
}

func (c *scriptedContext) next() Future {
	i := c.calls
	c.calls++
	if i >= len(c.outcomes) {
		i = len(c.outcomes) - 1
	}
	o := c.outcomes[i]
	return NewResolvedFuture(o.value, o.err)
}

func (c *scriptedContext) ID() api.WorkflowID              { return "wf-1" }
func (c *scriptedContext) GetWorkflowFunctionName() string { return "Workflow" }
func (c *scriptedContext) IsReplaying() bool               { return false }
func (c *scriptedContext) Now() time.Time                  { return c.now }
func (c *scriptedContext) WithValue(any, any) Context      { return c }
func (c *scriptedContext) Logger() *slog.Logger            { return slog.New(slog.DiscardHandler) }

func (c *scriptedContext) ExecuteActivity(any, ...any) Future { return c.next() }

func (c *scriptedContext) ExecuteSubWorkflow(instanceID string, _ any, _ ...any) Future {
	c.children = append(c.children, instanceID)
	return c.next()
}

func (c *scriptedContext) NewTimer(d time.Duration) Future {
	c.timers = append(c.timers, d)
	c.now = c.now.Add(d)
	return NewResolvedFuture(nil, nil)
}

func failing(n int, err error, final outcome) []outcome {
	out := make([]outcome, 0, n+1)
	for range n {
		out = append(out, outcome{err: err})
	}
	return append(out, final)
}

func chargeActivity(context.Context, int) (int, error) { return 0, nil }

func TestExecuteWithRetryPolicyExhaustsAttempts(t *testing.T) {
	boom := errors.New("boom")
	ctx := newScriptedContext(outcome{err: boom})
	opts := FromRetryPolicy(&RetryPolicy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2,
		MaximumAttempts:    4,
	})

	err := CallActivity(ctx, &opts, chargeActivity, nil, 1)
	assert.Same(t, boom, err, "the last attempt's error is returned unchanged")
	assert.Equal(t, 4, ctx.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, ctx.timers)
}

func TestExecuteWithRetryPolicySucceeds(t *testing.T) {
	ctx := newScriptedContext(failing(2, errors.New("flaky"), outcome{value: 42})...)
	opts := FromRetryPolicy(&RetryPolicy{InitialInterval: 100 * time.Millisecond, MaximumAttempts: 5})

	var got int
	require.NoError(t, CallActivity(ctx, &opts, chargeActivity, &got, 1))
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, ctx.calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, ctx.timers)
}

func TestExecuteWithRetryPolicyStopsOnNonRetryable(t *testing.T) {
	declined := NewNonRetryableError(declinedError{})
	ctx := newScriptedContext(outcome{err: declined})
	opts := FromRetryPolicy(&RetryPolicy{MaximumAttempts: 5})

	err := CallActivity(ctx, &opts, chargeActivity, nil, 1)
	assert.Same(t, declined, err)
	assert.Equal(t, 1, ctx.calls)
	assert.Empty(t, ctx.timers)

	typed := newScriptedContext(outcome{err: fmt.Errorf("charge: %w", declinedError{})})
	byType := FromRetryPolicy(&RetryPolicy{MaximumAttempts: 5, NonRetryableErrorTypes: []string{"CardDeclined"}})
	require.Error(t, CallActivity(typed, &byType, chargeActivity, nil, 1))
	assert.Equal(t, 1, typed.calls)
}

func TestExecuteWithRetryPolicyTimeout(t *testing.T) {
	ctx := newScriptedContext(outcome{err: errors.New("slow")})
	opts := FromRetryPolicy(&RetryPolicy{
		InitialInterval:    10 * time.Second,
		BackoffCoefficient: 1,
		RetryTimeout:       25 * time.Second,
	})

	require.Error(t, CallActivity(ctx, &opts, chargeActivity, nil, 1))
	// Attempts start at 0s, 10s, 20s and 30s; the fourth failure is past the timeout.
	assert.Equal(t, 4, ctx.calls)
	assert.Len(t, ctx.timers, 3)
}

func TestExecuteWithRetryWithoutOptionsRunsOnce(t *testing.T) {
	boom := errors.New("boom")
	ctx := newScriptedContext(outcome{err: boom})

	assert.Same(t, boom, CallActivity(ctx, nil, chargeActivity, nil, 1))
	assert.Equal(t, 1, ctx.calls)
}

func TestExecuteWithRetryHandler(t *testing.T) {
	ctx := newScriptedContext(outcome{err: errors.New("unavailable")})

	var seen []RetryContext
	opts := FromRetryHandler(func(rc RetryContext) bool {
		seen = append(seen, rc)
		return rc.LastAttemptNumber < 3
	})

	err := CallActivity(ctx, &opts, chargeActivity, nil, 1)
	require.Error(t, err)
	assert.Equal(t, 3, ctx.calls)
	assert.Empty(t, ctx.timers, "handlers get no delay between attempts")

	require.Len(t, seen, 3)
	for i, rc := range seen {
		assert.Equal(t, i+1, rc.LastAttemptNumber)
		require.NotNil(t, rc.LastFailure)
		assert.Equal(t, "unavailable", rc.LastFailure.Message)
		assert.Equal(t, api.WorkflowID("wf-1"), rc.WorkflowContext.ID())
		assert.NoError(t, rc.Cancellation.Err())
	}
}

func TestExecuteWithAsyncRetryHandler(t *testing.T) {
	t.Run("retries until the future says no", func(t *testing.T) {
		ctx := newScriptedContext(failing(1, errors.New("flaky"), outcome{value: 7})...)
		opts := FromAsyncRetryHandler(func(rc RetryContext) Future {
			return NewResolvedFuture(true, nil)
		})

		var got int
		require.NoError(t, CallActivity(ctx, &opts, chargeActivity, &got, 1))
		assert.Equal(t, 7, got)
		assert.Equal(t, 2, ctx.calls)
	})

	t.Run("stop returns the task failure", func(t *testing.T) {
		boom := errors.New("boom")
		ctx := newScriptedContext(outcome{err: boom})
		opts := FromAsyncRetryHandler(func(RetryContext) Future { return NewResolvedFuture(false, nil) })

		assert.Same(t, boom, CallActivity(ctx, &opts, chargeActivity, nil, 1))
	})

	t.Run("handler failure wins over the task failure", func(t *testing.T) {
		unhealthy := errors.New("health check failed")
		ctx := newScriptedContext(outcome{err: errors.New("boom")})
		opts := FromAsyncRetryHandler(func(RetryContext) Future { return NewResolvedFuture(nil, unhealthy) })

		assert.Same(t, unhealthy, CallActivity(ctx, &opts, chargeActivity, nil, 1))
		assert.Equal(t, 1, ctx.calls)
	})

	t.Run("nil future", func(t *testing.T) {
		ctx := newScriptedContext(outcome{err: errors.New("boom")})
		opts := FromAsyncRetryHandler(func(RetryContext) Future { return nil })

		assert.Error(t, CallActivity(ctx, &opts, chargeActivity, nil, 1))
	})
}

func TestExecuteWithRetryObservesCancellation(t *testing.T) {
	ctx := newScriptedContext(outcome{err: errors.New("boom")})
	opts := FromRetryHandler(func(rc RetryContext) bool {
		ctx.cancel()
		return true
	})

	err := CallActivity(ctx, &opts, chargeActivity, nil, 1)
	var canceled *CanceledError
	require.ErrorAs(t, err, &canceled)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, canceled.LastFailure)
	assert.Equal(t, "boom", canceled.LastFailure.Message)
	assert.Equal(t, 1, ctx.calls, "no attempt starts after cancellation")
}

func TestCallSubWorkflowAttemptIDs(t *testing.T) {
	opts := FromRetryPolicy(&RetryPolicy{InitialInterval: time.Second, MaximumAttempts: 3}).WithInstanceID("child")
	ctx := newScriptedContext(outcome{err: errors.New("boom")})

	require.Error(t, CallSubWorkflow(ctx, &opts, chargeActivity, nil))
	assert.Equal(t, []string{"child", "child#2", "child#3"}, ctx.children)

	derived := NewSubWorkflowOptions(FromRetryPolicy(&RetryPolicy{MaximumAttempts: 2}), "")
	ctx = newScriptedContext(outcome{err: errors.New("boom")})
	require.Error(t, CallSubWorkflow(ctx, &derived, chargeActivity, nil))
	assert.Equal(t, []string{"", ""}, ctx.children, "derived ids are left to the engine")
}

func TestRetryValue(t *testing.T) {
	ctx := newScriptedContext(outcome{})
	attempts := 0
	opts := FromRetryHandler(func(rc RetryContext) bool { return rc.LastAttemptNumber < 5 })

	v, err := RetryValue(ctx, opts.Retry, func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("not yet")
		}
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", v)
	assert.Equal(t, 3, attempts)
}

func TestExecuteWithRetryThreeAttempts(t *testing.T) {
	boom := errors.New("boom")
	ctx := newScriptedContext(outcome{err: boom})
	opts := FromRetryPolicy(&RetryPolicy{InitialInterval: time.Second, BackoffCoefficient: 2, MaximumAttempts: 3})

	err := ExecuteWithRetry(ctx, opts.Retry, func() error {
		return ctx.ExecuteActivity(chargeActivity).Get(ctx, nil)
	})
	assert.Same(t, boom, err)
	assert.Equal(t, 3, ctx.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, ctx.timers)
}

func TestExecuteWithRetryRejectsInvalidPolicy(t *testing.T) {
	tests := []struct {
		name   string
		policy RetryPolicy
	}{
		{"shrinking backoff", RetryPolicy{InitialInterval: 4 * time.Second, BackoffCoefficient: 0.5, MaximumAttempts: 4}},
		{"negative attempts", RetryPolicy{MaximumAttempts: -1}},
		{"cap below initial interval", RetryPolicy{InitialInterval: time.Minute, MaximumInterval: time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newScriptedContext(outcome{err: errors.New("boom")})
			opts := FromRetryPolicy(&tt.policy)

			err := ExecuteWithRetry(ctx, opts.Retry, func() error {
				return ctx.ExecuteActivity(chargeActivity).Get(ctx, nil)
			})
			assert.ErrorIs(t, err, ErrInvalidRetryPolicy)
			assert.Zero(t, ctx.calls)
			assert.Empty(t, ctx.timers)
		})
	}
}

func TestRetryHandlerSeesTotalRetryTime(t *testing.T) {
	t.Run("sync handler", func(t *testing.T) {
		ctx := newScriptedContext(outcome{err: errors.New("boom")})
		var totals []time.Duration
		opts := FromRetryHandler(func(rc RetryContext) bool {
			totals = append(totals, rc.TotalRetryTime)
			_ = rc.WorkflowContext.NewTimer(time.Second).Get(rc.WorkflowContext, nil)
			return rc.LastAttemptNumber < 3
		})

		require.Error(t, CallActivity(ctx, &opts, chargeActivity, nil, 1))
		assert.Equal(t, []time.Duration{0, time.Second, 2 * time.Second}, totals)
		assert.IsNonDecreasing(t, totals)
	})

	t.Run("async handler", func(t *testing.T) {
		ctx := newScriptedContext(outcome{err: errors.New("boom")})
		var totals []time.Duration
		opts := FromAsyncRetryHandler(func(rc RetryContext) Future {
			totals = append(totals, rc.TotalRetryTime)
			if err := rc.WorkflowContext.NewTimer(2*time.Second).Get(rc.WorkflowContext, nil); err != nil {
				return NewResolvedFuture(nil, err)
			}
			return NewResolvedFuture(rc.LastAttemptNumber < 3, nil)
		})

		require.Error(t, CallActivity(ctx, &opts, chargeActivity, nil, 1))
		assert.Equal(t, []time.Duration{0, 2 * time.Second, 4 * time.Second}, totals)
		assert.IsNonDecreasing(t, totals)
	})
}
