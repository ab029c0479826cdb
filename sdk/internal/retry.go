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
	"fmt"
	"time"

	"github.com/ngnhng/durabletask/api"
)

// ExecuteWithRetry runs op until it succeeds or the retry strategy gives up.
//
// Delays between attempts are durable timers created through ctx, so a
// replay reproduces the same attempts and delays from history. When the
// strategy stops, the error of the last attempt is returned unchanged. An
// error from an async handler's Future is returned instead of it. Once the
// workflow is canceled no further attempt starts and a *CanceledError is
// returned.
//
// A policy that fails Validate stops before the first attempt with an error
// wrapping ErrInvalidRetryPolicy. Handler strategies get no delay between
// attempts.
func ExecuteWithRetry(ctx Context, retry *TaskRetryOptions, op func() error) error {
	if retry != nil && retry.strategy == retryWithPolicy {
		if err := retry.policy.Validate(); err != nil {
			return err
		}
	}

	start := ctx.Now()
	var total time.Duration

	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if retry == nil {
			return err
		}

		failure := NewFailureDetails(err)
		total = max(total, ctx.Now().Sub(start))

		var delay time.Duration
		switch retry.strategy {
		case retryWithPolicy:
			if !retry.policy.ShouldRetry(attempt, total, failure) {
				return err
			}
			delay = retry.policy.NextDelay(attempt)
		case retryWithHandler:
			if !retry.handler(newRetryContext(ctx, attempt, failure, total)) {
				return err
			}
		case retryWithAsyncHandler:
			again, herr := awaitRetryDecision(ctx, retry.asyncHandler(newRetryContext(ctx, attempt, failure, total)))
			if herr != nil {
				return herr
			}
			if !again {
				return err
			}
		default:
			return err
		}

		if ctx.Err() != nil {
			return newCanceledError(ctx, failure)
		}
		if delay > 0 {
			if terr := ctx.NewTimer(delay).Get(ctx, nil); terr != nil && ctx.Err() == nil {
				return terr
			}
			if ctx.Err() != nil {
				return newCanceledError(ctx, failure)
			}
			total = max(total+delay, ctx.Now().Sub(start))
		}
	}
}

func newRetryContext(ctx Context, attempt int, failure *api.FailureDetails, total time.Duration) RetryContext {
	return RetryContext{
		WorkflowContext:   ctx,
		LastAttemptNumber: attempt,
		LastFailure:       failure,
		TotalRetryTime:    total,
		Cancellation:      ctx,
	}
}

func awaitRetryDecision(ctx Context, f Future) (bool, error) {
	if f == nil {
		return false, fmt.Errorf("async retry handler returned a nil future")
	}
	var again bool
	if err := f.Get(ctx, &again); err != nil {
		return false, err
	}
	return again, nil
}

// RetryValue is ExecuteWithRetry for operations producing a value.
func RetryValue[T any](ctx Context, retry *TaskRetryOptions, op func() (T, error)) (T, error) {
	var out T
	err := ExecuteWithRetry(ctx, retry, func() error {
		v, err := op()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// CallActivity schedules activityFn and waits for it, retrying per opts.
func CallActivity(ctx Context, opts *TaskOptions, activityFn any, valuePtr any, args ...any) error {
	var retry *TaskRetryOptions
	if opts != nil {
		retry = opts.Retry
	}
	return ExecuteWithRetry(ctx, retry, func() error {
		return ctx.ExecuteActivity(activityFn, args...).Get(ctx, valuePtr)
	})
}

// CallSubWorkflow runs workflowFn as a child and waits for it, retrying per
// opts. With an explicit InstanceID, attempt k > 1 targets "<id>#<k>" since
// every attempt needs its own history.
func CallSubWorkflow(ctx Context, opts *SubWorkflowOptions, workflowFn any, valuePtr any, args ...any) error {
	var retry *TaskRetryOptions
	var instanceID string
	if opts != nil {
		retry = opts.Retry
		instanceID = opts.InstanceID
	}
	attempt := 0
	return ExecuteWithRetry(ctx, retry, func() error {
		attempt++
		id := instanceID
		if id != "" && attempt > 1 {
			id = fmt.Sprintf("%s#%d", id, attempt)
		}
		return ctx.ExecuteSubWorkflow(id, workflowFn, args...).Get(ctx, valuePtr)
	})
}
