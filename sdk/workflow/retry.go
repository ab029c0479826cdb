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

package workflow

import "github.com/ngnhng/durabletask/sdk/internal"

// RetryPolicy defines how tasks are retried on failure.
//
// Retries use exponential backoff with configurable parameters. Delays are
// durable timers, so a replayed workflow waits exactly as the original did.
// Tasks are retried until:
//   - MaximumAttempts is reached
//   - RetryTimeout elapses on the workflow clock
//   - The error type is in NonRetryableErrorTypes
//   - The workflow is canceled
//
// Example:
//
//	policy := &workflow.RetryPolicy{
//		InitialInterval:    time.Second,      // First retry after 1s
//		BackoffCoefficient: 2.0,              // Double delay each retry
//		MaximumInterval:    30 * time.Second, // Cap delay at 30s
//		MaximumAttempts:    5,                // Give up after 5 attempts
//		NonRetryableErrorTypes: []string{
//			"CardDeclined",
//		},
//	}
type RetryPolicy = internal.RetryPolicy

// RetryContext describes the failed attempt passed to a retry handler.
type RetryContext = internal.RetryContext

// RetryHandler decides synchronously whether a failed task is tried again.
type RetryHandler = internal.RetryHandler

// AsyncRetryHandler decides through a Future resolving to a bool.
type AsyncRetryHandler = internal.AsyncRetryHandler

type (
	TaskRetryOptions   = internal.TaskRetryOptions
	TaskOptions        = internal.TaskOptions
	SubWorkflowOptions = internal.SubWorkflowOptions
	OptionsProvider    = internal.OptionsProvider
)

func FromRetryPolicy(policy *RetryPolicy) TaskOptions {
	return internal.FromRetryPolicy(policy)
}

func FromRetryHandler(handler RetryHandler) TaskOptions {
	return internal.FromRetryHandler(handler)
}

func FromAsyncRetryHandler(handler AsyncRetryHandler) TaskOptions {
	return internal.FromAsyncRetryHandler(handler)
}

// NewSubWorkflowOptions copies the retry settings of base and sets the
// child instance id.
func NewSubWorkflowOptions(base OptionsProvider, instanceID string) SubWorkflowOptions {
	return internal.NewSubWorkflowOptions(base, instanceID)
}

// Retry runs op until it succeeds or opts stops retrying it. The last
// failure is returned unchanged.
func Retry(ctx Context, opts *TaskOptions, op func() error) error {
	var retry *TaskRetryOptions
	if opts != nil {
		retry = opts.Retry
	}
	return internal.ExecuteWithRetry(ctx, retry, op)
}

// RetryValue is Retry for operations producing a value.
func RetryValue[T any](ctx Context, opts *TaskOptions, op func() (T, error)) (T, error) {
	var retry *TaskRetryOptions
	if opts != nil {
		retry = opts.Retry
	}
	return internal.RetryValue(ctx, retry, op)
}

// CallActivity executes activityFn and stores its result in valuePtr,
// retrying according to opts.
//
//	opts := workflow.FromRetryPolicy(&workflow.RetryPolicy{MaximumAttempts: 3})
//	var out string
//	err := workflow.CallActivity(ctx, &opts, Charge, &out, orderID)
func CallActivity(ctx Context, opts *TaskOptions, activityFn any, valuePtr any, args ...any) error {
	return internal.CallActivity(ctx, opts, activityFn, valuePtr, args...)
}

// CallSubWorkflow runs workflowFn as a child workflow, retrying according to
// opts. Each retry of a child with an explicit instance id gets its own id.
func CallSubWorkflow(ctx Context, opts *SubWorkflowOptions, workflowFn any, valuePtr any, args ...any) error {
	return internal.CallSubWorkflow(ctx, opts, workflowFn, valuePtr, args...)
}
