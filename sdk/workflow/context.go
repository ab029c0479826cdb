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

import (
	"time"

	"github.com/ngnhng/durabletask/sdk/internal"
)

// Context is the workflow execution context that provides deterministic guarantees.
//
// Context extends context.Context with workflow-specific operations. All workflow
// operations must go through this context to maintain determinism during replay.
//
// Key methods:
//   - ExecuteActivity: Schedule an activity for execution
//   - ExecuteSubWorkflow: Start a child workflow
//   - NewTimer: Wait on the workflow clock
//   - Now: The replay safe current time
//
// Important: Workflow code must be deterministic. Do not:
//   - Perform I/O operations directly
//   - Generate random numbers
//   - Access current time directly
//   - Use goroutines
//
// Use activities for all non-deterministic operations.
type Context = internal.Context

// ExecuteActivity schedules the execution of an activity function.
//
// The activityFn must be a function registered with the worker. args are
// passed to the activity and must be serializable.
func ExecuteActivity(ctx Context, activityFn any, args ...any) Future {
	return ctx.ExecuteActivity(activityFn, args...)
}

// ExecuteSubWorkflow starts workflowFn as a child of the current workflow.
// An empty instanceID lets the runtime derive a stable one.
func ExecuteSubWorkflow(ctx Context, instanceID string, workflowFn any, args ...any) Future {
	return ctx.ExecuteSubWorkflow(instanceID, workflowFn, args...)
}

// NewTimer returns a Future that resolves once d has elapsed on the workflow clock.
func NewTimer(ctx Context, d time.Duration) Future {
	return ctx.NewTimer(d)
}

// Sleep blocks the workflow for d. It returns early with a *CanceledError
// when the workflow is canceled.
func Sleep(ctx Context, d time.Duration) error {
	return ctx.NewTimer(d).Get(ctx, nil)
}

// Now returns the workflow time.
func Now(ctx Context) time.Time {
	return ctx.Now()
}
