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
	"time"

	"github.com/ngnhng/durabletask/api"
)

// RetryContext is handed to a retry handler after each failed attempt.
// A new value is built for every call; handlers must not keep it.
type RetryContext struct {
	// WorkflowContext lets the handler schedule its own activities or timers.
	WorkflowContext Context

	// LastAttemptNumber is the number of the attempt that just failed, starting at 1.
	LastAttemptNumber int

	LastFailure *api.FailureDetails

	// TotalRetryTime is the workflow time spent since the first attempt started.
	// It never decreases between calls for the same task.
	TotalRetryTime time.Duration

	// Cancellation is done once the workflow instance has been asked to cancel.
	Cancellation context.Context
}

// RetryHandler decides synchronously whether to retry.
type RetryHandler func(RetryContext) bool

// AsyncRetryHandler decides through a Future resolving to a bool, so the
// decision itself may await activities or timers. An error from the Future
// is returned in place of the task failure.
type AsyncRetryHandler func(RetryContext) Future
