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
	"errors"

	"github.com/ngnhng/durabletask/api"
	"github.com/ngnhng/durabletask/sdk/internal"
)

var (
	// ErrActivityNotRegistered is returned when an activity is not registered with the worker
	ErrActivityNotRegistered = internal.ErrActivityNotRegistered

	// ErrNonDeterministicBehavior is returned when non-deterministic behavior is detected during replay
	ErrNonDeterministicBehavior = internal.ErrNonDeterministicBehavior

	// ErrInvalidRetryPolicy is returned for a retry policy with out of range fields
	ErrInvalidRetryPolicy = internal.ErrInvalidRetryPolicy
)

// FailureDetails is the serializable description of a failed task.
type FailureDetails = api.FailureDetails

// NewFailureDetails describes err, following its cause chain.
func NewFailureDetails(err error) *FailureDetails {
	return internal.NewFailureDetails(err)
}

// NonRetryableError wraps an error to indicate it should not be retried
type NonRetryableError = internal.NonRetryableError

// NewNonRetryableError creates a new NonRetryableError
func NewNonRetryableError(err error) *NonRetryableError {
	return internal.NewNonRetryableError(err)
}

// IsNonRetryable checks if an error is non-retryable
func IsNonRetryable(err error) bool {
	return internal.IsNonRetryable(err)
}

// TaskFailedError is returned by Future.Get when the task failed.
type TaskFailedError = internal.TaskFailedError

// CanceledError is returned when a workflow is canceled while waiting.
type CanceledError = internal.CanceledError

// PanicError represents a panic that occurred in workflow or activity code
type PanicError = internal.PanicError

// IsCanceled reports whether err stems from workflow cancellation.
func IsCanceled(err error) bool {
	var ce *CanceledError
	return errors.As(err, &ce)
}

// FailureOf returns the recorded failure of a task error, if any.
func FailureOf(err error) (*FailureDetails, bool) {
	var tfe *TaskFailedError
	if errors.As(err, &tfe) && tfe.Details != nil {
		return tfe.Details, true
	}
	return nil, false
}
