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

	"github.com/ngnhng/durabletask/api"
)

var (
	// ErrInvalidRetryPolicy is returned when a RetryPolicy has out of range fields.
	ErrInvalidRetryPolicy = errors.New("invalid retry policy")

	// ErrNonDeterministicBehavior is returned when a replayed workflow issues
	// commands that do not match its recorded history.
	ErrNonDeterministicBehavior = errors.New("non-deterministic behavior detected")

	// ErrUnknownResultShape is returned by the result normalizer when a value
	// does not match the shape it was declared with.
	ErrUnknownResultShape = errors.New("unknown result shape")

	// ErrResultChannelClosed is returned when a value channel closes without
	// delivering a result.
	ErrResultChannelClosed = errors.New("result channel closed without a value")

	ErrEntityOperationNotFound = errors.New("entity operation not found")

	ErrWorkflowNotRegistered = errors.New("workflow not registered")
	ErrActivityNotRegistered = errors.New("activity not registered")

	// ErrWorkflowAlreadyExists is returned when starting an instance whose id
	// already has a history.
	ErrWorkflowAlreadyExists = errors.New("workflow instance already exists")

	ErrWorkflowNotFound = errors.New("workflow not found")
)

// CanceledError is the outcome of a retry loop that observed cancellation.
// It is distinct from the failure that was pending when cancellation was seen.
type CanceledError struct {
	// LastFailure is the failure of the attempt that was about to be retried.
	LastFailure *api.FailureDetails
	Cause       error
}

func (e *CanceledError) Error() string {
	if e.LastFailure != nil {
		return fmt.Sprintf("retry canceled after failure %q: %v", e.LastFailure.Message, e.Cause)
	}
	return fmt.Sprintf("retry canceled: %v", e.Cause)
}

func (e *CanceledError) Unwrap() error { return e.Cause }

func (e *CanceledError) ErrorType() string { return "Canceled" }

func newCanceledError(ctx context.Context, last *api.FailureDetails) *CanceledError {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = context.Canceled
	}
	return &CanceledError{LastFailure: last, Cause: cause}
}

// TaskFailedError is returned from a Future whose activity or sub-workflow
// failed. It carries the failure as it was recorded in history.
type TaskFailedError struct {
	TaskName string
	Seq      int
	Details  *api.FailureDetails
}

func NewTaskFailedError(taskName string, seq int, details *api.FailureDetails) *TaskFailedError {
	return &TaskFailedError{TaskName: taskName, Seq: seq, Details: details}
}

func (e *TaskFailedError) Error() string {
	msg := "<unknown>"
	if e.Details != nil {
		msg = e.Details.Message
	}
	if e.TaskName == "" {
		return msg
	}
	return fmt.Sprintf("task %s (#%d) failed: %s", e.TaskName, e.Seq, msg)
}

func (e *TaskFailedError) ErrorType() string {
	if e.Details == nil {
		return ""
	}
	return e.Details.ErrorType
}

func (e *TaskFailedError) Unwrap() error {
	if e.Details == nil || e.Details.InnerFailure == nil {
		return nil
	}
	return &TaskFailedError{Details: e.Details.InnerFailure}
}

// NonRetryableError marks a failure that no retry policy should retry.
type NonRetryableError struct {
	Cause error
}

func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("non-retryable error: %v", e.Cause)
}

func (e *NonRetryableError) Unwrap() error {
	return e.Cause
}

// ErrorType reports the type of the wrapped cause so policies can match on it.
func (e *NonRetryableError) ErrorType() string {
	return errorTypeOf(e.Cause)
}

func NewNonRetryableError(err error) *NonRetryableError {
	return &NonRetryableError{Cause: err}
}

func IsNonRetryable(err error) bool {
	var nre *NonRetryableError
	if errors.As(err, &nre) {
		return true
	}
	var tfe *TaskFailedError
	if !errors.As(err, &tfe) {
		return false
	}
	for fd := tfe.Details; fd != nil; fd = fd.InnerFailure {
		if fd.IsNonRetriable {
			return true
		}
	}
	return false
}

type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) StackTrace() string { return e.Stack }

func NewPanicError(value any, stack string) *PanicError {
	return &PanicError{Value: value, Stack: stack}
}

// WorkflowExecutionError is returned to clients awaiting a failed workflow.
type WorkflowExecutionError struct {
	WorkflowID string
	Cause      error
}

func (e *WorkflowExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("workflow %s failed: %v", e.WorkflowID, e.Cause)
	}
	return fmt.Sprintf("workflow %s failed", e.WorkflowID)
}

func (e *WorkflowExecutionError) Unwrap() error {
	return e.Cause
}

type RegistrationError struct {
	FunctionName string
	Cause        error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("failed to register function %s: %v", e.FunctionName, e.Cause)
}

func (e *RegistrationError) Unwrap() error {
	return e.Cause
}
