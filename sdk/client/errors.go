package client

import (
	"errors"

	"github.com/ngnhng/durabletask/sdk/internal"
)

var (
	// ErrWorkflowNotFound is returned when a workflow cannot be found
	ErrWorkflowNotFound = internal.ErrWorkflowNotFound

	// ErrWorkflowAlreadyExists is returned when starting an instance whose id is taken
	ErrWorkflowAlreadyExists = internal.ErrWorkflowAlreadyExists

	// ErrBackendClosed is returned by a local backend after Close
	ErrBackendClosed = internal.ErrBackendClosed
)

// WorkflowExecutionError is returned by Execution.Get when the workflow failed.
// Its cause is a *workflow.TaskFailedError carrying the recorded failure.
type WorkflowExecutionError = internal.WorkflowExecutionError

// IsWorkflowFailed reports whether err is a failed workflow outcome, as
// opposed to a transport or context error while waiting for it.
func IsWorkflowFailed(err error) bool {
	var wee *WorkflowExecutionError
	return errors.As(err, &wee)
}
