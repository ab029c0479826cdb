package worker

import "github.com/ngnhng/durabletask/sdk/internal"

var (
	// ErrWorkflowNotRegistered is logged when a workflow task names a function
	// this worker lacks. The task is handed back for another worker.
	ErrWorkflowNotRegistered = internal.ErrWorkflowNotRegistered

	// ErrActivityNotRegistered is the activity counterpart of ErrWorkflowNotRegistered.
	ErrActivityNotRegistered = internal.ErrActivityNotRegistered
)

// RegistrationError represents an error that occurred during function registration
type RegistrationError = internal.RegistrationError
