// Package workflow provides the programming model for writing durable workflows.
//
// Workflows are deterministic functions that orchestrate activities and handle
// long-running business processes. The workflow package provides the context,
// primitives, and utilities needed to write workflows.
//
// # Writing Workflows
//
// A workflow is a regular Go function that takes a workflow.Context as its first parameter:
//
//	func MyWorkflow(ctx workflow.Context, name string) (string, error) {
//		var result string
//		err := workflow.ExecuteActivity(ctx, MyActivity, name).Get(ctx, &result)
//		if err != nil {
//			return "", err
//		}
//		return result, nil
//	}
//
// # Determinism
//
// Workflows must be deterministic. This means:
//   - No direct I/O operations (filesystem, network, database)
//   - No random number generation
//   - No direct time/date operations (use workflow.Now and timers)
//   - No goroutines
//
// Every call that touches the outside world is a command with a sequence
// number. On replay, commands are matched against history; a mismatch fails
// the workflow with ErrNonDeterministicBehavior.
//
// # Retries
//
// Retries are decided inside the workflow, so they survive restarts. A task
// is retried by a declarative policy or by a handler:
//
//	opts := workflow.FromRetryPolicy(&workflow.RetryPolicy{
//		InitialInterval:    time.Second,
//		BackoffCoefficient: 2.0,
//		MaximumAttempts:    3,
//	})
//	err := workflow.CallActivity(ctx, &opts, MyActivity, &result, input)
//
//	opts = workflow.FromRetryHandler(func(rc workflow.RetryContext) bool {
//		return rc.LastFailure.ErrorType != "ValidationError"
//	})
//
// Sub-workflows take SubWorkflowOptions, derived from TaskOptions with
// WithInstanceID.
//
// # Timers and Cancellation
//
// NewTimer and Sleep wait on the workflow clock. When the workflow is
// canceled, pending timers and retry loops return a *CanceledError.
//
// # Error Handling
//
// Workflows can return errors. If a workflow returns an error, the workflow
// execution fails and the failure is returned to the client. Failed tasks
// surface as *TaskFailedError carrying the recorded FailureDetails.
package workflow
