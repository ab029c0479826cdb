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
	"reflect"
	"runtime/debug"
	"time"

	"github.com/ngnhng/durabletask/api"
	"github.com/ngnhng/durabletask/api/serde"
	"golang.org/x/sync/errgroup"
)

// --- kv store ----
type kv interface {
	get(k string) (any, error)
	set(k string, v any) error
	size() int64
}

// --- workflow registry ---
type (
	WorkflowRegisterOption struct{}

	WorkflowRegistry interface {
		RegisterWorkflow(w any, options ...WorkflowRegisterOption) error
	}
)

var _ WorkflowRegistry = (*worker)(nil)

// --- activity registry ---
type (
	ActivityRegisterOption struct{}

	ActivityRegistry interface {
		RegisterActivity(a any, options ...ActivityRegisterOption) error
	}
)

var _ ActivityRegistry = (*worker)(nil)

type WorkerOptions struct {
	Logger *slog.Logger
	// MaxConcurrentTasks bounds the tasks processed at once. Zero means no bound.
	MaxConcurrentTasks int
}

type worker struct {
	*engine

	typeConverter *serde.TypeConverter

	workflowRegistry kv
	activityRegistry kv

	maxConcurrent int
	logger        *slog.Logger
}

func NewWorker(c Client, opts *WorkerOptions) (*worker, error) {
	if c == nil {
		return nil, fmt.Errorf("worker requires a client")
	}
	if opts == nil {
		opts = &WorkerOptions{}
	}
	e := c.getEngine()

	logger := opts.Logger
	if logger == nil {
		logger = e.logger
	}

	return &worker{
		engine:           e,
		typeConverter:    serde.NewTypeConverter(e.serder),
		workflowRegistry: newInMemoryRegistry(),
		activityRegistry: newInMemoryRegistry(),
		maxConcurrent:    opts.MaxConcurrentTasks,
		logger:           defaultLogger(logger),
	}, nil
}

func (w *worker) RegisterWorkflow(fn any, options ...WorkflowRegisterOption) error {
	fnName, err := functionName(fn)
	if err != nil {
		return &RegistrationError{FunctionName: fmt.Sprintf("%T", fn), Cause: err}
	}
	if err := validateWorkflowSignature(reflect.TypeOf(fn)); err != nil {
		return &RegistrationError{FunctionName: fnName, Cause: err}
	}
	if err := w.workflowRegistry.set(fnName, fn); err != nil {
		return &RegistrationError{FunctionName: fnName, Cause: err}
	}
	return nil
}

func (w *worker) RegisterActivity(fn any, opts ...ActivityRegisterOption) error {
	fnName, err := functionName(fn)
	if err != nil {
		return &RegistrationError{FunctionName: fmt.Sprintf("%T", fn), Cause: err}
	}
	if err := validateActivitySignature(reflect.TypeOf(fn)); err != nil {
		return &RegistrationError{FunctionName: fnName, Cause: err}
	}
	if err := w.activityRegistry.set(fnName, fn); err != nil {
		return &RegistrationError{FunctionName: fnName, Cause: err}
	}
	return nil
}

var workflowContextType = reflect.TypeFor[Context]()

func validateWorkflowSignature(t reflect.Type) error {
	if t == nil || t.Kind() != reflect.Func {
		return fmt.Errorf("workflow must be a function, got %v", t)
	}
	if t.NumIn() == 0 || t.In(0) != workflowContextType {
		return fmt.Errorf("workflow function must accept workflow.Context as its first argument")
	}
	return validateResults(t)
}

func validateActivitySignature(t reflect.Type) error {
	if t == nil || t.Kind() != reflect.Func {
		return fmt.Errorf("activity must be a function, got %v", t)
	}
	if t.NumIn() == 0 || t.In(0) != contextType {
		return fmt.Errorf("activity function must accept context.Context as its first argument")
	}
	return validateResults(t)
}

func validateResults(t reflect.Type) error {
	switch t.NumOut() {
	case 1:
		if t.Out(0) != errorType {
			return fmt.Errorf("a single result must be error, got %s", t.Out(0))
		}
	case 2:
		if t.Out(1) != errorType {
			return fmt.Errorf("second result must be error, got %s", t.Out(1))
		}
	default:
		return fmt.Errorf("function must return error or (value, error)")
	}
	return nil
}

// Run processes tasks until ctx is canceled.
func (w *worker) Run(ctx context.Context) error {
	workflowTasksEnabled := w.workflowRegistry.size() > 0
	activityTasksEnabled := w.activityRegistry.size() > 0
	if !workflowTasksEnabled && !activityTasksEnabled {
		return fmt.Errorf("worker has no registered workflows or activities")
	}

	g, gCtx := errgroup.WithContext(ctx)
	if w.maxConcurrent > 0 {
		g.SetLimit(w.maxConcurrent)
	}

	tasks, err := w.backend.ReceiveTask(gCtx, workflowTasksEnabled, activityTasksEnabled)
	if err != nil {
		return err
	}
	for token := range tasks {
		g.Go(func() error {
			w.handle(gCtx, token)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

func (w *worker) handle(ctx context.Context, token *TaskToken) {
	var err error
	switch task := token.Task.(type) {
	case *api.WorkflowTask:
		err = w.processWorkflowTask(ctx, token, task)
	case *api.ActivityTask:
		err = w.processActivityTask(ctx, task)
	case *api.TimerTask:
		err = w.processTimerTask(ctx, token, task)
	default:
		w.logger.Warn("received poison pill, terminating task")
		token.Term(ctx)
		return
	}

	switch {
	case errors.Is(err, errTaskDeferred):
	case errors.Is(err, ErrWorkflowNotFound):
		w.logger.Error("task refers to unknown workflow, terminating", "workflow_id", token.Task.WorkflowRef(), "error", err)
		token.Term(ctx)
	case err != nil:
		w.logger.Error("task failed, sending NAK", "kind", token.Task.Kind(), "workflow_id", token.Task.WorkflowRef(), "error", err)
		token.Nak(ctx)
	default:
		token.Ack(ctx)
	}
}

// errTaskDeferred reports that the task was handed back for later delivery.
var errTaskDeferred = errors.New("task deferred")

func (w *worker) deferTask(ctx context.Context, token *TaskToken, until time.Time) (bool, error) {
	d := until.Sub(w.clock.Now())
	if d <= 0 {
		return false, nil
	}
	w.logger.Debug("deferring task", "kind", token.Task.Kind(), "workflow_id", token.Task.WorkflowRef(), "delay", d)
	if err := token.Defer(ctx, d); err != nil {
		return true, err
	}
	return true, errTaskDeferred
}

func (w *worker) processTimerTask(ctx context.Context, token *TaskToken, task *api.TimerTask) error {
	if deferred, err := w.deferTask(ctx, token, task.FireAt); deferred {
		return err
	}
	return w.resolveCommand(ctx, task.WorkflowID, task.Seq, func(time.Time) api.WorkflowEvent {
		return &api.TimerFired{ID: task.WorkflowID, Seq: task.Seq, At: task.FireAt}
	})
}

func (w *worker) processActivityTask(ctx context.Context, task *api.ActivityTask) error {
	wf, err := w.load(ctx, task.WorkflowID)
	if err != nil {
		return err
	}
	if wf.hasOutcome(task.Seq) {
		w.logger.Debug("activity already has an outcome, skipping", "workflow_id", task.WorkflowID, "seq", task.Seq)
		return nil
	}

	fn, err := w.activityRegistry.get(task.ActivityFn)
	if err != nil {
		w.logger.Error("activity not found in registry", "activity", task.ActivityFn, "error", err)
		return fmt.Errorf("%w: %s", ErrActivityNotRegistered, task.ActivityFn)
	}

	result, actErr := w.executeActivityFunc(ctx, fn, task.Input)
	if actErr != nil {
		w.logger.Warn("activity execution failed", "activity", task.ActivityFn, "seq", task.Seq, "error", actErr)
	}

	return w.resolveCommand(ctx, task.WorkflowID, task.Seq, func(at time.Time) api.WorkflowEvent {
		if actErr != nil {
			return &api.ActivityFailed{ID: task.WorkflowID, Seq: task.Seq, Failure: NewFailureDetails(actErr), At: at}
		}
		return &api.ActivityCompleted{ID: task.WorkflowID, Seq: task.Seq, Result: result, At: at}
	})
}

func (w *worker) executeActivityFunc(ctx context.Context, fn any, inputs []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewPanicError(r, string(debug.Stack()))
		}
	}()

	fnv := reflect.ValueOf(fn)
	fnt := fnv.Type()

	if fnt.NumIn() != len(inputs)+1 { // +1 for the context.Context
		return nil, fmt.Errorf("argument count mismatch: activity expects %d, got %d", fnt.NumIn()-1, len(inputs))
	}

	callArgs := make([]reflect.Value, len(inputs)+1)
	callArgs[0] = reflect.ValueOf(ctx)
	for idx, arg := range inputs {
		// Skip the first parameter which is the context
		convertedArg, err := w.typeConverter.ConvertToType(arg, fnt.In(idx+1))
		if err != nil {
			return nil, fmt.Errorf("failed to convert parameter %d: %w", idx, err)
		}
		callArgs[idx+1] = convertedArg
	}

	return splitResults(fnv.Call(callArgs))
}

func (w *worker) processWorkflowTask(ctx context.Context, token *TaskToken, task *api.WorkflowTask) error {
	if deferred, err := w.deferTask(ctx, token, task.NotBefore); deferred {
		return err
	}

	fn, err := w.workflowRegistry.get(task.WorkflowFn)
	if err != nil {
		w.logger.Error("workflow function lookup failed", "workflow", task.WorkflowFn, "error", err)
		return fmt.Errorf("%w: %s", ErrWorkflowNotRegistered, task.WorkflowFn)
	}

	wf, committed, err := w.update(ctx, task.WorkflowID, func(wf *workflowContext) error {
		if wf.completed {
			return errNothingToRecord
		}
		wf.bind(ctx, w.serder, w.logger)
		defer wf.release()
		return w.executeWorkflow(wf, fn)
	})
	if err != nil {
		return err
	}

	return w.dispatch(ctx, wf, committed)
}

// executeWorkflow replays fn against the history loaded into wf and records
// the commands it issues past the end of history, or its final outcome.
func (w *worker) executeWorkflow(wf *workflowContext, fn any) error {
	var (
		result  any
		execErr error
		pending bool
	)

	func() {
		defer func() {
			if r := recover(); r != nil {
				if isBlockingPanic(r) {
					pending = true
					return
				}
				if err, ok := r.(error); ok && errors.Is(err, ErrNonDeterministicBehavior) {
					execErr = err
					return
				}
				w.logger.Error("workflow execution panic", "workflow_id", wf.id, "panic", r)
				execErr = NewPanicError(r, string(debug.Stack()))
			}
		}()

		wfv := reflect.ValueOf(fn)
		wft := wfv.Type()
		if wft.NumIn() != len(wf.input)+1 {
			execErr = fmt.Errorf("argument count mismatch: workflow expects %d, got %d", wft.NumIn()-1, len(wf.input))
			return
		}
		args := make([]reflect.Value, 0, len(wf.input)+1)
		args = append(args, reflect.ValueOf(wf))
		for idx, arg := range wf.input {
			// Skip the first parameter which is the context
			converted, err := w.typeConverter.ConvertToType(arg, wft.In(idx+1))
			if err != nil {
				execErr = fmt.Errorf("failed to convert workflow parameter %d: %w", idx, err)
				return
			}
			args = append(args, converted)
		}

		result, execErr = splitResults(wfv.Call(args))
	}()

	switch {
	case pending:
		return nil
	case execErr != nil:
		return wf.recordThat(&api.WorkflowFailed{
			ID:             wf.id,
			WorkflowFnName: wf.workflowFunctionName,
			Failure:        NewFailureDetails(execErr),
			At:             wf.clock,
		})
	default:
		return wf.recordThat(&api.WorkflowCompleted{
			ID:             wf.id,
			WorkflowFnName: wf.workflowFunctionName,
			Result:         result,
			At:             wf.clock,
		})
	}
}

// dispatch turns freshly committed commands into tasks.
func (w *worker) dispatch(ctx context.Context, wf *workflowContext, committed []api.WorkflowEvent) error {
	var errs []error
	for _, evt := range committed {
		switch e := evt.(type) {
		case *api.ActivityScheduled:
			errs = append(errs, w.backend.Enqueue(ctx, &api.ActivityTask{
				WorkflowID: e.ID,
				WorkflowFn: wf.workflowFunctionName,
				Seq:        e.Seq,
				ActivityFn: e.ActivityFnName,
				Input:      e.Input,
			}))
		case *api.TimerCreated:
			errs = append(errs, w.backend.Enqueue(ctx, &api.TimerTask{
				WorkflowID: e.ID,
				WorkflowFn: wf.workflowFunctionName,
				Seq:        e.Seq,
				FireAt:     e.FireAt,
			}))
		case *api.SubWorkflowScheduled:
			err := w.start(ctx, startRequest{
				id:        e.InstanceID,
				fnName:    e.WorkflowFnName,
				input:     e.Input,
				parentID:  e.ID,
				parentSeq: e.Seq,
			})
			if errors.Is(err, ErrWorkflowAlreadyExists) {
				w.logger.Warn("sub-workflow instance already exists", "workflow_id", e.ID, "instance_id", e.InstanceID)
				err = w.resolveCommand(ctx, e.ID, e.Seq, func(at time.Time) api.WorkflowEvent {
					return &api.SubWorkflowFailed{ID: e.ID, Seq: e.Seq, Failure: NewFailureDetails(err), At: at}
				})
			}
			errs = append(errs, err)
		case *api.WorkflowCompleted, *api.WorkflowFailed:
			w.logger.Info("workflow finished", "workflow_id", wf.id, "failed", wf.failure != nil)
			errs = append(errs, w.publishResult(ctx, wf))
		}
	}
	return errors.Join(errs...)
}
