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
	"fmt"
	"log/slog"
	"time"

	"github.com/DeluxeOwl/chronicle/aggregate"
	"github.com/gofrs/uuid/v5"
	"github.com/ngnhng/durabletask/api"
	"github.com/ngnhng/durabletask/api/serde"
)

// Context is the execution context of a workflow function.
//
// Everything reachable from it is replay safe: commands are matched against
// recorded history by sequence number, Now follows recorded time and Done is
// closed once a cancellation request becomes visible in history.
type Context interface {
	context.Context
	ID() api.WorkflowID
	GetWorkflowFunctionName() string

	ExecuteActivity(activityFn any, args ...any) Future
	// ExecuteSubWorkflow starts a child workflow. An empty instanceID derives
	// one from the parent id and the command sequence number.
	ExecuteSubWorkflow(instanceID string, workflowFn any, args ...any) Future
	// NewTimer returns a Future settled once d has elapsed on the workflow clock.
	NewTimer(d time.Duration) Future

	Now() time.Time
	IsReplaying() bool
	WithValue(key any, value any) Context
	Logger() *slog.Logger
}

var _ Context = (*workflowContext)(nil)

type workflowContext struct {
	*workflowState
	context.Context
	logger *slog.Logger
}

type commandKind int

const (
	activityCommand commandKind = iota + 1
	timerCommand
	subWorkflowCommand
)

func (k commandKind) String() string {
	switch k {
	case activityCommand:
		return "activity"
	case timerCommand:
		return "timer"
	case subWorkflowCommand:
		return "sub-workflow"
	default:
		return "unknown"
	}
}

type commandRecord struct {
	kind       commandKind
	name       string
	instanceID api.WorkflowID
	input      []any
	fireAt     time.Time

	resolved bool
	value    any
	failure  *api.FailureDetails
	at       time.Time
}

type workflowState struct {
	aggregate.Base
	converter serde.BinarySerde

	id                   api.WorkflowID
	workflowFunctionName string
	input                []any
	startedAt            time.Time
	startAt              time.Time
	tags                 map[string]string
	parentID             api.WorkflowID
	parentSeq            int

	commands map[int]*commandRecord
	// outcomes is the number of command outcomes recorded in history.
	outcomes int

	cancelRequested bool
	// cancelAfter is the number of outcomes that preceded the cancel request.
	cancelAfter int

	completed bool
	result    any
	failure   *api.FailureDetails

	// Per-execution cursor, rebuilt on every replay.
	nextSeq  int
	consumed int
	clock    time.Time
	cancel   context.CancelFunc
}

func newEmptyWorkflowContext() *workflowContext {
	return newWorkflowContextWithLogger(nil)
}

func newWorkflowContextWithLogger(logger *slog.Logger) *workflowContext {
	return &workflowContext{
		workflowState: &workflowState{
			commands: make(map[int]*commandRecord),
		},
		Context: context.Background(),
		logger:  defaultLogger(logger),
	}
}

// bind prepares a freshly loaded history for one execution of the workflow
// function. The workflow context outlives cancellation of parent so a
// shutting down worker never looks like a workflow cancellation.
func (c *workflowContext) bind(parent context.Context, conv serde.BinarySerde, logger *slog.Logger) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	c.Context = ctx
	c.cancel = cancel
	c.converter = conv
	c.logger = defaultLogger(logger).With("workflow_id", c.id)
	c.nextSeq = 0
	c.consumed = 0
	c.clock = c.startedAt
	c.observeCancel()
}

func (c *workflowContext) release() {
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *workflowContext) ExecuteActivity(activityFn any, args ...any) Future {
	fnName, err := functionName(activityFn)
	if err != nil {
		c.loggerOrDefault().Error("failed to extract activity function name", "error", err)
		panic(err)
	}

	rec, seq := c.issue(activityCommand, fnName, "", func(seq int) api.WorkflowEvent {
		return &api.ActivityScheduled{
			ID:             c.id,
			Seq:            seq,
			ActivityFnName: fnName,
			Input:          args,
			At:             c.clock,
		}
	})
	return c.futureFor(rec, seq, nil)
}

func (c *workflowContext) ExecuteSubWorkflow(instanceID string, workflowFn any, args ...any) Future {
	fnName, err := functionName(workflowFn)
	if err != nil {
		c.loggerOrDefault().Error("failed to extract workflow function name", "error", err)
		panic(err)
	}

	childID := api.WorkflowID(instanceID)
	if childID == "" {
		childID = deriveChildID(c.id, c.nextSeq)
	}

	rec, seq := c.issue(subWorkflowCommand, fnName, childID, func(seq int) api.WorkflowEvent {
		return &api.SubWorkflowScheduled{
			ID:             c.id,
			Seq:            seq,
			InstanceID:     childID,
			WorkflowFnName: fnName,
			Input:          args,
			At:             c.clock,
		}
	})
	return c.futureFor(rec, seq, nil)
}

func (c *workflowContext) NewTimer(d time.Duration) Future {
	if d <= 0 {
		return &future{isResolved: true, converter: c.converter}
	}
	fireAt := c.clock.Add(d)
	rec, seq := c.issue(timerCommand, "timer", "", func(seq int) api.WorkflowEvent {
		return &api.TimerCreated{ID: c.id, Seq: seq, FireAt: fireAt}
	})
	// A pending timer gives way to cancellation instead of suspending.
	return c.futureFor(rec, seq, c.canceledErr)
}

// issue allocates the next sequence number and either matches it against
// history or records a new command.
func (c *workflowContext) issue(kind commandKind, name string, instanceID api.WorkflowID, newEvent func(seq int) api.WorkflowEvent) (*commandRecord, int) {
	seq := c.nextSeq
	c.nextSeq++

	if rec, ok := c.commands[seq]; ok {
		if rec.kind != kind || rec.name != name || rec.instanceID != instanceID {
			panic(fmt.Errorf("%w: command #%d was %s %q in history, replay issued %s %q",
				ErrNonDeterministicBehavior, seq, rec.kind, rec.name, kind, name))
		}
		if rec.resolved {
			c.consume(rec)
		}
		return rec, seq
	}

	if err := c.recordThat(newEvent(seq)); err != nil {
		// recording should never fail during workflow execution; surface loudly if it does
		panic(fmt.Errorf("record %s command: %w", kind, err))
	}
	return c.commands[seq], seq
}

func (c *workflowContext) consume(rec *commandRecord) {
	c.consumed++
	if rec.at.After(c.clock) {
		c.clock = rec.at
	}
	c.observeCancel()
}

func (c *workflowContext) futureFor(rec *commandRecord, seq int, interrupt func() error) Future {
	if rec.resolved {
		f := &future{isResolved: true, value: rec.value, converter: c.converter}
		if rec.failure != nil {
			f.err = NewTaskFailedError(rec.name, seq, rec.failure)
		}
		return f
	}
	return &future{converter: c.converter, interrupt: interrupt}
}

// observeCancel cancels the workflow context once replay has consumed every
// outcome recorded before the cancel request, so the point where
// cancellation becomes visible is the same on every replay.
func (c *workflowContext) observeCancel() {
	if c.cancel != nil && c.cancelRequested && c.consumed >= c.cancelAfter {
		c.cancel()
	}
}

func (c *workflowContext) canceledErr() error {
	c.observeCancel()
	if c.Context.Err() != nil {
		return newCanceledError(c.Context, nil)
	}
	return nil
}

func (c *workflowContext) Now() time.Time { return c.clock }

// IsReplaying reports whether recorded outcomes remain to be consumed.
func (c *workflowContext) IsReplaying() bool { return c.consumed < c.outcomes }

func (c *workflowContext) Logger() *slog.Logger {
	if c.IsReplaying() {
		return slog.New(slog.DiscardHandler)
	}
	return c.loggerOrDefault()
}

func (c *workflowContext) WithValue(key any, value any) Context {
	baseCtx := c.Context
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &workflowContext{
		workflowState: c.workflowState,
		Context:       context.WithValue(baseCtx, key, value),
		logger:        c.logger,
	}
}

func (c *workflowContext) loggerOrDefault() *slog.Logger {
	if c == nil {
		return slog.Default()
	}
	return defaultLogger(c.logger)
}

func (c *workflowContext) GetWorkflowFunctionName() string { return c.workflowFunctionName }

func (c *workflowContext) Deadline() (time.Time, bool) {
	if c.Context == nil {
		return time.Time{}, false
	}
	return c.Context.Deadline()
}

func (c *workflowContext) Done() <-chan struct{} {
	if c.Context == nil {
		return nil
	}
	c.observeCancel()
	return c.Context.Done()
}

func (c *workflowContext) Err() error {
	if c.Context == nil {
		return nil
	}
	c.observeCancel()
	return c.Context.Err()
}

func (c *workflowContext) Value(key any) any {
	if c.Context == nil {
		return nil
	}
	return c.Context.Value(key)
}

var childIDNamespace = uuid.NewV5(uuid.NamespaceURL, "https://github.com/ngnhng/durabletask/sub-workflow")

func deriveChildID(parent api.WorkflowID, seq int) api.WorkflowID {
	return api.WorkflowID(uuid.NewV5(childIDNamespace, fmt.Sprintf("%s/%d", parent, seq)).String())
}
