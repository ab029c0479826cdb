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
	"time"

	"github.com/DeluxeOwl/chronicle"
	"github.com/DeluxeOwl/chronicle/aggregate"
	"github.com/DeluxeOwl/chronicle/event"
	"github.com/DeluxeOwl/chronicle/version"
	"github.com/avast/retry-go/v4"
	"github.com/coder/quartz"
	"github.com/ngnhng/durabletask/api"
	"github.com/ngnhng/durabletask/api/serde"
)

const (
	defaultConflictAttempts = 10
	defaultConflictDelay    = 5 * time.Millisecond
)

// errNothingToRecord tells update that the mutation left history unchanged.
var errNothingToRecord = errors.New("nothing to record")

type workflowRepo = aggregate.ESRepo[api.WorkflowID, api.WorkflowEvent, *workflowContext]

// engine is the history and queue plumbing shared by a client and its workers.
type engine struct {
	backend Backend
	serder  serde.BinarySerde
	repo    *workflowRepo
	clock   quartz.Clock
	logger  *slog.Logger
}

func newEngine(backend Backend, serder serde.BinarySerde, clock quartz.Clock, logger *slog.Logger) (*engine, error) {
	if backend == nil {
		return nil, fmt.Errorf("nil backend")
	}
	if serder == nil {
		serder = &serde.MsgpackSerde{}
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	repo, err := chronicle.NewEventSourcedRepository(
		backend.EventLog(),
		newEmptyWorkflowContext,
		nil,
		aggregate.EventSerializer(serder),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot create history repository: %w", err)
	}
	return &engine{
		backend: backend,
		serder:  serder,
		repo:    repo,
		clock:   clock,
		logger:  defaultLogger(logger),
	}, nil
}

func (e *engine) load(ctx context.Context, id api.WorkflowID) (*workflowContext, error) {
	wf, err := e.repo.Get(ctx, id)
	if err != nil {
		// The repository reports an empty log as a plain error, so ask the
		// log directly before deciding the instance is missing.
		found, lookupErr := e.exists(ctx, id)
		if lookupErr != nil {
			return nil, errors.Join(err, lookupErr)
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
		}
		return nil, err
	}
	return wf, nil
}

// exists reports whether the history of id holds at least one event.
func (e *engine) exists(ctx context.Context, id api.WorkflowID) (bool, error) {
	for _, err := range e.backend.EventLog().ReadEvents(ctx, event.LogID(id), version.SelectFromBeginning) {
		if err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func isConflict(err error) bool {
	var conflictErr *version.ConflictError
	return errors.As(err, &conflictErr)
}

// update loads the history of id, applies mutate and saves what it recorded.
// On a version conflict the history is reloaded and mutate runs again, so it
// must derive everything it records from the loaded state.
func (e *engine) update(
	ctx context.Context,
	id api.WorkflowID,
	mutate func(wf *workflowContext) error,
) (*workflowContext, aggregate.CommittedEvents[api.WorkflowEvent], error) {
	type updated struct {
		wf        *workflowContext
		committed aggregate.CommittedEvents[api.WorkflowEvent]
	}

	res, err := retry.DoWithData(
		func() (updated, error) {
			wf, err := e.load(ctx, id)
			if err != nil {
				return updated{}, err
			}
			if err := mutate(wf); err != nil {
				if errors.Is(err, errNothingToRecord) {
					return updated{wf: wf}, nil
				}
				return updated{}, err
			}
			_, committed, err := e.repo.Save(ctx, wf)
			if err != nil {
				return updated{}, err
			}
			return updated{wf: wf, committed: committed}, nil
		},
		retry.Attempts(defaultConflictAttempts),
		retry.Delay(defaultConflictDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(isConflict),
	)
	if err != nil {
		return nil, nil, err
	}
	return res.wf, res.committed, nil
}

// startRequest describes a new workflow history.
type startRequest struct {
	id        api.WorkflowID
	fnName    string
	input     []any
	startAt   time.Time
	tags      map[string]string
	parentID  api.WorkflowID
	parentSeq int
}

// start records WorkflowStarted for a new instance and schedules its first
// workflow task.
func (e *engine) start(ctx context.Context, req startRequest) error {
	if _, err := e.load(ctx, req.id); err == nil {
		return fmt.Errorf("%w: %s", ErrWorkflowAlreadyExists, req.id)
	} else if !errors.Is(err, ErrWorkflowNotFound) {
		return err
	}

	wf := newEmptyWorkflowContext()
	if err := wf.recordThat(&api.WorkflowStarted{
		ID:             req.id,
		WorkflowFnName: req.fnName,
		Input:          req.input,
		StartAt:        req.startAt,
		Tags:           req.tags,
		At:             e.clock.Now(),
		ParentID:       req.parentID,
		ParentSeq:      req.parentSeq,
	}); err != nil {
		return err
	}
	if _, _, err := e.repo.Save(ctx, wf); err != nil {
		if isConflict(err) {
			return fmt.Errorf("%w: %s", ErrWorkflowAlreadyExists, req.id)
		}
		return fmt.Errorf("failed to record workflow start: %w", err)
	}

	return e.backend.Enqueue(ctx, &api.WorkflowTask{
		WorkflowID: req.id,
		WorkflowFn: req.fnName,
		NotBefore:  req.startAt,
	})
}

// cancel records a cancellation request unless the workflow already finished.
func (e *engine) cancel(ctx context.Context, id api.WorkflowID, reason string) error {
	wf, committed, err := e.update(ctx, id, func(wf *workflowContext) error {
		if wf.completed || wf.cancelRequested {
			return errNothingToRecord
		}
		return wf.recordThat(&api.WorkflowCancelRequested{ID: id, Reason: reason, At: e.clock.Now()})
	})
	if err != nil {
		return err
	}
	if len(committed) == 0 {
		return nil
	}
	return e.backend.Enqueue(ctx, &api.WorkflowTask{WorkflowID: id, WorkflowFn: wf.workflowFunctionName})
}

// resolveCommand appends the outcome of command seq to workflow id and wakes
// the workflow up. Outcomes for commands that already have one are dropped.
func (e *engine) resolveCommand(ctx context.Context, id api.WorkflowID, seq int, outcome func(at time.Time) api.WorkflowEvent) error {
	wf, committed, err := e.update(ctx, id, func(wf *workflowContext) error {
		if wf.hasOutcome(seq) {
			return errNothingToRecord
		}
		return wf.recordThat(outcome(e.clock.Now()))
	})
	if err != nil {
		return err
	}
	if len(committed) == 0 {
		return nil
	}
	return e.backend.Enqueue(ctx, &api.WorkflowTask{WorkflowID: id, WorkflowFn: wf.workflowFunctionName})
}

// publishResult stores the final outcome of wf for clients and, for a
// sub-workflow, reports it to the parent.
func (e *engine) publishResult(ctx context.Context, wf *workflowContext) error {
	data, err := e.serder.SerializeBinary(&api.WorkflowResult{Value: wf.result, Failure: wf.failure})
	if err != nil {
		return fmt.Errorf("failed to serialize workflow result: %w", err)
	}
	if err := e.backend.PutResult(ctx, wf.id, data); err != nil {
		return err
	}
	if wf.parentID == "" {
		return nil
	}

	return e.resolveCommand(ctx, wf.parentID, wf.parentSeq, func(at time.Time) api.WorkflowEvent {
		if wf.failure != nil {
			return &api.SubWorkflowFailed{ID: wf.parentID, Seq: wf.parentSeq, Failure: wf.failure, At: at}
		}
		return &api.SubWorkflowCompleted{ID: wf.parentID, Seq: wf.parentSeq, Result: wf.result, At: at}
	})
}
