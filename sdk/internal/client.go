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

	"github.com/coder/quartz"
	"github.com/nats-io/nats.go"
	"github.com/ngnhng/durabletask/api"
	"github.com/ngnhng/durabletask/api/serde"
)

var _ Client = (*clientImpl)(nil)

type (
	Client interface {
		// ExecuteWorkflow starts a workflow with default start options.
		ExecuteWorkflow(ctx context.Context, workflowFn any, input ...any) (*Execution, error)
		// ScheduleWorkflow starts a workflow with an instance id, start time
		// and tags taken from opts.
		ScheduleWorkflow(ctx context.Context, workflowFn any, opts StartWorkflowOptions, input ...any) (*Execution, error)
		// CancelWorkflow requests cancellation of a running workflow.
		CancelWorkflow(ctx context.Context, id api.WorkflowID, reason string) error
		// GetExecution returns a handle on an existing workflow instance.
		GetExecution(id api.WorkflowID) *Execution
		Close() error

		// Accessors to underlying components, not exposed for public consumption
		getEngine() *engine
	}

	ClientOptions struct {
		Namespace string
		// Conn selects the NATS backend. Ignored when Backend is set.
		Conn    *nats.Conn
		Backend Backend
		Serde   serde.BinarySerde
		// Clock stamps history events and schedules deferred tasks.
		Clock  quartz.Clock
		Logger *slog.Logger
	}
)

type clientImpl struct {
	*engine
	options *ClientOptions
}

func NewClient(options *ClientOptions) (Client, error) {
	if options == nil || (options.Conn == nil && options.Backend == nil) {
		return nil, fmt.Errorf("client options must include a backend or an established NATS connection")
	}

	serder := options.Serde
	if serder == nil {
		serder = &serde.MsgpackSerde{}
	}
	logger := defaultLogger(options.Logger)

	backend := options.Backend
	if backend == nil {
		ctx, cancel := context.WithTimeout(context.Background(), defaultSetupTimeout)
		defer cancel()
		nb, err := NewNATSBackend(ctx, options.Conn, options.Namespace, serder)
		if err != nil {
			return nil, err
		}
		nb.SetLogger(logger)
		backend = nb
	}

	e, err := newEngine(backend, serder, options.Clock, logger)
	if err != nil {
		return nil, err
	}
	return &clientImpl{engine: e, options: options}, nil
}

func (c *clientImpl) ExecuteWorkflow(ctx context.Context, workflowFn any, input ...any) (*Execution, error) {
	return c.ScheduleWorkflow(ctx, workflowFn, NewStartWorkflowOptions(), input...)
}

func (c *clientImpl) ScheduleWorkflow(ctx context.Context, workflowFn any, opts StartWorkflowOptions, input ...any) (*Execution, error) {
	workflowName, err := functionName(workflowFn)
	if err != nil {
		return nil, fmt.Errorf("failed to extract workflow function name: %w", err)
	}

	id := opts.InstanceID()
	if id == "" {
		id = newInstanceID()
	}
	if input == nil {
		input = []any{}
	}
	var startAt time.Time
	if !opts.StartsImmediately(c.clock.Now()) {
		startAt = opts.StartAt()
	}

	err = c.start(ctx, startRequest{
		id:      api.WorkflowID(id),
		fnName:  workflowName,
		input:   input,
		startAt: startAt,
		tags:    opts.Tags(),
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("workflow scheduled", "workflow_id", id, "workflow", workflowName, "start_at", startAt)

	return c.GetExecution(api.WorkflowID(id)), nil
}

func (c *clientImpl) CancelWorkflow(ctx context.Context, id api.WorkflowID, reason string) error {
	return c.cancel(ctx, id, reason)
}

func (c *clientImpl) GetExecution(id api.WorkflowID) *Execution {
	return newExecution(id, c.backend, c.serder)
}

func (c *clientImpl) Close() error {
	return c.backend.Close()
}

func (c *clientImpl) getEngine() *engine { return c.engine }
