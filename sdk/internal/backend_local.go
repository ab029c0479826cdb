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
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/DeluxeOwl/chronicle/event"
	"github.com/coder/quartz"
	"github.com/ngnhng/durabletask/api"
)

// ErrBackendClosed is returned by a local backend after Close.
var ErrBackendClosed = errors.New("backend closed")

const defaultLocalQueueSize = 1024

type LocalBackendOptions struct {
	// Clock drives deferred redelivery. Defaults to the real clock.
	Clock     quartz.Clock
	Logger    *slog.Logger
	QueueSize int
}

var _ Backend = (*localBackend)(nil)

// localBackend runs the engine inside a single process over any chronicle
// event log, such as the memory log in tests or a pebble log on disk.
type localBackend struct {
	log    event.Log
	clock  quartz.Clock
	logger *slog.Logger

	workflowTasks chan api.Task
	activityTasks chan api.Task

	mu      sync.Mutex
	results map[api.WorkflowID]*resultSlot

	closeOnce sync.Once
	closed    chan struct{}
}

type resultSlot struct {
	once sync.Once
	done chan struct{}
	data []byte
}

func NewLocalBackend(log event.Log, opts *LocalBackendOptions) (*localBackend, error) {
	if log == nil {
		return nil, fmt.Errorf("local backend: nil event log")
	}
	if opts == nil {
		opts = &LocalBackendOptions{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	size := opts.QueueSize
	if size <= 0 {
		size = defaultLocalQueueSize
	}
	return &localBackend{
		log:           log,
		clock:         clock,
		logger:        defaultLogger(opts.Logger),
		workflowTasks: make(chan api.Task, size),
		activityTasks: make(chan api.Task, size),
		results:       make(map[api.WorkflowID]*resultSlot),
		closed:        make(chan struct{}),
	}, nil
}

func (b *localBackend) EventLog() event.Log { return b.log }

func (b *localBackend) Enqueue(ctx context.Context, task api.Task) error {
	queue, err := b.queueFor(task)
	if err != nil {
		return err
	}
	select {
	case <-b.closed:
		return ErrBackendClosed
	case <-ctx.Done():
		return ctx.Err()
	case queue <- task:
		return nil
	}
}

func (b *localBackend) queueFor(task api.Task) (chan api.Task, error) {
	switch task.(type) {
	case *api.WorkflowTask, *api.TimerTask:
		return b.workflowTasks, nil
	case *api.ActivityTask:
		return b.activityTasks, nil
	default:
		return nil, fmt.Errorf("unknown task type %T", task)
	}
}

// redeliver puts task back on its queue without a caller context; timer
// callbacks have none.
func (b *localBackend) redeliver(task api.Task) {
	queue, err := b.queueFor(task)
	if err != nil {
		return
	}
	select {
	case <-b.closed:
	case queue <- task:
	}
}

func (b *localBackend) ReceiveTask(ctx context.Context, includeWorkflow, includeActivity bool) (iter.Seq[*TaskToken], error) {
	if !includeWorkflow && !includeActivity {
		return nil, fmt.Errorf("at least one task type must be enabled")
	}

	// A nil channel never delivers, which disables that task type.
	var workflowTasks, activityTasks chan api.Task
	if includeWorkflow {
		workflowTasks = b.workflowTasks
	}
	if includeActivity {
		activityTasks = b.activityTasks
	}

	return func(yield func(*TaskToken) bool) {
		for {
			var task api.Task
			select {
			case <-ctx.Done():
				return
			case <-b.closed:
				return
			case task = <-workflowTasks:
			case task = <-activityTasks:
			}
			if !yield(b.token(task)) {
				return
			}
		}
	}, nil
}

func (b *localBackend) token(task api.Task) *TaskToken {
	return &TaskToken{
		Task: task,
		Ack:  func(context.Context) error { return nil },
		Nak: func(context.Context) error {
			go b.redeliver(task)
			return nil
		},
		Term: func(context.Context) error {
			b.logger.Warn("task terminated", "kind", task.Kind(), "workflow_id", task.WorkflowRef())
			return nil
		},
		Defer: func(_ context.Context, d time.Duration) error {
			b.clock.AfterFunc(d, func() { b.redeliver(task) })
			return nil
		},
	}
}

func (b *localBackend) slot(id api.WorkflowID) *resultSlot {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.results[id]
	if !ok {
		s = &resultSlot{done: make(chan struct{})}
		b.results[id] = s
	}
	return s
}

// PutResult stores the first result published for id. Later ones are
// ignored, as a redelivered task may publish twice.
func (b *localBackend) PutResult(_ context.Context, id api.WorkflowID, data []byte) error {
	s := b.slot(id)
	s.once.Do(func() {
		s.data = data
		close(s.done)
	})
	return nil
}

func (b *localBackend) WatchResult(ctx context.Context, id api.WorkflowID) ([]byte, error) {
	s := b.slot(id)
	select {
	case <-s.done:
		return s.data, nil
	case <-b.closed:
		return nil, ErrBackendClosed
	case <-ctx.Done():
		return nil, fmt.Errorf("watcher stopped without receiving a result: %w", ctx.Err())
	}
}

func (b *localBackend) Close() error {
	b.closeOnce.Do(func() { close(b.closed) })
	return nil
}
