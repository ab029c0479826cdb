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
	"iter"
	"time"

	"github.com/DeluxeOwl/chronicle/event"
	"github.com/ngnhng/durabletask/api"
)

type (
	// TaskToken is a received task together with its delivery controls.
	TaskToken struct {
		Task api.Task
		Ack  func(context.Context) error
		Nak  func(context.Context) error
		Term func(context.Context) error
		// Defer hands the task back for redelivery after d.
		Defer func(ctx context.Context, d time.Duration) error
	}

	TaskProcessor interface {
		ReceiveTask(ctx context.Context, includeWorkflow, includeActivity bool) (iter.Seq[*TaskToken], error)
	}

	TaskQueue interface {
		// Enqueue publishes a task. Workflow and timer tasks share the workflow queue.
		Enqueue(ctx context.Context, task api.Task) error
	}

	// ResultStore keeps the serialized api.WorkflowResult of finished workflows.
	ResultStore interface {
		PutResult(ctx context.Context, id api.WorkflowID, data []byte) error
		// WatchResult blocks until a result for id is stored or ctx is done.
		WatchResult(ctx context.Context, id api.WorkflowID) ([]byte, error)
	}

	// Backend is everything the engine needs from its environment: a history
	// log, task queues and a result store.
	Backend interface {
		EventLog() event.Log
		TaskQueue
		TaskProcessor
		ResultStore
		Close() error
	}
)
