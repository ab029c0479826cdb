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
	"sync"
	"time"

	"github.com/DeluxeOwl/chronicle/event"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/ngnhng/durabletask/api"
	"github.com/ngnhng/durabletask/api/serde"
	"github.com/ngnhng/durabletask/internal/historylog"
)

var _ Backend = (*natsBackend)(nil)

// natsBackend keeps history in a JetStream history log, tasks in
// JetStream work queue streams and results in a KV bucket.
type natsBackend struct {
	*Conn
	log *historylog.JetStream
}

// NewNATSBackend wraps an established connection and makes sure the task
// streams and the result bucket exist.
func NewNATSBackend(ctx context.Context, nc *nats.Conn, namespace string, conv serde.BinarySerde) (*natsBackend, error) {
	if nc == nil {
		return nil, fmt.Errorf("natz: nil connection provided")
	}
	conn, err := from(nc, namespace, conv)
	if err != nil {
		return nil, err
	}

	for _, s := range []struct{ name, subject string }{
		{conn.WorkflowTaskStreamName(), conn.WorkflowTaskSubject()},
		{conn.ActivityTaskStreamName(), conn.ActivityTaskSubject()},
	} {
		if _, err := conn.EnsureStream(ctx, jetstream.StreamConfig{
			Name:      s.name,
			Subjects:  []string{s.subject},
			Retention: jetstream.WorkQueuePolicy,
			Storage:   jetstream.FileStorage,
		}); err != nil {
			return nil, err
		}
	}
	if _, err := conn.EnsureKV(ctx, jetstream.KeyValueConfig{
		Bucket:  conn.ResultBucketName(),
		Storage: jetstream.FileStorage,
	}); err != nil {
		return nil, err
	}

	log, err := historylog.New(ctx, conn.js,
		historylog.WithStreamName(conn.HistoryStreamName()),
		historylog.WithSubjectPrefix(conn.HistorySubjectPrefix()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create history log: %w", err)
	}

	return &natsBackend{Conn: conn, log: log}, nil
}

func (b *natsBackend) EventLog() event.Log { return b.log }

func (b *natsBackend) Enqueue(ctx context.Context, task api.Task) error {
	env, err := api.Envelope(task)
	if err != nil {
		return err
	}
	data, err := b.converter.SerializeBinary(env)
	if err != nil {
		return fmt.Errorf("failed to serialize %s task: %w", task.Kind(), err)
	}
	subject := b.WorkflowTaskSubject()
	if task.Kind() == api.ActivityTaskKind {
		subject = b.ActivityTaskSubject()
	}
	_, err = b.PublishJS(ctx, subject, data)
	return err
}

func (b *natsBackend) ReceiveTask(ctx context.Context, includeWorkflow, includeActivity bool) (iter.Seq[*TaskToken], error) {
	if !includeWorkflow && !includeActivity {
		return nil, fmt.Errorf("at least one task type must be enabled")
	}

	consumerCtx, cancelConsumers := context.WithCancel(ctx)
	taskChannel := make(chan *TaskToken)

	type consumerHandle struct {
		consumer jetstream.Consumer
		taskType string
	}

	var consumers []consumerHandle
	for _, c := range []struct {
		enabled  bool
		stream   string
		name     string
		subject  string
		taskType string
	}{
		{includeWorkflow, b.WorkflowTaskStreamName(), api.WorkflowTaskWorkerConsumer, b.WorkflowTaskSubject(), "workflow"},
		{includeActivity, b.ActivityTaskStreamName(), api.ActivityTaskWorkerConsumer, b.ActivityTaskSubject(), "activity"},
	} {
		if !c.enabled {
			continue
		}
		consumer, err := b.EnsureConsumer(consumerCtx, c.stream, jetstream.ConsumerConfig{
			Name:          c.name,
			Durable:       c.name,
			FilterSubject: c.subject,
			AckPolicy:     jetstream.AckExplicitPolicy,
		})
		if err != nil {
			cancelConsumers()
			return nil, err
		}
		consumers = append(consumers, consumerHandle{consumer: consumer, taskType: c.taskType})
	}

	var wg sync.WaitGroup

	for _, handle := range consumers {
		wg.Add(1)
		go func(ch consumerHandle) {
			defer wg.Done()
			defer cancelConsumers()

			consumeCtx, err := ch.consumer.Consume(func(msg jetstream.Msg) {
				b.enqueueTask(consumerCtx, msg, taskChannel)
			})
			if err != nil {
				b.Logger().Error("task consumer failed", "type", ch.taskType, "error", err)
				return
			}
			defer consumeCtx.Stop()

			<-consumerCtx.Done()
		}(handle)
	}

	go func() {
		wg.Wait()
		close(taskChannel)
	}()

	return func(yield func(*TaskToken) bool) {
		defer cancelConsumers()
		for {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-taskChannel:
				if !ok {
					return
				}
				if !yield(t) {
					return
				}
			}
		}
	}, nil
}

func (b *natsBackend) enqueueTask(ctx context.Context, msg jetstream.Msg, taskChannel chan<- *TaskToken) {
	var env api.TaskEnvelope
	if err := b.converter.DeserializeBinary(msg.Data(), &env); err != nil {
		b.Logger().Warn("dropping undecodable task", "subject", msg.Subject(), "error", err)
		msg.Term()
		return
	}
	task, err := env.Task()
	if err != nil {
		b.Logger().Warn("dropping poison pill", "subject", msg.Subject(), "error", err)
		msg.Term()
		return
	}

	token := &TaskToken{
		Task:  task,
		Ack:   msg.DoubleAck,
		Nak:   func(context.Context) error { return msg.Nak() },
		Term:  func(context.Context) error { return msg.Term() },
		Defer: func(_ context.Context, d time.Duration) error { return msg.NakWithDelay(d) },
	}

	select {
	case <-ctx.Done():
		msg.Nak()
	case taskChannel <- token:
	}
}

func (b *natsBackend) PutResult(ctx context.Context, id api.WorkflowID, data []byte) error {
	_, err := b.Create(ctx, b.ResultBucketName(), id.String(), data)
	if errors.Is(err, jetstream.ErrKeyExists) {
		return nil
	}
	return err
}

// WatchResult implements ResultStore.
func (b *natsBackend) WatchResult(ctx context.Context, id api.WorkflowID) ([]byte, error) {
	watcher, err := b.WatchKV(ctx, b.ResultBucketName(), id.String())
	if err != nil {
		return nil, fmt.Errorf("could not start KV watcher for key '%s': %w", id, err)
	}
	defer watcher.Stop()
	b.Logger().Debug("watching for workflow result", "workflow_id", id)

	for update := range watcher.Updates() {
		if update == nil {
			// initial values delivered
			continue
		}

		if update.Operation() == jetstream.KeyValuePut {
			b.Logger().Debug("received workflow result", "workflow_id", id)
			return update.Value(), nil
		}
	}

	return nil, fmt.Errorf("watcher stopped without receiving a result: %w", ctx.Err())
}

// Close leaves the connection open; it belongs to the caller.
func (b *natsBackend) Close() error { return nil }
