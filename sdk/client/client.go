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

package client

import (
	"log/slog"

	"github.com/DeluxeOwl/chronicle/event"
	"github.com/nats-io/nats.go"
	"github.com/ngnhng/durabletask/sdk/internal"
)

// Client is the interface for starting and observing durable workflows.
//
// Use Client to start workflow executions and retrieve results. A client runs
// on a Backend: NATS JetStream when Options.Conn is set, or the Backend given
// in Options.
//
// Example:
//
//	client, err := client.NewClient(&client.Options{
//		Namespace: "production",
//		Conn:      natsConn,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	exec, err := client.ExecuteWorkflow(ctx, MyWorkflow, arg1, arg2)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	var result MyResult
//	if err := exec.Get(ctx, &result); err != nil {
//		log.Fatal(err)
//	}
type Client = internal.Client

// Options contains configuration for creating a new Client.
type Options = internal.ClientOptions

// Execution is a handle on a workflow instance.
type Execution = internal.Execution

// Backend stores workflow histories, queues tasks and publishes results.
type Backend = internal.Backend

// LocalBackendOptions configures NewLocalBackend.
type LocalBackendOptions = internal.LocalBackendOptions

// NewClient creates a new Client with the provided Options.
//
// Returns an error if:
//   - Options is nil
//   - Neither Options.Backend nor Options.Conn is set
//   - The JetStream streams or buckets cannot be created
func NewClient(options *Options) (Client, error) {
	return internal.NewClient(options)
}

// NewLocalBackend returns an in-process Backend over log. Tasks and results
// live in memory; histories live in log.
func NewLocalBackend(log event.Log, opts *LocalBackendOptions) (Backend, error) {
	b, err := internal.NewLocalBackend(log, opts)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ConnConfig supplies the NATS connection settings; *config.Config implements it.
type ConnConfig = internal.Config

// Connect dials NATS with reconnect handling that logs to logger.
func Connect(cfg ConnConfig, logger *slog.Logger) (*nats.Conn, error) {
	return internal.Connect(cfg, logger)
}
