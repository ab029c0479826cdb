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
	"time"

	"github.com/ngnhng/durabletask/api"
	"github.com/ngnhng/durabletask/api/serde"
)

const defaultSetupTimeout = 10 * time.Second

// Execution is a client side handle on a workflow instance.
type Execution struct {
	WorkflowID api.WorkflowID
	results    ResultStore
	converter  serde.BinarySerde
}

func newExecution(id api.WorkflowID, results ResultStore, conv serde.BinarySerde) *Execution {
	if conv == nil {
		conv = &serde.MsgpackSerde{}
	}
	return &Execution{
		WorkflowID: id,
		results:    results,
		converter:  conv,
	}
}

func (e *Execution) ID() api.WorkflowID { return e.WorkflowID }

// Get blocks until the workflow finishes and stores its result in valuePtr.
// A failed workflow yields a *WorkflowExecutionError whose cause is a
// *TaskFailedError carrying the recorded failure.
func (e *Execution) Get(ctx context.Context, valuePtr any) error {
	data, err := e.results.WatchResult(ctx, e.WorkflowID)
	if err != nil {
		return fmt.Errorf("error waiting for workflow result: %w", err)
	}

	var res api.WorkflowResult
	if err := e.converter.DeserializeBinary(data, &res); err != nil {
		return fmt.Errorf("result deserialization failed: %w", err)
	}
	if res.Failure != nil {
		return &WorkflowExecutionError{
			WorkflowID: e.WorkflowID.String(),
			Cause:      NewTaskFailedError("", 0, res.Failure),
		}
	}
	if valuePtr == nil || res.Value == nil {
		return nil
	}
	return assignValue(e.converter, res.Value, valuePtr)
}
