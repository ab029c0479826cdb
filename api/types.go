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

package api

import (
	"fmt"
	"time"
)

type TaskKind string

const (
	WorkflowTaskKind TaskKind = "workflow"
	ActivityTaskKind TaskKind = "activity"
	TimerTaskKind    TaskKind = "timer"
)

type (
	Task interface {
		Kind() TaskKind
		WorkflowRef() WorkflowID
	}

	// WorkflowTask asks a worker to replay a workflow and advance it.
	// A non-zero NotBefore defers the task until that instant.
	WorkflowTask struct {
		WorkflowID WorkflowID `json:"wf_id" msgpack:"wf_id"`
		WorkflowFn string     `json:"wf_name" msgpack:"wf_name"`
		NotBefore  time.Time  `json:"not_before" msgpack:"not_before"`
	}

	ActivityTask struct {
		WorkflowID WorkflowID `json:"wf_id" msgpack:"wf_id"`
		WorkflowFn string     `json:"wf_name" msgpack:"wf_name"`
		Seq        int        `json:"seq" msgpack:"seq"`
		ActivityFn string     `json:"ac_name" msgpack:"ac_name"`
		Input      []any      `json:"input" msgpack:"input"`
	}

	// TimerTask fires a durable timer once FireAt has passed.
	TimerTask struct {
		WorkflowID WorkflowID `json:"wf_id" msgpack:"wf_id"`
		WorkflowFn string     `json:"wf_name" msgpack:"wf_name"`
		Seq        int        `json:"seq" msgpack:"seq"`
		FireAt     time.Time  `json:"fire_at" msgpack:"fire_at"`
	}
)

func (t *WorkflowTask) Kind() TaskKind          { return WorkflowTaskKind }
func (t *WorkflowTask) WorkflowRef() WorkflowID { return t.WorkflowID }
func (t *ActivityTask) Kind() TaskKind          { return ActivityTaskKind }
func (t *ActivityTask) WorkflowRef() WorkflowID { return t.WorkflowID }
func (t *TimerTask) Kind() TaskKind             { return TimerTaskKind }
func (t *TimerTask) WorkflowRef() WorkflowID    { return t.WorkflowID }

// TaskEnvelope is the wire form of a Task. Exactly one field is set.
type TaskEnvelope struct {
	Workflow *WorkflowTask `json:"workflow,omitempty" msgpack:"workflow,omitempty"`
	Activity *ActivityTask `json:"activity,omitempty" msgpack:"activity,omitempty"`
	Timer    *TimerTask    `json:"timer,omitempty" msgpack:"timer,omitempty"`
}

func Envelope(t Task) (*TaskEnvelope, error) {
	switch task := t.(type) {
	case *WorkflowTask:
		return &TaskEnvelope{Workflow: task}, nil
	case *ActivityTask:
		return &TaskEnvelope{Activity: task}, nil
	case *TimerTask:
		return &TaskEnvelope{Timer: task}, nil
	default:
		return nil, fmt.Errorf("unknown task type %T", t)
	}
}

func (e *TaskEnvelope) Task() (Task, error) {
	switch {
	case e.Workflow != nil:
		return e.Workflow, nil
	case e.Activity != nil:
		return e.Activity, nil
	case e.Timer != nil:
		return e.Timer, nil
	default:
		return nil, fmt.Errorf("empty task envelope")
	}
}

// WorkflowResult is what a finished workflow publishes for its callers.
type WorkflowResult struct {
	Value   any             `json:"value" msgpack:"value"`
	Failure *FailureDetails `json:"failure,omitempty" msgpack:"failure,omitempty"`
}
