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
	"time"

	"github.com/DeluxeOwl/chronicle/event"
)

type WorkflowID string

func (w WorkflowID) String() string { return string(w) }

// WorkflowEvent is a single entry of a workflow history.
//
// Every command a workflow issues (activity, timer, sub-workflow) carries the
// sequence number it was issued with, so replay can pair it with its outcome.
type WorkflowEvent interface {
	event.Any

	isWorkflowEvent()
}

var _ WorkflowEvent = (*WorkflowStarted)(nil)
var _ WorkflowEvent = (*WorkflowCancelRequested)(nil)
var _ WorkflowEvent = (*WorkflowCompleted)(nil)
var _ WorkflowEvent = (*WorkflowFailed)(nil)
var _ WorkflowEvent = (*ActivityScheduled)(nil)
var _ WorkflowEvent = (*ActivityCompleted)(nil)
var _ WorkflowEvent = (*ActivityFailed)(nil)
var _ WorkflowEvent = (*TimerCreated)(nil)
var _ WorkflowEvent = (*TimerFired)(nil)
var _ WorkflowEvent = (*SubWorkflowScheduled)(nil)
var _ WorkflowEvent = (*SubWorkflowCompleted)(nil)
var _ WorkflowEvent = (*SubWorkflowFailed)(nil)

// -- Workflow Started Event --
type WorkflowStarted struct {
	ID WorkflowID `json:"id" msgpack:"id"`

	WorkflowFnName string            `json:"name" msgpack:"name"`
	Input          []any             `json:"input" msgpack:"input"`
	StartAt        time.Time         `json:"start_at" msgpack:"start_at"`
	Tags           map[string]string `json:"tags,omitempty" msgpack:"tags,omitempty"`
	At             time.Time         `json:"at" msgpack:"at"`

	// Set when the workflow runs as a child of another workflow.
	ParentID  WorkflowID `json:"parent_id,omitempty" msgpack:"parent_id,omitempty"`
	ParentSeq int        `json:"parent_seq,omitempty" msgpack:"parent_seq,omitempty"`
}

func (*WorkflowStarted) EventName() string { return "workflow/started" }
func (*WorkflowStarted) isWorkflowEvent()  {}

// -- Workflow Cancel Requested --
type WorkflowCancelRequested struct {
	ID     WorkflowID `json:"id" msgpack:"id"`
	Reason string     `json:"reason,omitempty" msgpack:"reason,omitempty"`
	At     time.Time  `json:"at" msgpack:"at"`
}

func (*WorkflowCancelRequested) EventName() string { return "workflow/cancel_requested" }
func (*WorkflowCancelRequested) isWorkflowEvent()  {}

// -- Workflow Completed --
type WorkflowCompleted struct {
	ID WorkflowID `json:"id" msgpack:"id"`

	WorkflowFnName string    `json:"name" msgpack:"name"`
	Result         any       `json:"result" msgpack:"result"`
	At             time.Time `json:"at" msgpack:"at"`
}

func (*WorkflowCompleted) EventName() string { return "workflow/completed" }
func (*WorkflowCompleted) isWorkflowEvent()  {}

// -- Workflow Failed --
type WorkflowFailed struct {
	ID WorkflowID `json:"id" msgpack:"id"`

	WorkflowFnName string          `json:"name" msgpack:"name"`
	Failure        *FailureDetails `json:"failure" msgpack:"failure"`
	At             time.Time       `json:"at" msgpack:"at"`
}

func (*WorkflowFailed) EventName() string { return "workflow/failed" }
func (*WorkflowFailed) isWorkflowEvent()  {}

// -- Activity Scheduled Event --
type ActivityScheduled struct {
	ID  WorkflowID `json:"id" msgpack:"id"`
	Seq int        `json:"seq" msgpack:"seq"`

	ActivityFnName string    `json:"name" msgpack:"name"`
	Input          []any     `json:"input" msgpack:"input"`
	At             time.Time `json:"at" msgpack:"at"`
}

func (*ActivityScheduled) EventName() string { return "activity/scheduled" }
func (*ActivityScheduled) isWorkflowEvent()  {}

// -- Activity Completed Event --
type ActivityCompleted struct {
	ID  WorkflowID `json:"id" msgpack:"id"`
	Seq int        `json:"seq" msgpack:"seq"`

	Result any       `json:"result" msgpack:"result"`
	At     time.Time `json:"at" msgpack:"at"`
}

func (*ActivityCompleted) EventName() string { return "activity/completed" }
func (*ActivityCompleted) isWorkflowEvent()  {}

// -- Activity Failed Event --
type ActivityFailed struct {
	ID  WorkflowID `json:"id" msgpack:"id"`
	Seq int        `json:"seq" msgpack:"seq"`

	Failure *FailureDetails `json:"failure" msgpack:"failure"`
	At      time.Time       `json:"at" msgpack:"at"`
}

func (*ActivityFailed) EventName() string { return "activity/failed" }
func (*ActivityFailed) isWorkflowEvent()  {}

// -- Timer Created Event --
type TimerCreated struct {
	ID  WorkflowID `json:"id" msgpack:"id"`
	Seq int        `json:"seq" msgpack:"seq"`

	FireAt time.Time `json:"fire_at" msgpack:"fire_at"`
}

func (*TimerCreated) EventName() string { return "timer/created" }
func (*TimerCreated) isWorkflowEvent()  {}

// -- Timer Fired Event --
// At always equals the FireAt of the matching TimerCreated.
type TimerFired struct {
	ID  WorkflowID `json:"id" msgpack:"id"`
	Seq int        `json:"seq" msgpack:"seq"`

	At time.Time `json:"at" msgpack:"at"`
}

func (*TimerFired) EventName() string { return "timer/fired" }
func (*TimerFired) isWorkflowEvent()  {}

// -- Sub-Workflow Scheduled Event --
type SubWorkflowScheduled struct {
	ID  WorkflowID `json:"id" msgpack:"id"`
	Seq int        `json:"seq" msgpack:"seq"`

	InstanceID     WorkflowID `json:"instance_id" msgpack:"instance_id"`
	WorkflowFnName string     `json:"name" msgpack:"name"`
	Input          []any      `json:"input" msgpack:"input"`
	At             time.Time  `json:"at" msgpack:"at"`
}

func (*SubWorkflowScheduled) EventName() string { return "subworkflow/scheduled" }
func (*SubWorkflowScheduled) isWorkflowEvent()  {}

// -- Sub-Workflow Completed Event --
type SubWorkflowCompleted struct {
	ID  WorkflowID `json:"id" msgpack:"id"`
	Seq int        `json:"seq" msgpack:"seq"`

	Result any       `json:"result" msgpack:"result"`
	At     time.Time `json:"at" msgpack:"at"`
}

func (*SubWorkflowCompleted) EventName() string { return "subworkflow/completed" }
func (*SubWorkflowCompleted) isWorkflowEvent()  {}

// -- Sub-Workflow Failed Event --
type SubWorkflowFailed struct {
	ID  WorkflowID `json:"id" msgpack:"id"`
	Seq int        `json:"seq" msgpack:"seq"`

	Failure *FailureDetails `json:"failure" msgpack:"failure"`
	At      time.Time       `json:"at" msgpack:"at"`
}

func (*SubWorkflowFailed) EventName() string { return "subworkflow/failed" }
func (*SubWorkflowFailed) isWorkflowEvent()  {}
