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
	"fmt"
	"time"

	"github.com/DeluxeOwl/chronicle/aggregate"
	"github.com/DeluxeOwl/chronicle/event"
	"github.com/ngnhng/durabletask/api"
)

func (c *workflowContext) EventFuncs() event.FuncsFor[api.WorkflowEvent] {
	return event.FuncsFor[api.WorkflowEvent]{
		func() api.WorkflowEvent { return new(api.WorkflowStarted) },
		func() api.WorkflowEvent { return new(api.WorkflowCancelRequested) },
		func() api.WorkflowEvent { return new(api.WorkflowCompleted) },
		func() api.WorkflowEvent { return new(api.WorkflowFailed) },
		func() api.WorkflowEvent { return new(api.ActivityScheduled) },
		func() api.WorkflowEvent { return new(api.ActivityCompleted) },
		func() api.WorkflowEvent { return new(api.ActivityFailed) },
		func() api.WorkflowEvent { return new(api.TimerCreated) },
		func() api.WorkflowEvent { return new(api.TimerFired) },
		func() api.WorkflowEvent { return new(api.SubWorkflowScheduled) },
		func() api.WorkflowEvent { return new(api.SubWorkflowCompleted) },
		func() api.WorkflowEvent { return new(api.SubWorkflowFailed) },
	}
}

func (c *workflowContext) ID() api.WorkflowID { return c.id }

func (c *workflowContext) recordThat(e api.WorkflowEvent) error {
	return aggregate.RecordEvent(c, e)
}

func (c *workflowContext) Apply(e api.WorkflowEvent) error {
	switch evt := e.(type) {
	case *api.WorkflowStarted:
		c.id = evt.ID
		c.workflowFunctionName = evt.WorkflowFnName
		c.input = evt.Input
		c.startedAt = evt.At
		c.startAt = evt.StartAt
		c.tags = evt.Tags
		c.parentID = evt.ParentID
		c.parentSeq = evt.ParentSeq
		c.clock = evt.At
	case *api.WorkflowCancelRequested:
		if !c.cancelRequested {
			c.cancelRequested = true
			c.cancelAfter = c.outcomes
		}
		c.observeCancel()
	case *api.WorkflowCompleted:
		c.completed = true
		c.result = evt.Result
	case *api.WorkflowFailed:
		c.completed = true
		c.failure = evt.Failure
	case *api.ActivityScheduled:
		c.addCommand(evt.Seq, &commandRecord{kind: activityCommand, name: evt.ActivityFnName, input: evt.Input})
	case *api.ActivityCompleted:
		return c.resolve(evt.Seq, evt.Result, nil, evt.At)
	case *api.ActivityFailed:
		return c.resolve(evt.Seq, nil, evt.Failure, evt.At)
	case *api.TimerCreated:
		c.addCommand(evt.Seq, &commandRecord{kind: timerCommand, name: "timer", fireAt: evt.FireAt})
	case *api.TimerFired:
		return c.resolve(evt.Seq, nil, nil, evt.At)
	case *api.SubWorkflowScheduled:
		c.addCommand(evt.Seq, &commandRecord{
			kind:       subWorkflowCommand,
			name:       evt.WorkflowFnName,
			instanceID: evt.InstanceID,
			input:      evt.Input,
		})
	case *api.SubWorkflowCompleted:
		return c.resolve(evt.Seq, evt.Result, nil, evt.At)
	case *api.SubWorkflowFailed:
		return c.resolve(evt.Seq, nil, evt.Failure, evt.At)
	default:
		return fmt.Errorf("unknown event type: %T", e)
	}
	return nil
}

func (c *workflowContext) addCommand(seq int, rec *commandRecord) {
	if c.commands == nil {
		c.commands = make(map[int]*commandRecord)
	}
	c.commands[seq] = rec
}

// resolve attaches an outcome to a command. Only the first outcome counts;
// redelivered tasks may record a second one.
func (c *workflowContext) resolve(seq int, value any, failure *api.FailureDetails, at time.Time) error {
	rec, ok := c.commands[seq]
	if !ok {
		return fmt.Errorf("outcome for unknown command #%d in workflow %s", seq, c.id)
	}
	if rec.resolved {
		return nil
	}
	rec.resolved = true
	rec.value = value
	rec.failure = failure
	rec.at = at
	c.outcomes++
	return nil
}

// hasOutcome reports whether seq already has a recorded outcome.
func (c *workflowContext) hasOutcome(seq int) bool {
	rec, ok := c.commands[seq]
	return ok && rec.resolved
}
