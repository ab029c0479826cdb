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

type retryStrategy int

const (
	retryWithPolicy retryStrategy = iota + 1
	retryWithHandler
	retryWithAsyncHandler
)

// TaskRetryOptions holds exactly one retry strategy: a policy, a handler or
// an async handler. Build it with the RetryOptionsFrom* constructors.
type TaskRetryOptions struct {
	strategy     retryStrategy
	policy       RetryPolicy
	handler      RetryHandler
	asyncHandler AsyncRetryHandler
}

func RetryOptionsFromPolicy(policy *RetryPolicy) *TaskRetryOptions {
	if policy == nil {
		return nil
	}
	p := *policy
	p.NonRetryableErrorTypes = append([]string(nil), policy.NonRetryableErrorTypes...)
	return &TaskRetryOptions{strategy: retryWithPolicy, policy: p}
}

func RetryOptionsFromHandler(handler RetryHandler) *TaskRetryOptions {
	if handler == nil {
		return nil
	}
	return &TaskRetryOptions{strategy: retryWithHandler, handler: handler}
}

func RetryOptionsFromAsyncHandler(handler AsyncRetryHandler) *TaskRetryOptions {
	if handler == nil {
		return nil
	}
	return &TaskRetryOptions{strategy: retryWithAsyncHandler, asyncHandler: handler}
}

// Policy returns a copy of the configured policy, if that is the strategy.
func (o *TaskRetryOptions) Policy() (RetryPolicy, bool) {
	if o == nil || o.strategy != retryWithPolicy {
		return RetryPolicy{}, false
	}
	return o.policy, true
}

func (o *TaskRetryOptions) HasHandler() bool {
	return o != nil && (o.strategy == retryWithHandler || o.strategy == retryWithAsyncHandler)
}

// TaskOptions configures how a scheduled activity is retried.
type TaskOptions struct {
	Retry *TaskRetryOptions
}

// FromRetryPolicy retries with exponential backoff on the workflow clock.
func FromRetryPolicy(policy *RetryPolicy) TaskOptions {
	return TaskOptions{Retry: RetryOptionsFromPolicy(policy)}
}

// FromRetryHandler retries while handler returns true. No delay is inserted
// between attempts; a handler that wants one creates a timer itself.
func FromRetryHandler(handler RetryHandler) TaskOptions {
	return TaskOptions{Retry: RetryOptionsFromHandler(handler)}
}

// FromAsyncRetryHandler is FromRetryHandler for handlers that await. No delay
// is inserted between attempts.
func FromAsyncRetryHandler(handler AsyncRetryHandler) TaskOptions {
	return TaskOptions{Retry: RetryOptionsFromAsyncHandler(handler)}
}

// Options implements OptionsProvider.
func (o TaskOptions) Options() TaskOptions { return o }

// WithInstanceID derives sub-workflow options targeting instanceID.
func (o TaskOptions) WithInstanceID(instanceID string) SubWorkflowOptions {
	return NewSubWorkflowOptions(o, instanceID)
}

// OptionsProvider is anything sub-workflow options can be derived from.
type OptionsProvider interface {
	Options() TaskOptions
}

// SubWorkflowOptions adds the target instance id to TaskOptions.
// An empty InstanceID lets the engine derive a deterministic one.
type SubWorkflowOptions struct {
	TaskOptions
	InstanceID string
}

// NewSubWorkflowOptions copies the retry configuration of base. When
// instanceID is empty and base is itself a SubWorkflowOptions, its InstanceID
// is kept.
func NewSubWorkflowOptions(base OptionsProvider, instanceID string) SubWorkflowOptions {
	out := SubWorkflowOptions{InstanceID: instanceID}
	switch prev := base.(type) {
	case nil:
		return out
	case *SubWorkflowOptions:
		if prev == nil {
			return out
		}
		base = *prev
	case *TaskOptions:
		if prev == nil {
			return out
		}
	}
	out.TaskOptions = base.Options()
	if prev, ok := base.(SubWorkflowOptions); ok && instanceID == "" {
		out.InstanceID = prev.InstanceID
	}
	return out
}

// WithInstanceID returns a copy targeting instanceID, or keeping the current
// id when instanceID is empty.
func (o SubWorkflowOptions) WithInstanceID(instanceID string) SubWorkflowOptions {
	return NewSubWorkflowOptions(o, instanceID)
}
