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
	"maps"
	"time"

	"github.com/gofrs/uuid/v5"
)

// StartWorkflowOptions controls how a new workflow instance is launched.
// The zero value is not usable; build it with NewStartWorkflowOptions.
type StartWorkflowOptions struct {
	instanceID string
	startAt    time.Time
	tags       map[string]string
}

type StartOption func(*StartWorkflowOptions)

// WithInstanceID sets an explicit instance id. An empty id keeps the generated one.
func WithInstanceID(id string) StartOption {
	return func(o *StartWorkflowOptions) {
		if id != "" {
			o.instanceID = id
		}
	}
}

// WithStartAt delays the first execution until t. A zero or past t starts immediately.
func WithStartAt(t time.Time) StartOption {
	return func(o *StartWorkflowOptions) { o.startAt = t }
}

// WithTags adds every entry of tags, replacing existing keys.
func WithTags(tags map[string]string) StartOption {
	return func(o *StartWorkflowOptions) { maps.Copy(o.tags, tags) }
}

func WithTag(key, value string) StartOption {
	return func(o *StartWorkflowOptions) { o.tags[key] = value }
}

// NewStartWorkflowOptions returns options with a fresh time-ordered instance
// id, an immediate start and no tags, then applies opts.
func NewStartWorkflowOptions(opts ...StartOption) StartWorkflowOptions {
	o := StartWorkflowOptions{
		instanceID: newInstanceID(),
		tags:       map[string]string{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o StartWorkflowOptions) InstanceID() string { return o.instanceID }

// StartAt is the scheduled start, zero when the instance starts immediately.
func (o StartWorkflowOptions) StartAt() time.Time { return o.startAt }

// StartsImmediately reports whether the instance is due at now, which holds
// for a zero start time and for any start time not after now.
func (o StartWorkflowOptions) StartsImmediately(now time.Time) bool { return !o.startAt.After(now) }

// Tags returns a copy of the tags. It is never nil.
func (o StartWorkflowOptions) Tags() map[string]string {
	if o.tags == nil {
		return map[string]string{}
	}
	return maps.Clone(o.tags)
}

func newInstanceID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Must(uuid.NewV4()).String()
	}
	return id.String()
}
