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
	"time"

	"github.com/ngnhng/durabletask/sdk/internal"
)

// StartWorkflowOptions controls the instance id, start time and tags of a
// new workflow instance.
type StartWorkflowOptions = internal.StartWorkflowOptions

type StartOption = internal.StartOption

// NewStartWorkflowOptions builds options with a fresh instance id, an
// immediate start and no tags, then applies opts.
func NewStartWorkflowOptions(opts ...StartOption) StartWorkflowOptions {
	return internal.NewStartWorkflowOptions(opts...)
}

// WithInstanceID sets the instance id. An empty id keeps the generated one.
func WithInstanceID(id string) StartOption { return internal.WithInstanceID(id) }

// WithStartAt delays the first execution until t. A zero or past t starts
// right away.
func WithStartAt(t time.Time) StartOption { return internal.WithStartAt(t) }

func WithTags(tags map[string]string) StartOption { return internal.WithTags(tags) }

func WithTag(key, value string) StartOption { return internal.WithTag(key, value) }
