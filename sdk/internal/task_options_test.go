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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskOptionsHoldOneStrategy(t *testing.T) {
	policy := &RetryPolicy{MaximumAttempts: 3, NonRetryableErrorTypes: []string{"A"}}
	opts := FromRetryPolicy(policy)
	require.NotNil(t, opts.Retry)
	got, ok := opts.Retry.Policy()
	require.True(t, ok)
	assert.Equal(t, int32(3), got.MaximumAttempts)
	assert.False(t, opts.Retry.HasHandler())

	// The options own a copy of the policy.
	policy.NonRetryableErrorTypes[0] = "B"
	policy.MaximumAttempts = 9
	got, _ = opts.Retry.Policy()
	assert.Equal(t, []string{"A"}, got.NonRetryableErrorTypes)
	assert.Equal(t, int32(3), got.MaximumAttempts)

	handler := FromRetryHandler(func(RetryContext) bool { return false })
	assert.True(t, handler.Retry.HasHandler())
	_, ok = handler.Retry.Policy()
	assert.False(t, ok)

	async := FromAsyncRetryHandler(func(RetryContext) Future { return NewResolvedFuture(false, nil) })
	assert.True(t, async.Retry.HasHandler())

	assert.Nil(t, FromRetryPolicy(nil).Retry)
	assert.Nil(t, FromRetryHandler(nil).Retry)
	assert.Nil(t, FromAsyncRetryHandler(nil).Retry)
}

func TestSubWorkflowOptions(t *testing.T) {
	base := FromRetryPolicy(&RetryPolicy{MaximumAttempts: 2})

	sub := base.WithInstanceID("child-1")
	assert.Equal(t, "child-1", sub.InstanceID)
	assert.Same(t, base.Retry, sub.Retry)

	// An empty id keeps the current one.
	same := sub.WithInstanceID("")
	assert.Equal(t, "child-1", same.InstanceID)
	assert.Same(t, base.Retry, same.Retry)

	other := NewSubWorkflowOptions(&sub, "child-2")
	assert.Equal(t, "child-2", other.InstanceID)
	assert.Same(t, base.Retry, other.Retry)

	fromPtr := NewSubWorkflowOptions(&base, "")
	assert.Empty(t, fromPtr.InstanceID)
	assert.Same(t, base.Retry, fromPtr.Retry)

	empty := NewSubWorkflowOptions(nil, "x")
	assert.Equal(t, "x", empty.InstanceID)
	assert.Nil(t, empty.Retry)

	var nilSub *SubWorkflowOptions
	assert.Nil(t, NewSubWorkflowOptions(nilSub, "y").Retry)
}

func TestStartWorkflowOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		a := NewStartWorkflowOptions()
		b := NewStartWorkflowOptions()
		assert.NotEmpty(t, a.InstanceID())
		assert.NotEqual(t, a.InstanceID(), b.InstanceID())
		assert.True(t, a.StartsImmediately(time.Now()))
		assert.True(t, a.StartAt().IsZero())
		assert.NotNil(t, a.Tags())
		assert.Empty(t, a.Tags())
	})

	t.Run("explicit", func(t *testing.T) {
		at := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
		o := NewStartWorkflowOptions(
			WithInstanceID("order-42"),
			WithStartAt(at),
			WithTags(map[string]string{"tenant": "acme", "region": "eu"}),
			WithTag("region", "us"),
		)
		assert.Equal(t, "order-42", o.InstanceID())
		assert.False(t, o.StartsImmediately(at.Add(-time.Second)))
		assert.True(t, o.StartsImmediately(at))
		assert.True(t, o.StartsImmediately(at.Add(time.Hour)))
		assert.Equal(t, at, o.StartAt())
		assert.Equal(t, map[string]string{"tenant": "acme", "region": "us"}, o.Tags())
	})

	t.Run("empty instance id keeps the generated one", func(t *testing.T) {
		o := NewStartWorkflowOptions(WithInstanceID(""))
		assert.NotEmpty(t, o.InstanceID())
	})

	t.Run("tags are copied out", func(t *testing.T) {
		o := NewStartWorkflowOptions(WithTag("k", "v"))
		tags := o.Tags()
		tags["k"] = "changed"
		assert.Equal(t, "v", o.Tags()["k"])
	})
}
