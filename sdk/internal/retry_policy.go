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
	"math"
	"slices"
	"time"

	"github.com/ngnhng/durabletask/api"
)

const (
	DefaultInitialInterval    = time.Second
	DefaultBackoffCoefficient = 2.0
	// The default MaximumInterval is this many InitialIntervals.
	DefaultMaximumIntervalFactor = 100
)

type RetryPolicy struct {
	// Backoff interval for the first retry. If BackoffCoefficient is 1.0 then it is used for all retries.
	// If not set or set to 0, a default interval of 1s will be used.
	InitialInterval time.Duration

	// Coefficient used to calculate the next retry backoff interval.
	// The next retry interval is previous interval multiplied by this coefficient.
	// Must be 1 or larger. Default is 2.0.
	BackoffCoefficient float64

	// Maximum backoff interval between retries. Exponential backoff leads to interval increase.
	// This value is the cap of the interval. Default is 100x of initial interval.
	MaximumInterval time.Duration

	// Maximum number of attempts, the first one included. When reached the retries stop.
	// If not set or set to 0, it means unlimited, and rely on RetryTimeout or cancellation to stop.
	MaximumAttempts int32

	// Maximum total time spent retrying, measured on the workflow clock from the
	// first attempt. Zero means no limit.
	RetryTimeout time.Duration

	// Error types that are never retried. Matched against every error type in the
	// failure's cause chain.
	NonRetryableErrorTypes []string
}

// Validate rejects negative durations, a coefficient below 1 and a maximum
// interval shorter than the initial one. Zero fields are valid and take defaults.
func (r *RetryPolicy) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil policy", ErrInvalidRetryPolicy)
	}
	switch {
	case r.InitialInterval < 0:
		return fmt.Errorf("%w: negative initial interval %s", ErrInvalidRetryPolicy, r.InitialInterval)
	case r.MaximumInterval < 0:
		return fmt.Errorf("%w: negative maximum interval %s", ErrInvalidRetryPolicy, r.MaximumInterval)
	case r.MaximumAttempts < 0:
		return fmt.Errorf("%w: negative maximum attempts %d", ErrInvalidRetryPolicy, r.MaximumAttempts)
	case r.RetryTimeout < 0:
		return fmt.Errorf("%w: negative retry timeout %s", ErrInvalidRetryPolicy, r.RetryTimeout)
	case r.BackoffCoefficient != 0 && r.BackoffCoefficient < 1:
		return fmt.Errorf("%w: backoff coefficient %v is below 1", ErrInvalidRetryPolicy, r.BackoffCoefficient)
	}
	p := r.withDefaults()
	if p.MaximumInterval < p.InitialInterval {
		return fmt.Errorf("%w: maximum interval %s is below initial interval %s",
			ErrInvalidRetryPolicy, p.MaximumInterval, p.InitialInterval)
	}
	return nil
}

func (r RetryPolicy) withDefaults() RetryPolicy {
	if r.InitialInterval == 0 {
		r.InitialInterval = DefaultInitialInterval
	}
	if r.BackoffCoefficient == 0 {
		r.BackoffCoefficient = DefaultBackoffCoefficient
	}
	if r.MaximumInterval == 0 {
		r.MaximumInterval = DefaultMaximumIntervalFactor * r.InitialInterval
	}
	return r
}

// NextDelay returns the delay to wait after the given failed attempt:
// min(InitialInterval * BackoffCoefficient^(attempt-1), MaximumInterval).
func (r *RetryPolicy) NextDelay(attempt int) time.Duration {
	p := r.withDefaults()
	if attempt < 1 {
		attempt = 1
	}
	next := float64(p.InitialInterval) * math.Pow(p.BackoffCoefficient, float64(attempt-1))
	// Guard the float to duration conversion against overflow.
	if next >= float64(p.MaximumInterval) || math.IsInf(next, 0) || math.IsNaN(next) {
		return p.MaximumInterval
	}
	return time.Duration(next)
}

// ShouldRetry reports whether another attempt is allowed after the given
// attempt failed with failure, totalRetryTime into the retry loop.
func (r *RetryPolicy) ShouldRetry(attempt int, totalRetryTime time.Duration, failure *api.FailureDetails) bool {
	if r.MaximumAttempts > 0 && attempt >= int(r.MaximumAttempts) {
		return false
	}
	if r.RetryTimeout > 0 && totalRetryTime > r.RetryTimeout {
		return false
	}
	if failure == nil {
		return true
	}
	if failure.IsNonRetriable {
		return false
	}
	return !slices.ContainsFunc(r.NonRetryableErrorTypes, failure.IsCausedBy)
}
