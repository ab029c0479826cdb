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
	"reflect"

	"github.com/ngnhng/durabletask/api/serde"
)

var _ Future = (*future)(nil)

// Future is the result of a command issued by a workflow.
//
// Get on a Future that has no recorded outcome yet suspends the workflow
// until the outcome lands in history; the call never returns in that case.
type Future interface {
	Get(ctx context.Context, valuePtr any) error
	IsReady() bool
}

type future struct {
	isResolved bool
	value      any
	err        error
	converter  serde.BinarySerde

	// interrupt, when set, is consulted before yielding on an unresolved
	// future. A non-nil error is returned from Get instead of suspending.
	interrupt func() error
}

// NewResolvedFuture returns a Future that is already settled with value or err.
// It is mostly useful for async retry handlers that decide without awaiting.
func NewResolvedFuture(value any, err error) Future {
	return &future{isResolved: true, value: value, err: err}
}

func (f *future) IsReady() bool { return f.isResolved }

func (f *future) Get(ctx context.Context, valuePtr any) error {
	if !f.isResolved {
		if f.interrupt != nil {
			if err := f.interrupt(); err != nil {
				return err
			}
		}
		panic(errorBlockingFuture{})
	}
	if f.err != nil {
		return f.err
	}
	return assignValue(f.converter, f.value, valuePtr)
}

// assignValue stores value into valuePtr. Values decoded from history come
// back as generic maps and numbers, so anything not directly assignable goes
// through a serde.TypeConverter.
func assignValue(conv serde.BinarySerde, value any, valuePtr any) error {
	if valuePtr == nil || value == nil {
		return nil
	}
	ptr := reflect.ValueOf(valuePtr)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
		return fmt.Errorf("result target must be a non-nil pointer, got %T", valuePtr)
	}
	target := ptr.Elem()
	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(target.Type()) {
		target.Set(v)
		return nil
	}

	if err := serde.NewTypeConverter(conv).Assign(value, valuePtr); err != nil {
		return fmt.Errorf("failed to convert result into %s: %w", target.Type(), err)
	}
	return nil
}
