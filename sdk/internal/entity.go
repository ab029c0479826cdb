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
	"strings"
	"sync"

	"github.com/ngnhng/durabletask/api/serde"
)

// EntityState holds the durable state of an entity between operations.
type EntityState struct {
	mu    sync.RWMutex
	value any
	has   bool
}

func NewEntityState(initial any) *EntityState {
	return &EntityState{value: initial, has: initial != nil}
}

func (s *EntityState) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

func (s *EntityState) HasState() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.has
}

func (s *EntityState) SetState(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = v
	s.has = v != nil
}

// StateProvider is implemented by entities that expose their state.
type StateProvider interface {
	State() any
}

// EntityDispatcher invokes entity operations by name.
type EntityDispatcher struct {
	converter *serde.TypeConverter
}

// NewEntityDispatcher converts inputs through conv, MessagePack when nil.
func NewEntityDispatcher(conv serde.BinarySerde) *EntityDispatcher {
	return &EntityDispatcher{converter: serde.NewTypeConverter(conv)}
}

// Dispatch calls the method of target named operation, matched case
// insensitively, and normalizes whatever it returns.
//
// The method may take a context.Context first and at most one input
// argument, converted from input. A trailing error result is the operation's
// failure. Once the operation settles, the state of target is recorded into
// state: the result of its State method if it has one, the previous state
// otherwise.
func (d *EntityDispatcher) Dispatch(ctx context.Context, target any, state *EntityState, operation string, input any) (any, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: nil entity", ErrEntityOperationNotFound)
	}
	tv := reflect.ValueOf(target)
	method, ok := findMethod(tv, operation)
	if !ok {
		return nil, fmt.Errorf("%w: %T has no operation %q", ErrEntityOperationNotFound, target, operation)
	}
	mt := method.Type()

	args := make([]reflect.Value, 0, mt.NumIn())
	next := 0
	if mt.NumIn() > 0 && mt.In(0) == contextType {
		args = append(args, reflect.ValueOf(ctx))
		next++
	}
	switch mt.NumIn() - next {
	case 0:
	case 1:
		arg, err := d.converter.ConvertToType(input, mt.In(next))
		if err != nil {
			return nil, fmt.Errorf("convert input of operation %q: %w", operation, err)
		}
		args = append(args, arg)
	default:
		return nil, fmt.Errorf("operation %q takes %d inputs, at most one is supported", operation, mt.NumIn()-next)
	}

	outs := method.Call(args)

	if n := len(outs); n > 0 && mt.Out(n-1) == errorType {
		if errv := outs[n-1]; !errv.IsNil() {
			return nil, errv.Interface().(error)
		}
		outs = outs[:n-1]
	}

	var (
		result any
		shape  ResultShape
	)
	switch len(outs) {
	case 0:
		shape = ShapeNone
	case 1:
		shape = ShapeOf(mt.Out(0))
		result = outs[0].Interface()
	default:
		return nil, fmt.Errorf("operation %q returns %d values, at most one is supported", operation, len(outs))
	}

	getState := state.State
	if sp, ok := target.(StateProvider); ok {
		getState = sp.State
	}
	return UnwrapResult(ctx, state, getState, result, shape)
}

// DispatchEntityOperation dispatches with the default serde.
func DispatchEntityOperation(ctx context.Context, target any, state *EntityState, operation string, input any) (any, error) {
	return NewEntityDispatcher(nil).Dispatch(ctx, target, state, operation, input)
}

func findMethod(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := range t.NumMethod() {
		m := t.Method(i)
		if strings.EqualFold(m.Name, name) {
			return v.Method(i), true
		}
	}
	return reflect.Value{}, false
}
