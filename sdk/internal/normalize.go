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
)

// ResultShape tells the normalizer how an operation delivers its result.
type ResultShape int

const (
	// ShapeNone: the operation returns nothing.
	ShapeNone ResultShape = iota
	// ShapeValue: the operation returned its value directly.
	ShapeValue
	// ShapeAsync: a Waiter without a value, such as *Completion.
	ShapeAsync
	// ShapeAsyncValue: a ValueAwaiter, such as *Task[T].
	ShapeAsyncValue
	// ShapeChanAsync: a receive channel of error. Closing it without a value means success.
	ShapeChanAsync
	// ShapeChanAsyncValue: a receive channel of Result[T].
	ShapeChanAsyncValue
)

func (s ResultShape) String() string {
	switch s {
	case ShapeNone:
		return "none"
	case ShapeValue:
		return "value"
	case ShapeAsync:
		return "async"
	case ShapeAsyncValue:
		return "async-value"
	case ShapeChanAsync:
		return "chan-async"
	case ShapeChanAsyncValue:
		return "chan-async-value"
	default:
		return fmt.Sprintf("ResultShape(%d)", int(s))
	}
}

type resultUnpacker interface {
	Unpack() (any, error)
}

var (
	waiterType       = reflect.TypeFor[Waiter]()
	valueAwaiterType = reflect.TypeFor[ValueAwaiter]()
	unpackerType     = reflect.TypeFor[resultUnpacker]()
	errorType        = reflect.TypeFor[error]()
	contextType      = reflect.TypeFor[context.Context]()
)

// ShapeOf classifies a declared result type. A nil type means no result.
func ShapeOf(t reflect.Type) ResultShape {
	switch {
	case t == nil:
		return ShapeNone
	case t.Implements(valueAwaiterType):
		return ShapeAsyncValue
	case t.Implements(waiterType):
		return ShapeAsync
	case t.Kind() == reflect.Chan && t.ChanDir()&reflect.RecvDir != 0:
		if t.Elem() == errorType {
			return ShapeChanAsync
		}
		if t.Elem().Implements(unpackerType) {
			return ShapeChanAsyncValue
		}
	}
	return ShapeValue
}

// UnwrapResult waits for result according to shape and returns its value.
//
// getState is called only after the operation has settled successfully and
// its return value is stored into state, so the snapshot includes every
// change the operation made while it was suspended. A failure of the
// operation is returned as the very same error value and leaves state
// untouched.
func UnwrapResult(ctx context.Context, state *EntityState, getState func() any, result any, shape ResultShape) (any, error) {
	var value any

	switch shape {
	case ShapeNone:
	case ShapeValue:
		value = result
	case ShapeAsync:
		w, ok := result.(Waiter)
		if !ok || isNil(result) {
			return nil, shapeMismatch(result, shape)
		}
		if err := w.Wait(ctx); err != nil {
			return nil, err
		}
	case ShapeAsyncValue:
		a, ok := result.(ValueAwaiter)
		if !ok || isNil(result) {
			return nil, shapeMismatch(result, shape)
		}
		v, err := a.AwaitAny(ctx)
		if err != nil {
			return nil, err
		}
		value = v
	case ShapeChanAsync:
		recv, ok, err := receive(ctx, result, shape)
		if err != nil {
			return nil, err
		}
		if ok && !recv.IsNil() {
			return nil, recv.Interface().(error)
		}
	case ShapeChanAsyncValue:
		recv, ok, err := receive(ctx, result, shape)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrResultChannelClosed
		}
		v, err := recv.Interface().(resultUnpacker).Unpack()
		if err != nil {
			return nil, err
		}
		value = v
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownResultShape, shape)
	}

	if state != nil && getState != nil {
		state.SetState(getState())
	}
	return value, nil
}

// UnwrapTask is UnwrapResult for a result whose type is known statically.
func UnwrapTask[T any](ctx context.Context, state *EntityState, getState func() any, t *Task[T]) (T, error) {
	v, err := t.Await(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if state != nil && getState != nil {
		state.SetState(getState())
	}
	return v, nil
}

func receive(ctx context.Context, ch any, shape ResultShape) (reflect.Value, bool, error) {
	cv := reflect.ValueOf(ch)
	if cv.Kind() != reflect.Chan || cv.Type().ChanDir()&reflect.RecvDir == 0 || cv.IsNil() {
		return reflect.Value{}, false, shapeMismatch(ch, shape)
	}
	chosen, recv, ok := reflect.Select([]reflect.SelectCase{
		{Dir: reflect.SelectRecv, Chan: cv},
		{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())},
	})
	if chosen == 1 {
		return reflect.Value{}, false, ctx.Err()
	}
	return recv, ok, nil
}

// isNil reports whether v is nil or an interface holding a nil pointer,
// map, slice, channel or func.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func shapeMismatch(result any, shape ResultShape) error {
	return fmt.Errorf("%w: %T is not a %s result", ErrUnknownResultShape, result, shape)
}
