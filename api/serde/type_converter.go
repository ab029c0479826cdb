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

package serde

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

var jsonNumberType = reflect.TypeOf(json.Number(""))

// TypeConverter turns values decoded from history back into the parameter
// and result types of registered functions. It converts directly where Go
// allows it and falls back to a round trip through its BinarySerde for
// structs, maps and slices.
type TypeConverter struct {
	serde BinarySerde
}

// NewTypeConverter creates a converter that round-trips through s.
func NewTypeConverter(s BinarySerde) *TypeConverter {
	if s == nil {
		s = &MsgpackSerde{}
	}
	return &TypeConverter{serde: s}
}

// ConvertToType converts value to targetType.
//
// A nil value yields the zero value of targetType, a nil pointer for pointer
// targets. A value of T converts to *T and a non-nil *T to T. Numbers keep
// their value or fail: a float with a fraction never becomes an integer and
// a number never becomes a string.
func (tc *TypeConverter) ConvertToType(value any, targetType reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(targetType), nil
	}

	v := reflect.ValueOf(value)
	valueType := v.Type()
	if valueType == targetType {
		return v, nil
	}

	switch {
	case targetType.Kind() == reflect.Pointer && valueType.Kind() != reflect.Pointer:
		elem, err := tc.ConvertToType(value, targetType.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(targetType.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	case valueType.Kind() == reflect.Pointer && targetType.Kind() != reflect.Pointer && targetType.Kind() != reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(targetType), nil
		}
		return tc.ConvertToType(v.Elem().Interface(), targetType)
	}

	if valueType == jsonNumberType && targetType != jsonNumberType {
		return tc.convertJSONNumber(value.(json.Number), targetType)
	}

	if isNumericKind(valueType.Kind()) && targetType.Kind() == reflect.String {
		return reflect.Value{}, fmt.Errorf("cannot convert number %v to %v", value, targetType)
	}

	if valueType.ConvertibleTo(targetType) {
		if isNumericKind(valueType.Kind()) && isNumericKind(targetType.Kind()) {
			return tc.convertNumeric(v, targetType)
		}
		return v.Convert(targetType), nil
	}

	return tc.convertViaSerializer(value, targetType)
}

// convertJSONNumber handles numbers decoded by a JsonSerde, which keeps
// them as json.Number so large integers survive.
func (tc *TypeConverter) convertJSONNumber(n json.Number, targetType reflect.Type) (reflect.Value, error) {
	kind := targetType.Kind()
	switch {
	case kind == reflect.String:
		return reflect.ValueOf(n.String()).Convert(targetType), nil
	case kind == reflect.Int || kind == reflect.Int8 || kind == reflect.Int16 || kind == reflect.Int32 || kind == reflect.Int64:
		if i, err := n.Int64(); err == nil {
			return tc.convertNumeric(reflect.ValueOf(i), targetType)
		}
	case kind == reflect.Uint || kind == reflect.Uint8 || kind == reflect.Uint16 || kind == reflect.Uint32 || kind == reflect.Uint64:
		if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return tc.convertNumeric(reflect.ValueOf(u), targetType)
		}
	case kind == reflect.Interface:
		if i, err := n.Int64(); err == nil {
			return reflect.ValueOf(i).Convert(targetType), nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return reflect.Value{}, fmt.Errorf("cannot convert %q to %v: %w", n, targetType, err)
	}
	if kind == reflect.Interface {
		return reflect.ValueOf(f).Convert(targetType), nil
	}
	return tc.convertNumeric(reflect.ValueOf(f), targetType)
}

// convertNumeric converts between numeric kinds, refusing to drop a
// fraction or to overflow the target.
func (tc *TypeConverter) convertNumeric(v reflect.Value, targetType reflect.Type) (reflect.Value, error) {
	if !isNumericKind(targetType.Kind()) {
		return reflect.Value{}, fmt.Errorf("cannot convert %v (%v) to %v", v.Interface(), v.Type(), targetType)
	}
	out := reflect.New(targetType).Elem()

	switch k := v.Kind(); {
	case k == reflect.Float32 || k == reflect.Float64:
		f := v.Float()
		if isIntegerKind(targetType.Kind()) {
			if f != float64(int64(f)) {
				return reflect.Value{}, fmt.Errorf("cannot convert %v to %v without losing precision", f, targetType)
			}
			return tc.convertNumeric(reflect.ValueOf(int64(f)), targetType)
		}
		out.SetFloat(f)
		return out, nil
	case isUnsignedKind(k):
		u := v.Uint()
		switch {
		case isUnsignedKind(targetType.Kind()):
			if out.OverflowUint(u) {
				return reflect.Value{}, fmt.Errorf("%d overflows %v", u, targetType)
			}
			out.SetUint(u)
		case isIntegerKind(targetType.Kind()):
			if u > 1<<63-1 || out.OverflowInt(int64(u)) {
				return reflect.Value{}, fmt.Errorf("%d overflows %v", u, targetType)
			}
			out.SetInt(int64(u))
		default:
			out.SetFloat(float64(u))
		}
		return out, nil
	default:
		i := v.Int()
		switch {
		case isUnsignedKind(targetType.Kind()):
			if i < 0 || out.OverflowUint(uint64(i)) {
				return reflect.Value{}, fmt.Errorf("%d overflows %v", i, targetType)
			}
			out.SetUint(uint64(i))
		case isIntegerKind(targetType.Kind()):
			if out.OverflowInt(i) {
				return reflect.Value{}, fmt.Errorf("%d overflows %v", i, targetType)
			}
			out.SetInt(i)
		default:
			out.SetFloat(float64(i))
		}
		return out, nil
	}
}

// convertViaSerializer encodes value and decodes it into a fresh targetType.
func (tc *TypeConverter) convertViaSerializer(value any, targetType reflect.Type) (reflect.Value, error) {
	data, err := tc.serde.SerializeBinary(value)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("failed to serialize value for type conversion: %w", err)
	}

	isPtr := targetType.Kind() == reflect.Pointer
	var target reflect.Value
	if isPtr {
		target = reflect.New(targetType.Elem())
	} else {
		target = reflect.New(targetType)
	}
	if err := tc.serde.DeserializeBinary(data, target.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("failed to deserialize value to %v: %w", targetType, err)
	}
	if isPtr {
		return target, nil
	}
	return target.Elem(), nil
}

// ConvertSlice converts each value to targetElemType.
func (tc *TypeConverter) ConvertSlice(values []any, targetElemType reflect.Type) ([]reflect.Value, error) {
	result := make([]reflect.Value, len(values))
	for i, val := range values {
		converted, err := tc.ConvertToType(val, targetElemType)
		if err != nil {
			return nil, fmt.Errorf("failed to convert element %d: %w", i, err)
		}
		result[i] = converted
	}
	return result, nil
}

// Assign stores value into the variable valuePtr points to.
func (tc *TypeConverter) Assign(value any, valuePtr any) error {
	ptr := reflect.ValueOf(valuePtr)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer, got %T", valuePtr)
	}
	if value == nil {
		return nil
	}
	converted, err := tc.ConvertToType(value, ptr.Elem().Type())
	if err != nil {
		return err
	}
	ptr.Elem().Set(converted)
	return nil
}

func isNumericKind(k reflect.Kind) bool {
	return isIntegerKind(k) || k == reflect.Float32 || k == reflect.Float64
}

func isIntegerKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return isUnsignedKind(k)
}

func isUnsignedKind(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}
