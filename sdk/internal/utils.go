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
	"reflect"
	"runtime"
)

// functionName returns the registry key of fn: its full package qualified
// name, or fn itself when it is already a string.
func functionName(fn any) (string, error) {
	if name, ok := fn.(string); ok {
		if name == "" {
			return "", fmt.Errorf("empty function name")
		}
		return name, nil
	}
	if fn == nil || reflect.TypeOf(fn).Kind() != reflect.Func {
		return "", fmt.Errorf("fn is not of function type: %T", fn)
	}
	fnObj := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if fnObj == nil {
		return "", fmt.Errorf("could not retrieve function metadata")
	}
	return fnObj.Name(), nil
}

// splitResults separates the conventional (value, error) results of a
// reflective call. A function returning only an error yields a nil value.
func splitResults(vals []reflect.Value) (any, error) {
	if len(vals) == 0 {
		return nil, nil
	}
	var err error
	last := vals[len(vals)-1]
	if last.Type() == errorType {
		if !last.IsNil() {
			err = last.Interface().(error)
		}
		vals = vals[:len(vals)-1]
	}
	if len(vals) == 0 {
		return nil, err
	}
	return vals[0].Interface(), err
}
