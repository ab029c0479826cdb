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
	"sync"
)

func newInMemoryRegistry() *hashMapRegistry {
	return &hashMapRegistry{
		entries: make(map[string]any),
	}
}

// hashMapRegistry maps function names to registered workflow or activity
// functions.
type hashMapRegistry struct {
	mu      sync.RWMutex
	entries map[string]any
}

func (m *hashMapRegistry) get(k string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[k]
	if !ok {
		return nil, fmt.Errorf("key %v have no value", k)
	}

	return entry, nil
}

func (m *hashMapRegistry) set(k string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[k]; ok {
		return fmt.Errorf("key %v is already registered", k)
	}

	if v == nil || reflect.TypeOf(v).Kind() != reflect.Func {
		return fmt.Errorf("entry '%s' is not a function", k)
	}

	m.entries[k] = v

	return nil
}

func (m *hashMapRegistry) size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.entries))
}
