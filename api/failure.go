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

package api

import "strings"

// FailureDetails is a snapshot of a failed attempt. It is recorded into history
// and must be treated as immutable once built.
type FailureDetails struct {
	ErrorType      string          `json:"type" msgpack:"type"`
	Message        string          `json:"message" msgpack:"message"`
	StackTrace     string          `json:"stack,omitempty" msgpack:"stack,omitempty"`
	InnerFailure   *FailureDetails `json:"inner,omitempty" msgpack:"inner,omitempty"`
	IsNonRetriable bool            `json:"non_retriable,omitempty" msgpack:"non_retriable,omitempty"`
}

// IsCausedBy reports whether this failure, or any failure in its cause chain,
// has the given error type.
func (f *FailureDetails) IsCausedBy(errorType string) bool {
	for cur := f; cur != nil; cur = cur.InnerFailure {
		if cur.ErrorType == errorType {
			return true
		}
	}
	return false
}

func (f *FailureDetails) String() string {
	if f == nil {
		return "<nil>"
	}
	var b strings.Builder
	for cur := f; cur != nil; cur = cur.InnerFailure {
		if cur != f {
			b.WriteString(" <- ")
		}
		b.WriteString(cur.ErrorType)
		b.WriteString(": ")
		b.WriteString(cur.Message)
	}
	return b.String()
}
