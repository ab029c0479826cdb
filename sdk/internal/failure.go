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
	"errors"
	"fmt"

	"github.com/ngnhng/durabletask/api"
)

// NewFailureDetails snapshots err and its cause chain.
//
// A *TaskFailedError already carries the details recorded by the worker that
// ran the task, and those are returned as is.
func NewFailureDetails(err error) *api.FailureDetails {
	if err == nil {
		return nil
	}
	if tfe, ok := err.(*TaskFailedError); ok && tfe.Details != nil {
		return tfe.Details
	}

	fd := &api.FailureDetails{
		ErrorType:      errorTypeOf(err),
		Message:        err.Error(),
		IsNonRetriable: IsNonRetryable(err),
	}
	if st, ok := err.(interface{ StackTrace() string }); ok {
		fd.StackTrace = st.StackTrace()
	}
	fd.InnerFailure = NewFailureDetails(unwrapOne(err))
	return fd
}

func errorTypeOf(err error) string {
	if err == nil {
		return ""
	}
	if typed, ok := err.(interface{ ErrorType() string }); ok {
		if t := typed.ErrorType(); t != "" {
			return t
		}
	}
	return fmt.Sprintf("%T", err)
}

func unwrapOne(err error) error {
	if inner := errors.Unwrap(err); inner != nil {
		return inner
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := joined.Unwrap(); len(errs) > 0 {
			return errs[0]
		}
	}
	return nil
}
