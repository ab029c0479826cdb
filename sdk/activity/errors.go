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

package activity

import "github.com/ngnhng/durabletask/sdk/internal"

// NonRetryableError marks an activity failure that no retry policy retries.
type NonRetryableError = internal.NonRetryableError

func NewNonRetryableError(err error) *NonRetryableError {
	return internal.NewNonRetryableError(err)
}

// PanicError is the recorded failure of an activity that panicked.
type PanicError = internal.PanicError
