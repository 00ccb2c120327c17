// Copyright 2026 rectune Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package base

import "github.com/juju/errors"

// Error taxonomy of the harness. Configuration and input errors fail fast
// before any work starts. Numerical fit errors are recovered at trial
// granularity. A leakage violation means held-out interactions reached a
// learning matrix and always aborts the whole run.
var (
	ErrEmptyInput           = errors.New("empty input")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrNumericalFit         = errors.New("numerical error during fit")
	ErrLeakageViolation     = errors.New("learn/predict leakage invariant violated")
)

// Must panics on error. Reserved for initialization that cannot fail at runtime.
func Must(err error) {
	if err != nil {
		panic(err)
	}
}
