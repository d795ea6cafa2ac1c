// Copyright 2024 The Envelope Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package envelope

import (
	"net/http"

	"github.com/envelopekit/envelope/resolve"
)

// StatusOf returns the HTTP status code for a response. Validation failures
// are 422 Unprocessable Entity, an Either takes the status of its active
// branch and everything else is 200 OK.
//
// A response that can't be encoded at all, such as a nil Response or an
// Either with no active branch, maps to 500 Internal Server Error.
func StatusOf(r Response) int {
	if r == nil || resolve.IsNull(r) {
		return http.StatusInternalServerError
	}
	switch r.Variant() {
	case VariantError, VariantErrors:
		return http.StatusUnprocessableEntity
	case VariantEither:
		either, ok := r.(eitherResponse)
		if !ok {
			return http.StatusInternalServerError
		}
		branch := either.active()
		if branch == nil {
			return http.StatusInternalServerError
		}
		return StatusOf(branch)
	}
	return http.StatusOK
}
