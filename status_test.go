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
	"testing"

	"github.com/envelopekit/envelope/internal/assert"
	"github.com/envelopekit/envelope/validation"
)

func TestStatusOf(t *testing.T) {
	t.Parallel()
	invalid := NewError(validation.New("invalid"))
	testCases := []struct {
		name     string
		response Response
		want     int
	}{
		{name: "ok", response: OK{}, want: http.StatusOK},
		{name: "data", response: NewData("x"), want: http.StatusOK},
		{name: "error", response: invalid, want: http.StatusUnprocessableEntity},
		{name: "error pointer", response: &invalid, want: http.StatusUnprocessableEntity},
		{name: "errors", response: NewErrors(validation.New("a"), validation.New("b")), want: http.StatusUnprocessableEntity},
		{name: "empty errors", response: NewErrors(), want: http.StatusUnprocessableEntity},
		{name: "listing", response: NewListing(ContinuousList[int]{}), want: http.StatusOK},
		{name: "file", response: File{Path: "a.txt"}, want: http.StatusOK},
		{name: "either error first", response: Left[Error, OK](invalid), want: http.StatusUnprocessableEntity},
		{name: "either ok first", response: Left[OK, Error](OK{}), want: http.StatusOK},
		{name: "either right error", response: Right[OK](invalid), want: http.StatusUnprocessableEntity},
		{name: "either right ok", response: Right[Error](OK{}), want: http.StatusOK},
		{
			name:     "nested either",
			response: Left[Either[OK, Errors], OK](Right[OK](NewErrors(validation.New("a")))),
			want:     http.StatusUnprocessableEntity,
		},
		{name: "either file", response: Right[Error](File{Path: "a.txt"}), want: http.StatusOK},
		{name: "either without branch", response: Either[Error, OK]{}, want: http.StatusInternalServerError},
		{name: "nil", response: nil, want: http.StatusInternalServerError},
		{name: "nil pointer", response: (*Errors)(nil), want: http.StatusInternalServerError},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, StatusOf(testCase.response), testCase.want)
		})
	}
}

func TestVariantString(t *testing.T) {
	t.Parallel()
	names := make(map[string]struct{})
	for v := minVariant; v <= maxVariant; v++ {
		name := v.String()
		assert.NotEqual(t, name, "", assert.Sprintf("variant %d", v))
		assert.False(t, len(name) > 8 && name[:8] == "Variant(", assert.Sprintf("variant %d is unnamed", v))
		names[name] = struct{}{}
	}
	assert.Equal(t, len(names), int(maxVariant-minVariant)+1)
	assert.Equal(t, Variant(0).String(), "Variant(0)")
	assert.Equal(t, Variant(200).String(), "Variant(200)")
}

func TestEitherBranches(t *testing.T) {
	t.Parallel()
	left := Left[Error, OK](NewError(validation.New("x")))
	assert.True(t, left.IsLeft())
	assert.False(t, left.IsRight())
	assert.Equal(t, left.Active().Variant(), VariantError)

	right := Right[Error](OK{})
	assert.True(t, right.IsRight())
	assert.Equal(t, right.Active().Variant(), VariantOK)

	var zero Either[Error, OK]
	assert.False(t, zero.IsLeft())
	assert.False(t, zero.IsRight())
	assert.Nil(t, zero.Active())
}
