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

package resolve

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/envelopekit/envelope/internal/assert"
)

func TestErrorFormatting(t *testing.T) {
	t.Parallel()
	assert.Equal(
		t,
		NewError(CodeUnrepresentable, errors.New("")).Error(),
		CodeUnrepresentable.String(),
		assert.Sprintf("no message"),
	)
	text := errorf(CodeUnresolvableType, "chan int").Error()
	assert.True(t, strings.HasPrefix(text, "unresolvable_type: "), assert.Sprintf("error text should start with code"))
	assert.True(t, strings.Contains(text, "chan int"), assert.Sprintf("error text should include message"))
}

func TestCodeOf(t *testing.T) {
	t.Parallel()
	wrapped := fmt.Errorf("encode listing: %w", errorf(CodeMissingKeyOrValue, "nil key"))
	assert.Equal(t, CodeOf(wrapped), CodeMissingKeyOrValue)
	assert.Equal(t, CodeOf(errors.New("plain")), CodeUnknown)
	assert.Equal(t, CodeOf(nil), CodeUnknown)
}

func TestErrorUnwrap(t *testing.T) {
	t.Parallel()
	cause := errors.New("boom")
	err := NewError(CodeContractViolation, cause)
	assert.ErrorIs(t, err, cause)
}

func TestErrorKinds(t *testing.T) {
	t.Parallel()
	err := &Error{code: CodeMixedElementTypes, err: errors.New("mixed"), kinds: []string{"int", "string"}}
	kinds := err.Kinds()
	assert.Equal(t, kinds, []string{"int", "string"})
	kinds[0] = "changed"
	assert.Equal(t, err.Kinds(), []string{"int", "string"}, assert.Sprintf("Kinds should return a copy"))
	assert.Nil(t, errorf(CodeUnrepresentable, "NaN").Kinds())
}

func TestStringers(t *testing.T) {
	t.Parallel()
	t.Run("codes", func(t *testing.T) {
		t.Parallel()
		for c := CodeUnknown; c <= CodeContractViolation; c++ {
			// Ensures that we don't forget to update the mapping in the
			// Stringer implementation.
			assert.False(t, strings.Contains(c.String(), "("), assert.Sprintf("update Code.String() for %d", c))
		}
		_ = Code(99).String() // shouldn't panic
	})
	t.Run("kinds", func(t *testing.T) {
		t.Parallel()
		seen := make(map[string]Kind)
		for k := minKind; k <= maxKind; k++ {
			name := k.String()
			assert.False(t, strings.Contains(name, "("), assert.Sprintf("update Kind.String() for %d", k))
			_, dup := seen[name]
			assert.False(t, dup, assert.Sprintf("duplicate kind name %q", name))
			seen[name] = k
		}
		assert.Equal(t, Kind(0).String(), "Kind(0)")
	})
}
