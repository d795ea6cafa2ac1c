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
	"testing"

	"github.com/envelopekit/envelope/internal/assert"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestUnify(t *testing.T) {
	t.Parallel()
	t.Run("homogeneous", func(t *testing.T) {
		t.Parallel()
		enc, err := Unify([]any{1, 2, 3})
		assert.Nil(t, err)
		assert.Equal(t, enc.Name(), "int")
		assert.False(t, enc.Nullable())
	})
	t.Run("empty defaults to string", func(t *testing.T) {
		t.Parallel()
		enc, err := Unify(nil)
		assert.Nil(t, err)
		assert.Equal(t, enc.Kind(), KindScalar)
		assert.Equal(t, enc.Name(), "string")
	})
	t.Run("all null defaults to nullable string", func(t *testing.T) {
		t.Parallel()
		enc, err := Unify([]any{nil, (*int)(nil)})
		assert.Nil(t, err)
		assert.Equal(t, enc.Kind(), KindNullable)
		assert.Equal(t, enc.Name(), "string?")
		node, err := enc.Encode(nil)
		assert.Nil(t, err)
		assert.Document(t, node, `null`)
	})
	t.Run("nulls wrap once", func(t *testing.T) {
		t.Parallel()
		enc, err := Unify([]any{nil, "a", nil, "b"})
		assert.Nil(t, err)
		assert.Equal(t, enc.Name(), "string?")
	})
	t.Run("nullable encoder isn't wrapped", func(t *testing.T) {
		t.Parallel()
		enc, err := Unify([]any{structpb.NewBoolValue(true), nil})
		assert.Nil(t, err)
		assert.Equal(t, enc.Kind(), KindDocument)
		assert.Equal(t, enc.Name(), "document")
	})
	t.Run("mixed", func(t *testing.T) {
		t.Parallel()
		_, err := Unify([]any{1, "a", 2, true, "b"})
		assert.Equal(t, CodeOf(err), CodeMixedElementTypes)
		resolveErr, ok := asError(err)
		assert.True(t, ok)
		assert.Equal(t, resolveErr.Kinds(), []string{"int", "string", "bool"})
	})
	t.Run("mixed widths", func(t *testing.T) {
		t.Parallel()
		_, err := Unify([]any{1, int64(1)})
		assert.Equal(t, CodeOf(err), CodeMixedElementTypes)
	})
	t.Run("empty list takes its static element type", func(t *testing.T) {
		t.Parallel()
		enc, err := Unify([]any{[]int{}, []int{1}})
		assert.Nil(t, err)
		assert.Equal(t, enc.Name(), "list<int>")
	})
	t.Run("empty list merges with populated siblings", func(t *testing.T) {
		t.Parallel()
		enc, err := Unify([]any{[]any{}, []any{1, 2}, []any{}})
		assert.Nil(t, err)
		assert.Equal(t, enc.Name(), "list<int>")
		node, err := enc.Encode([]any{})
		assert.Nil(t, err)
		assert.Document(t, node, `[]`)
	})
	t.Run("empty map merges with populated siblings", func(t *testing.T) {
		t.Parallel()
		enc, err := Unify([]any{map[string]any{}, map[string]any{"a": 1}})
		assert.Nil(t, err)
		assert.Equal(t, enc.Name(), "map<string,int>")
	})
	t.Run("nullable component absorbs its twin", func(t *testing.T) {
		t.Parallel()
		one := 1
		enc, err := Unify([]any{[]*int{&one}, []*int{nil, &one}})
		assert.Nil(t, err)
		assert.Equal(t, enc.Name(), "list<int?>")
	})
	t.Run("populated lists of different types still conflict", func(t *testing.T) {
		t.Parallel()
		_, err := Unify([]any{[]int{}, []int{1}, []string{"a"}})
		assert.Equal(t, CodeOf(err), CodeMixedElementTypes)
		resolveErr, ok := asError(err)
		assert.True(t, ok)
		assert.Equal(t, resolveErr.Kinds(), []string{"list<int>", "list<string>"})
	})
	t.Run("element failure propagates", func(t *testing.T) {
		t.Parallel()
		_, err := Unify([]any{"a", make(chan int)})
		assert.Equal(t, CodeOf(err), CodeUnresolvableType)
		assert.Match(t, err.Error(), `element 1`)
	})
}
