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

package assert

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/protobuf/types/known/structpb"
)

type pair struct {
	First, Second int
}

func TestAssertions(t *testing.T) {
	t.Parallel()

	t.Run("equal", func(t *testing.T) {
		t.Parallel()
		Equal(t, 1, 1, Sprintf("%v aren't equal", "ints"))
		NotEqual(t, 1, 2)
		Equal(t, pair{1, 2}, pair{1, 2})
	})

	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		Nil(t, nil)
		Nil(t, (*pair)(nil))
		Nil(t, (map[int]int)(nil))
		NotNil(t, &pair{})
		NotNil(t, 0)
		NotNil(t, pair{})
	})

	t.Run("error chain", func(t *testing.T) {
		t.Parallel()
		want := errors.New("base error")
		ErrorIs(t, fmt.Errorf("context: %w", want), want)
	})

	t.Run("regexp", func(t *testing.T) {
		t.Parallel()
		Match(t, "foobar", `^foo`)
	})

	t.Run("document", func(t *testing.T) {
		t.Parallel()
		node, err := structpb.NewValue(map[string]any{"b": []any{1, "x"}, "a": true})
		Nil(t, err)
		Document(t, node, `{"a": true, "b": [1, "x"]}`)
		Equal(t, node, structpb.NewStructValue(node.GetStructValue()))
	})
}
