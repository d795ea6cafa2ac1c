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
	"fmt"
	"reflect"
	"strings"
)

// Unify returns the single Encoder able to write every element of a
// collection. Each non-null element is resolved on its own and the encoders
// are merged in first-seen order:
//
//   - no non-null elements (including an empty collection) yields the string
//     encoder, wrapped as nullable if a null was seen
//   - encoders with the same Name merge trivially
//   - collections merge when their components do, so an empty collection
//     takes the shape of its populated siblings and a nullable component
//     absorbs its non-nullable twin
//   - encoders that can't merge fail with CodeMixedElementTypes, and the
//     error's Kinds lists the conflicting encoder names
//
// Elements that fail to resolve fail the whole collection.
func Unify(elements []any) (Encoder, error) {
	var (
		found   []Encoder
		sawNull bool
	)
	for i, element := range elements {
		if IsNull(element) {
			sawNull = true
			continue
		}
		enc, err := Resolve(element)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		merged := false
		for j, f := range found {
			if m, ok := merge(f, enc); ok {
				found[j] = m
				merged = true
				break
			}
		}
		if !merged {
			found = append(found, enc)
		}
	}
	var enc Encoder
	switch len(found) {
	case 0:
		enc = newPlaceholderEncoder()
	case 1:
		enc = found[0]
	default:
		names := make([]string, len(found))
		for i, f := range found {
			names[i] = f.Name()
		}
		return nil, &Error{
			code:  CodeMixedElementTypes,
			err:   fmt.Errorf("collection mixes %s", strings.Join(names, ", ")),
			kinds: names,
		}
	}
	if sawNull {
		return nullable(enc), nil
	}
	return enc, nil
}

// unifyAs is Unify for the elements of a collection whose static element
// type is known. When no element contributes a shape, a concrete static
// type decides it instead of the string default.
func unifyAs(elements []any, static reflect.Type) (Encoder, error) {
	enc, err := Unify(elements)
	if err != nil || !isPlaceholder(enc) || static.Kind() == reflect.Interface {
		return enc, err
	}
	typed, err := ResolveType(static)
	if err != nil {
		// Interfaces further down, as in []map[string]any.
		return enc, nil //nolint:nilerr
	}
	if enc.Nullable() {
		return nullable(typed), nil
	}
	return typed, nil
}

// placeholderEncoder writes strings, but stands for a component no element
// gave a shape to. It merges with anything.
type placeholderEncoder struct {
	scalarEncoder
}

func newPlaceholderEncoder() *placeholderEncoder {
	return &placeholderEncoder{scalarEncoder{name: "string"}}
}

func isPlaceholder(enc Encoder) bool {
	if n, ok := enc.(*nullableEncoder); ok {
		enc = n.inner
	}
	_, ok := enc.(*placeholderEncoder)
	return ok
}

// merge returns an Encoder that writes everything a and b write, if one
// exists.
func merge(a, b Encoder) (Encoder, bool) {
	switch {
	case isPlaceholder(a):
		if a.Nullable() {
			return nullable(b), true
		}
		return b, true
	case isPlaceholder(b):
		if b.Nullable() {
			return nullable(a), true
		}
		return a, true
	}
	na, aNull := a.(*nullableEncoder)
	nb, bNull := b.(*nullableEncoder)
	if aNull || bNull {
		if aNull {
			a = na.inner
		}
		if bNull {
			b = nb.inner
		}
		m, ok := merge(a, b)
		if !ok {
			return nil, false
		}
		return nullable(m), true
	}
	switch x := a.(type) {
	case *sequenceEncoder:
		if y, ok := b.(*sequenceEncoder); ok {
			elem, ok := merge(x.elem, y.elem)
			if !ok {
				return nil, false
			}
			return &sequenceEncoder{elem: elem}, true
		}
	case *arrayEncoder:
		if y, ok := b.(*arrayEncoder); ok {
			elem, ok := merge(x.elem, y.elem)
			if !ok {
				return nil, false
			}
			return &arrayEncoder{elem: elem}, true
		}
	case *setEncoder:
		if y, ok := b.(*setEncoder); ok {
			elem, ok := merge(x.elem, y.elem)
			if !ok {
				return nil, false
			}
			return &setEncoder{elem: elem}, true
		}
	case *mappingEncoder:
		if y, ok := b.(*mappingEncoder); ok {
			key, keyOK := merge(x.key, y.key)
			value, valueOK := merge(x.value, y.value)
			if !keyOK || !valueOK {
				return nil, false
			}
			return &mappingEncoder{key: key, value: value}, true
		}
	case *entryEncoder:
		// Entries resolved from a static type resolve each pair as they
		// encode it, so they can write any entry.
		if y, ok := b.(*entryEncoder); ok && (x.key == nil || y.key == nil) {
			if x.key == nil {
				return a, true
			}
			return b, true
		}
	}
	if a.Name() == b.Name() {
		return a, true
	}
	return nil, false
}
