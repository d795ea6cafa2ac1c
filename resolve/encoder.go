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
	"reflect"

	"google.golang.org/protobuf/types/known/structpb"
)

// An Encoder turns values of one resolved shape into document nodes.
// Encoders are built per call by Resolve, ResolveType and Unify and are
// never shared between calls.
type Encoder interface {
	// Kind is the strategy the encoder implements.
	Kind() Kind
	// Name identifies the encoder's kind and shape, for example
	// "list<string>" or "map<string,int>". Two encoders with the same name
	// produce the same document shape. Unify also merges collection
	// encoders whose names differ only in components that admit each other.
	Name() string
	// Nullable reports whether Encode accepts nil.
	Nullable() bool
	Encode(value any) (*structpb.Value, error)
}

// Marshaler is implemented by application types that build their own
// document node. The resolver prefers it over every other strategy except
// values that already are document nodes.
type Marshaler interface {
	MarshalDocument() (*structpb.Value, error)
}

// KeyValue is a single key/value pair, resolved to a one-entry object.
// Neither half may be nil.
type KeyValue interface {
	EntryKey() any
	EntryValue() any
}

// Entry is the KeyValue implementation for statically typed pairs.
type Entry[K, V any] struct {
	Key   K
	Value V
}

var _ KeyValue = Entry[string, any]{}

// NewEntry constructs an Entry.
func NewEntry[K, V any](key K, value V) Entry[K, V] {
	return Entry[K, V]{Key: key, Value: value}
}

// EntryKey implements KeyValue.
func (e Entry[K, V]) EntryKey() any { return e.Key }

// EntryValue implements KeyValue.
func (e Entry[K, V]) EntryValue() any { return e.Value }

// IsNull reports whether value is absent: an untyped nil, or a nil pointer or
// interface at any depth. Nil slices and maps are empty collections, not
// nulls.
func IsNull(value any) bool {
	_, ok := indirect(reflect.ValueOf(value))
	return !ok
}

// indirect strips pointers and interfaces. It returns false if it meets a nil.
func indirect(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return v, false
		}
		v = v.Elem()
	}
	return v, v.IsValid()
}

func errNull(enc Encoder) *Error {
	return errorf(CodeContractViolation, "%s encoder received null", enc.Name())
}

// nullableEncoder admits nil and delegates everything else.
type nullableEncoder struct {
	inner Encoder
}

func nullable(enc Encoder) Encoder {
	if enc.Nullable() {
		return enc
	}
	return &nullableEncoder{inner: enc}
}

func (e *nullableEncoder) Kind() Kind     { return KindNullable }
func (e *nullableEncoder) Name() string   { return e.inner.Name() + "?" }
func (e *nullableEncoder) Nullable() bool { return true }

func (e *nullableEncoder) Encode(value any) (*structpb.Value, error) {
	if IsNull(value) {
		return structpb.NewNullValue(), nil
	}
	return e.inner.Encode(value)
}
