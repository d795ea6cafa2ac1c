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
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type sequenceEncoder struct {
	elem Encoder
}

func (e *sequenceEncoder) Kind() Kind     { return KindSequence }
func (e *sequenceEncoder) Name() string   { return "list<" + e.elem.Name() + ">" }
func (e *sequenceEncoder) Nullable() bool { return false }

func (e *sequenceEncoder) Encode(value any) (*structpb.Value, error) {
	rv, ok := indirect(reflect.ValueOf(value))
	if !ok {
		return nil, errNull(e)
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, errMismatch(e, value)
	}
	return encodeList(e.elem, rv)
}

// arrayEncoder is a sequence whose element encoder came from the array's
// static component type rather than from its elements.
type arrayEncoder struct {
	elem Encoder
}

func (e *arrayEncoder) Kind() Kind     { return KindFixedArray }
func (e *arrayEncoder) Name() string   { return "array<" + e.elem.Name() + ">" }
func (e *arrayEncoder) Nullable() bool { return false }

func (e *arrayEncoder) Encode(value any) (*structpb.Value, error) {
	rv, ok := indirect(reflect.ValueOf(value))
	if !ok {
		return nil, errNull(e)
	}
	if rv.Kind() != reflect.Array {
		return nil, errMismatch(e, value)
	}
	return encodeList(e.elem, rv)
}

func encodeList(elem Encoder, rv reflect.Value) (*structpb.Value, error) {
	values := make([]*structpb.Value, rv.Len())
	for i := range values {
		node, err := elem.Encode(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		values[i] = node
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values}), nil
}

// setEncoder writes the keys of a map[K]struct{} as an array. Sets have no
// order, so elements are sorted to keep the output stable.
type setEncoder struct {
	elem Encoder
}

func (e *setEncoder) Kind() Kind     { return KindSet }
func (e *setEncoder) Name() string   { return "set<" + e.elem.Name() + ">" }
func (e *setEncoder) Nullable() bool { return false }

func (e *setEncoder) Encode(value any) (*structpb.Value, error) {
	rv, ok := indirect(reflect.ValueOf(value))
	if !ok {
		return nil, errNull(e)
	}
	if rv.Kind() != reflect.Map {
		return nil, errMismatch(e, value)
	}
	values := make([]*structpb.Value, 0, rv.Len())
	for _, key := range rv.MapKeys() {
		node, err := e.elem.Encode(key.Interface())
		if err != nil {
			return nil, fmt.Errorf("set element: %w", err)
		}
		values = append(values, node)
	}
	sort.Slice(values, func(i, j int) bool {
		return compareNodes(values[i], values[j]) < 0
	})
	return structpb.NewListValue(&structpb.ListValue{Values: values}), nil
}

func isSet(t reflect.Type) bool {
	elem := t.Elem()
	return elem.Kind() == reflect.Struct && elem.NumField() == 0
}

type mappingEncoder struct {
	key   Encoder
	value Encoder
}

func (e *mappingEncoder) Kind() Kind { return KindMapping }
func (e *mappingEncoder) Name() string {
	return "map<" + e.key.Name() + "," + e.value.Name() + ">"
}
func (e *mappingEncoder) Nullable() bool { return false }

func (e *mappingEncoder) Encode(value any) (*structpb.Value, error) {
	rv, ok := indirect(reflect.ValueOf(value))
	if !ok {
		return nil, errNull(e)
	}
	if rv.Kind() != reflect.Map {
		return nil, errMismatch(e, value)
	}
	fields := make(map[string]*structpb.Value, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		name, err := encodeKey(e.key, iter.Key().Interface())
		if err != nil {
			return nil, err
		}
		if _, ok := fields[name]; ok {
			return nil, errorf(CodeUnrepresentable, "map keys collide on %q", name)
		}
		node, err := e.value.Encode(iter.Value().Interface())
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", name, err)
		}
		fields[name] = node
	}
	return structpb.NewStructValue(&structpb.Struct{Fields: fields}), nil
}

// entryEncoder writes a KeyValue as a one-entry object. Entries resolved
// from a static type have no key or value encoder and resolve both halves
// when encoding.
type entryEncoder struct {
	name  string
	key   Encoder
	value Encoder
}

func (e *entryEncoder) Kind() Kind { return KindMapEntry }
func (e *entryEncoder) Name() string {
	if e.name != "" {
		return e.name
	}
	return "entry<" + e.key.Name() + "," + e.value.Name() + ">"
}
func (e *entryEncoder) Nullable() bool { return false }

func (e *entryEncoder) Encode(value any) (*structpb.Value, error) {
	pair, ok := lookup[KeyValue](value)
	if !ok {
		return nil, errMismatch(e, value)
	}
	key, val := pair.EntryKey(), pair.EntryValue()
	if err := checkEntry(key, val); err != nil {
		return nil, err
	}
	keyEncoder, valueEncoder := e.key, e.value
	if keyEncoder == nil || valueEncoder == nil {
		var err error
		if keyEncoder, err = Resolve(key); err != nil {
			return nil, err
		}
		if valueEncoder, err = Resolve(val); err != nil {
			return nil, err
		}
	}
	name, err := encodeKey(keyEncoder, key)
	if err != nil {
		return nil, err
	}
	node, err := valueEncoder.Encode(val)
	if err != nil {
		return nil, fmt.Errorf("key %q: %w", name, err)
	}
	return structpb.NewStructValue(&structpb.Struct{
		Fields: map[string]*structpb.Value{name: node},
	}), nil
}

func checkEntry(key, value any) error {
	if IsNull(key) {
		return errorf(CodeMissingKeyOrValue, "key/value pair has a nil key")
	}
	if IsNull(value) {
		return errorf(CodeMissingKeyOrValue, "key/value pair has a nil value")
	}
	return nil
}

// encodeKey renders a map key as an object member name. Only nodes with a
// natural text form qualify.
func encodeKey(enc Encoder, key any) (string, error) {
	node, err := enc.Encode(key)
	if err != nil {
		return "", fmt.Errorf("map key: %w", err)
	}
	switch kind := node.GetKind().(type) {
	case *structpb.Value_StringValue:
		return kind.StringValue, nil
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(kind.NumberValue, 'f', -1, 64), nil
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(kind.BoolValue), nil
	}
	return "", errorf(CodeUnrepresentable, "%s map key has no text form", enc.Name())
}

// compareNodes orders null < bool < number < string < list < object, then
// by value within a kind. Lists and objects compare by their deterministic
// binary form, which is arbitrary but stable.
func compareNodes(a, b *structpb.Value) int {
	if ra, rb := rank(a), rank(b); ra != rb {
		return ra - rb
	}
	switch a.GetKind().(type) {
	case *structpb.Value_BoolValue:
		x, y := a.GetBoolValue(), b.GetBoolValue()
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case *structpb.Value_NumberValue:
		x, y := a.GetNumberValue(), b.GetNumberValue()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case *structpb.Value_StringValue:
		return strings.Compare(a.GetStringValue(), b.GetStringValue())
	case *structpb.Value_NullValue:
		return 0
	}
	return bytes.Compare(canonicalBytes(a), canonicalBytes(b))
}

func rank(v *structpb.Value) int {
	switch v.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return 1
	case *structpb.Value_NumberValue:
		return 2
	case *structpb.Value_StringValue:
		return 3
	case *structpb.Value_ListValue:
		return 4
	case *structpb.Value_StructValue:
		return 5
	}
	return 0
}

func canonicalBytes(v *structpb.Value) []byte {
	data, err := proto.MarshalOptions{Deterministic: true}.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
