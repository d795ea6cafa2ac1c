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
	"encoding/json"
	"fmt"
	"reflect"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	nodeType       = reflect.TypeOf((*structpb.Value)(nil))
	objectType     = reflect.TypeOf((*structpb.Struct)(nil))
	listType       = reflect.TypeOf((*structpb.ListValue)(nil))
	rawMessageType = reflect.TypeOf(json.RawMessage(nil))
	marshalerType  = reflect.TypeOf((*Marshaler)(nil)).Elem()
	messageType    = reflect.TypeOf((*proto.Message)(nil)).Elem()
	keyValueType   = reflect.TypeOf((*KeyValue)(nil)).Elem()
)

// Value resolves an Encoder for v and encodes v with it.
func Value(v any) (*structpb.Value, error) {
	enc, err := Resolve(v)
	if err != nil {
		return nil, err
	}
	return enc.Encode(v)
}

// Resolve inspects value and returns the Encoder for its runtime shape.
// Strategies are tried in a fixed order and the first match wins:
//
//  1. document nodes and Marshaler implementations
//  2. domain scalars: civil.Date, civil.DateTime, time.Time, language.Tag
//     and uuid.UUID, matched by exact type
//  3. slices, whose element encoder comes from Unify, or from the static
//     element type when no element has a shape
//  4. sets (map[K]struct{}), unified over their keys
//  5. other maps, unified over keys and values independently
//  6. KeyValue pairs, whose key and value must both be present
//  7. fixed-size arrays, resolved from the static component type
//  8. generated protobuf messages, structs and primitive kinds
//
// Pointers are followed; a typed nil pointer resolves from its static type
// to an encoder that writes null, or to a bare null encoder when the static
// type doesn't determine one. Values no strategy accepts, such as
// channels and funcs, fail with CodeUnresolvableType.
func Resolve(value any) (Encoder, error) {
	if value == nil {
		return nil, errorf(CodeUnresolvableType, "cannot resolve untyped nil")
	}
	rv := reflect.ValueOf(value)
	for {
		switch rv.Kind() {
		case reflect.Interface:
			if rv.IsNil() {
				return nil, errorf(CodeUnresolvableType, "cannot resolve nil %s", rv.Type())
			}
			rv = rv.Elem()
			continue
		case reflect.Pointer:
			if rv.IsNil() {
				if enc, err := ResolveType(rv.Type()); err == nil {
					return enc, nil
				}
				return nullable(newPlaceholderEncoder()), nil
			}
		}
		if enc, ok := typeEncoder(rv.Type()); ok {
			return enc, nil
		}
		if rv.Kind() != reflect.Pointer {
			return resolveShape(rv)
		}
		if pair, ok := rv.Interface().(KeyValue); ok {
			return resolveEntry(pair)
		}
		rv = rv.Elem()
	}
}

// ResolveType returns the Encoder for values of static type t without
// inspecting any value. Pointer types resolve to nullable encoders.
// Interface types carry no shape and fail with CodeUnresolvableType.
func ResolveType(t reflect.Type) (Encoder, error) {
	if t == nil {
		return nil, errorf(CodeUnresolvableType, "cannot resolve nil type")
	}
	if enc, ok := typeEncoder(t); ok {
		if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
			return nullable(enc), nil
		}
		return enc, nil
	}
	switch t.Kind() {
	case reflect.Pointer:
		elem, err := ResolveType(t.Elem())
		if err != nil {
			return nil, err
		}
		return nullable(elem), nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return bytesEncoder{}, nil
		}
		elem, err := ResolveType(t.Elem())
		if err != nil {
			return nil, err
		}
		return &sequenceEncoder{elem: elem}, nil
	case reflect.Map:
		key, err := ResolveType(t.Key())
		if err != nil {
			return nil, err
		}
		if isSet(t) {
			return &setEncoder{elem: key}, nil
		}
		value, err := ResolveType(t.Elem())
		if err != nil {
			return nil, err
		}
		return &mappingEncoder{key: key, value: value}, nil
	case reflect.Array:
		return resolveArray(t)
	case reflect.Interface:
		return nil, errorf(CodeUnresolvableType, "static type %s doesn't determine an encoding", t)
	case reflect.Struct:
		if t.Implements(keyValueType) {
			return &entryEncoder{name: "entry<" + t.String() + ">"}, nil
		}
		return newStructEncoder(t), nil
	}
	if isScalarKind(t.Kind()) {
		return &scalarEncoder{name: t.String()}, nil
	}
	return nil, errorf(CodeUnresolvableType, "no encoding for %s values", t)
}

// typeEncoder matches the strategies decided by type identity alone.
func typeEncoder(t reflect.Type) (Encoder, bool) {
	switch t {
	case nodeType, objectType, listType, rawMessageType:
		return documentEncoder{}, true
	}
	if t.Implements(marshalerType) {
		return &customEncoder{t: t}, true
	}
	if enc, ok := domainEncoder(t); ok {
		return enc, true
	}
	if t.Implements(messageType) {
		return &messageEncoder{t: t}, true
	}
	return nil, false
}

// resolveShape dispatches on the kind of a non-pointer value.
func resolveShape(rv reflect.Value) (Encoder, error) {
	t := rv.Type()
	switch t.Kind() {
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return bytesEncoder{}, nil
		}
		elements := make([]any, rv.Len())
		for i := range elements {
			elements[i] = rv.Index(i).Interface()
		}
		elem, err := unifyAs(elements, t.Elem())
		if err != nil {
			return nil, err
		}
		return &sequenceEncoder{elem: elem}, nil
	case reflect.Map:
		keys := make([]any, 0, rv.Len())
		values := make([]any, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			keys = append(keys, iter.Key().Interface())
			values = append(values, iter.Value().Interface())
		}
		key, err := unifyAs(keys, t.Key())
		if err != nil {
			return nil, fmt.Errorf("map keys: %w", err)
		}
		if isSet(t) {
			return &setEncoder{elem: key}, nil
		}
		value, err := unifyAs(values, t.Elem())
		if err != nil {
			return nil, fmt.Errorf("map values: %w", err)
		}
		return &mappingEncoder{key: key, value: value}, nil
	}
	if pair, ok := rv.Interface().(KeyValue); ok {
		return resolveEntry(pair)
	}
	switch t.Kind() {
	case reflect.Array:
		return resolveArray(t)
	case reflect.Struct:
		return newStructEncoder(t), nil
	}
	if isScalarKind(t.Kind()) {
		return &scalarEncoder{name: t.String()}, nil
	}
	return nil, errorf(CodeUnresolvableType, "no encoding for %s values", t)
}

func resolveEntry(pair KeyValue) (Encoder, error) {
	key, value := pair.EntryKey(), pair.EntryValue()
	if err := checkEntry(key, value); err != nil {
		return nil, err
	}
	keyEncoder, err := Resolve(key)
	if err != nil {
		return nil, fmt.Errorf("entry key: %w", err)
	}
	valueEncoder, err := Resolve(value)
	if err != nil {
		return nil, fmt.Errorf("entry value: %w", err)
	}
	return &entryEncoder{key: keyEncoder, value: valueEncoder}, nil
}

func resolveArray(t reflect.Type) (Encoder, error) {
	elem, err := ResolveType(t.Elem())
	if err != nil {
		return nil, fmt.Errorf("component of %s: %w", t, err)
	}
	return &arrayEncoder{elem: elem}, nil
}
