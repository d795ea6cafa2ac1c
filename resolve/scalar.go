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
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"golang.org/x/text/language"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// scalarEncoder handles bool, string and numeric kinds, including named
// types built on them. Every number becomes a float64, so integers beyond
// 2^53 lose precision exactly as they would in any JSON document.
type scalarEncoder struct {
	name string
}

var _ Encoder = (*scalarEncoder)(nil)

func newStringEncoder() *scalarEncoder {
	return &scalarEncoder{name: "string"}
}

func (e *scalarEncoder) Kind() Kind     { return KindScalar }
func (e *scalarEncoder) Name() string   { return e.name }
func (e *scalarEncoder) Nullable() bool { return false }

func (e *scalarEncoder) Encode(value any) (*structpb.Value, error) {
	rv, ok := indirect(reflect.ValueOf(value))
	if !ok {
		return nil, errNull(e)
	}
	switch rv.Kind() {
	case reflect.Bool:
		return structpb.NewBoolValue(rv.Bool()), nil
	case reflect.String:
		return structpb.NewStringValue(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return structpb.NewNumberValue(float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return structpb.NewNumberValue(float64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errorf(CodeUnrepresentable, "%v can't be written as a document number", f)
		}
		return structpb.NewNumberValue(f), nil
	}
	return nil, errMismatch(e, value)
}

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// bytesEncoder writes byte slices as standard base64 strings.
type bytesEncoder struct{}

func (bytesEncoder) Kind() Kind     { return KindScalar }
func (bytesEncoder) Name() string   { return "bytes" }
func (bytesEncoder) Nullable() bool { return false }

func (e bytesEncoder) Encode(value any) (*structpb.Value, error) {
	rv, ok := indirect(reflect.ValueOf(value))
	if !ok {
		return nil, errNull(e)
	}
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() != reflect.Uint8 {
		return nil, errMismatch(e, value)
	}
	return structpb.NewStringValue(base64.StdEncoding.EncodeToString(rv.Bytes())), nil
}

// textEncoder renders a domain scalar with a fixed textual format.
type textEncoder[T any] struct {
	kind Kind
	text func(T) string
}

func (e *textEncoder[T]) Kind() Kind     { return e.kind }
func (e *textEncoder[T]) Name() string   { return e.kind.String() }
func (e *textEncoder[T]) Nullable() bool { return false }

func (e *textEncoder[T]) Encode(value any) (*structpb.Value, error) {
	v, ok := lookup[T](value)
	if !ok {
		return nil, errMismatch(e, value)
	}
	return structpb.NewStringValue(e.text(v)), nil
}

var (
	dateType      = reflect.TypeOf(civil.Date{})
	dateTimeType  = reflect.TypeOf(civil.DateTime{})
	timestampType = reflect.TypeOf(time.Time{})
	localeType    = reflect.TypeOf(language.Tag{})
	uniqueIDType  = reflect.TypeOf(uuid.UUID{})
)

func domainEncoder(t reflect.Type) (Encoder, bool) {
	switch t {
	case dateType:
		return &textEncoder[civil.Date]{kind: KindDate, text: civil.Date.String}, true
	case dateTimeType:
		return &textEncoder[civil.DateTime]{kind: KindDateTime, text: civil.DateTime.String}, true
	case timestampType:
		return &textEncoder[time.Time]{kind: KindTimestamp, text: func(t time.Time) string {
			return t.Format(time.RFC3339Nano)
		}}, true
	case localeType:
		return &textEncoder[language.Tag]{kind: KindLocale, text: language.Tag.String}, true
	case uniqueIDType:
		return &textEncoder[uuid.UUID]{kind: KindUniqueID, text: uuid.UUID.String}, true
	}
	return nil, false
}

// documentEncoder passes document nodes through untouched. JSON null is a
// document too, so it admits nil.
type documentEncoder struct{}

func (documentEncoder) Kind() Kind     { return KindDocument }
func (documentEncoder) Name() string   { return "document" }
func (documentEncoder) Nullable() bool { return true }

func (e documentEncoder) Encode(value any) (*structpb.Value, error) {
	if IsNull(value) {
		return structpb.NewNullValue(), nil
	}
	if node, ok := lookup[*structpb.Value](value); ok {
		return node, nil
	}
	if node, ok := lookup[*structpb.Struct](value); ok {
		return structpb.NewStructValue(node), nil
	}
	if node, ok := lookup[*structpb.ListValue](value); ok {
		return structpb.NewListValue(node), nil
	}
	if raw, ok := lookup[json.RawMessage](value); ok {
		if len(bytes.TrimSpace(raw)) == 0 {
			return structpb.NewNullValue(), nil
		}
		node := &structpb.Value{}
		if err := protojson.Unmarshal(raw, node); err != nil {
			return nil, NewError(CodeUnrepresentable, fmt.Errorf("raw JSON: %w", err))
		}
		return node, nil
	}
	return nil, errMismatch(e, value)
}

// customEncoder defers to the value's own Marshaler implementation.
type customEncoder struct {
	t reflect.Type
}

func (e *customEncoder) Kind() Kind     { return KindCustom }
func (e *customEncoder) Name() string   { return e.t.String() }
func (e *customEncoder) Nullable() bool { return false }

func (e *customEncoder) Encode(value any) (*structpb.Value, error) {
	marshaler, ok := lookup[Marshaler](value)
	if !ok {
		return nil, errMismatch(e, value)
	}
	node, err := marshaler.MarshalDocument()
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", e.t, err)
	}
	if node == nil {
		return structpb.NewNullValue(), nil
	}
	return node, nil
}

// messageEncoder writes generated protobuf messages using the canonical
// protobuf JSON mapping.
type messageEncoder struct {
	t reflect.Type
}

func (e *messageEncoder) Kind() Kind     { return KindMessage }
func (e *messageEncoder) Name() string   { return e.t.String() }
func (e *messageEncoder) Nullable() bool { return false }

func (e *messageEncoder) Encode(value any) (*structpb.Value, error) {
	message, ok := lookup[proto.Message](value)
	if !ok {
		return nil, errMismatch(e, value)
	}
	data, err := protojson.Marshal(message)
	if err != nil {
		return nil, NewError(CodeUnrepresentable, fmt.Errorf("marshal %s: %w", e.t, err))
	}
	node := &structpb.Value{}
	if err := protojson.Unmarshal(data, node); err != nil {
		return nil, NewError(CodeUnrepresentable, fmt.Errorf("reparse %s: %w", e.t, err))
	}
	return node, nil
}

// lookup walks pointers and interfaces until it reaches a value of type T.
// It stops at the first nil.
func lookup[T any](value any) (T, bool) {
	var zero T
	rv := reflect.ValueOf(value)
	for rv.IsValid() {
		isRef := rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface
		if isRef && rv.IsNil() {
			return zero, false
		}
		if rv.CanInterface() {
			if v, ok := rv.Interface().(T); ok {
				return v, true
			}
		}
		if !isRef {
			break
		}
		rv = rv.Elem()
	}
	return zero, false
}

func errMismatch(enc Encoder, value any) *Error {
	if IsNull(value) {
		return errNull(enc)
	}
	return errorf(CodeContractViolation, "%s encoder received %T", enc.Name(), value)
}
