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

	"google.golang.org/protobuf/types/known/structpb"
)

// structField describes one member of a structural encoding.
type structField struct {
	name      string
	index     []int
	omitEmpty bool
}

// structEncoder writes exported struct fields as object members, following
// the encoding/json tag conventions: `json:"-"` skips a field, a tag name
// renames it, omitempty drops zero values and embedded structs without a
// tag name are flattened into the parent. Field values are resolved one by
// one when encoding, so interface-typed fields get the same dynamic
// treatment as top-level values.
type structEncoder struct {
	t      reflect.Type
	fields []structField
}

func newStructEncoder(t reflect.Type) *structEncoder {
	return &structEncoder{t: t, fields: structFields(t)}
}

func (e *structEncoder) Kind() Kind     { return KindStructural }
func (e *structEncoder) Name() string   { return e.t.String() }
func (e *structEncoder) Nullable() bool { return false }

func (e *structEncoder) Encode(value any) (*structpb.Value, error) {
	rv, ok := indirect(reflect.ValueOf(value))
	if !ok {
		return nil, errNull(e)
	}
	if rv.Type() != e.t {
		return nil, errMismatch(e, value)
	}
	fields := make(map[string]*structpb.Value, len(e.fields))
	for _, field := range e.fields {
		fv, err := rv.FieldByIndexErr(field.index)
		if err != nil {
			// Promoted through a nil embedded pointer.
			continue
		}
		if field.omitEmpty && isEmptyValue(fv) {
			continue
		}
		member := fv.Interface()
		if IsNull(member) {
			fields[field.name] = structpb.NewNullValue()
			continue
		}
		node, err := Value(member)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", e.t.Name(), field.name, err)
		}
		fields[field.name] = node
	}
	return structpb.NewStructValue(&structpb.Struct{Fields: fields}), nil
}

func structFields(t reflect.Type) []structField {
	var (
		fields []structField
		byName = make(map[string]int)
	)
	var walk func(t reflect.Type, index []int, visiting map[reflect.Type]struct{})
	walk = func(t reflect.Type, index []int, visiting map[reflect.Type]struct{}) {
		if _, seen := visiting[t]; seen {
			return
		}
		visiting[t] = struct{}{}
		defer delete(visiting, t)

		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			tag := sf.Tag.Get("json")
			if tag == "-" {
				continue
			}
			name, opts, _ := strings.Cut(tag, ",")
			path := make([]int, len(index)+1)
			copy(path, index)
			path[len(index)] = i

			if sf.Anonymous && name == "" {
				ft := sf.Type
				if ft.Kind() == reflect.Pointer {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					// Fields promoted through an unexported embedded struct
					// can't be read through reflection.
					if sf.IsExported() {
						walk(ft, path, visiting)
					}
					continue
				}
			}
			if !sf.IsExported() {
				continue
			}
			if name == "" {
				name = sf.Name
			}
			field := structField{name: name, index: path, omitEmpty: hasOption(opts, "omitempty")}
			if at, ok := byName[name]; ok {
				// The shallower field wins, as in encoding/json.
				if len(fields[at].index) > len(path) {
					fields[at] = field
				}
				continue
			}
			byName[name] = len(fields)
			fields = append(fields, field)
		}
	}
	walk(t, nil, make(map[reflect.Type]struct{}))
	return fields
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == want {
			return true
		}
	}
	return false
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}
