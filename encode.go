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
	"fmt"
	"strings"

	"github.com/envelopekit/envelope/resolve"
	"github.com/envelopekit/envelope/validation"
	"google.golang.org/protobuf/types/known/structpb"
)

// Document member names.
const (
	fieldData       = "data"
	fieldMessage    = "message"
	fieldProperty   = "property"
	fieldValue      = "value"
	fieldHasMore    = "hasMore"
	fieldNextCursor = "nextCursor"
	fieldLimit      = "limit"
)

// Encode builds the document for a response:
//
//	OK          {"data": "ok"}
//	Data        {"data": <payload>}
//	Error       {"message": ..., "property": ..., "value": ...}
//	Errors      [<error>, ...]
//	Listing     {"data": [<item>, ...], "hasMore": ..., "nextCursor": ..., "limit": ...}
//	Either      the document of the active branch
//
// An Error's property is omitted when blank and its value when nil. A
// Listing's nextCursor and limit are omitted when unset.
//
// Files have no document form, so encoding one (directly or as the active
// branch of an Either) fails with resolve.CodeContractViolation, as does an
// Either with no active branch. Payloads that can't be encoded fail with the
// resolver's error.
func Encode(r Response) (*structpb.Value, error) {
	if r == nil || resolve.IsNull(r) {
		return nil, contractViolation("can't encode a nil response")
	}
	switch r.Variant() {
	case VariantOK:
		return object(map[string]*structpb.Value{
			fieldData: structpb.NewStringValue("ok"),
		}), nil
	case VariantData:
		data, ok := r.(dataResponse)
		if !ok {
			return nil, contractViolation("%T reports variant data", r)
		}
		node, err := encodePayload(data.payload())
		if err != nil {
			return nil, fmt.Errorf("encode data: %w", err)
		}
		return object(map[string]*structpb.Value{fieldData: node}), nil
	case VariantError:
		single, ok := r.(Error)
		if !ok {
			ptr, isPtr := r.(*Error)
			if !isPtr {
				return nil, contractViolation("%T reports variant error", r)
			}
			single = *ptr
		}
		return encodeError(single.Err)
	case VariantErrors:
		many, ok := r.(Errors)
		if !ok {
			ptr, isPtr := r.(*Errors)
			if !isPtr {
				return nil, contractViolation("%T reports variant errors", r)
			}
			many = *ptr
		}
		return encodeErrors(many.Errs)
	case VariantListing:
		listing, ok := r.(listingResponse)
		if !ok {
			return nil, contractViolation("%T reports variant listing", r)
		}
		return encodeListing(listing.page())
	case VariantFile:
		return nil, contractViolation("files are streamed, not encoded")
	case VariantEither:
		either, ok := r.(eitherResponse)
		if !ok {
			return nil, contractViolation("%T reports variant either", r)
		}
		branch := either.active()
		if branch == nil {
			return nil, contractViolation("either has no active branch")
		}
		return Encode(branch)
	}
	return nil, contractViolation("unknown response variant %v", r.Variant())
}

func encodePayload(value any) (*structpb.Value, error) {
	if resolve.IsNull(value) {
		return structpb.NewNullValue(), nil
	}
	return resolve.Value(value)
}

func encodeError(e validation.Error) (*structpb.Value, error) {
	fields := map[string]*structpb.Value{
		fieldMessage: structpb.NewStringValue(e.Message),
	}
	if strings.TrimSpace(e.Property) != "" {
		fields[fieldProperty] = structpb.NewStringValue(e.Property)
	}
	if !resolve.IsNull(e.Value) {
		node, err := resolve.Value(e.Value)
		if err != nil {
			return nil, fmt.Errorf("encode value of %q: %w", e.Property, err)
		}
		fields[fieldValue] = node
	}
	return object(fields), nil
}

func encodeErrors(errs validation.Errors) (*structpb.Value, error) {
	values := make([]*structpb.Value, len(errs))
	for i, e := range errs {
		node, err := encodeError(e)
		if err != nil {
			return nil, fmt.Errorf("error %d: %w", i, err)
		}
		values[i] = node
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values}), nil
}

func encodeListing(items any, cursor Cursor) (*structpb.Value, error) {
	data, err := resolve.Value(items)
	if err != nil {
		return nil, fmt.Errorf("encode listing: %w", err)
	}
	fields := map[string]*structpb.Value{
		fieldData:    data,
		fieldHasMore: structpb.NewBoolValue(cursor.HasMore),
	}
	if cursor.Next != "" {
		fields[fieldNextCursor] = structpb.NewStringValue(cursor.Next)
	}
	if cursor.Limit > 0 {
		fields[fieldLimit] = structpb.NewNumberValue(float64(cursor.Limit))
	}
	return object(fields), nil
}

func object(fields map[string]*structpb.Value) *structpb.Value {
	return structpb.NewStructValue(&structpb.Struct{Fields: fields})
}

func contractViolation(template string, args ...any) error {
	return resolve.NewError(resolve.CodeContractViolation, fmt.Errorf(template, args...))
}

func isContractViolation(err error) bool {
	return resolve.CodeOf(err) == resolve.CodeContractViolation
}
