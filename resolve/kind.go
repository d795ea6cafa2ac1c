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

import "fmt"

// A Kind names the strategy an Encoder uses to build a document node. The
// set is closed: application types extend the resolver by implementing
// Marshaler, which resolves to KindCustom.
type Kind uint8

const (
	KindDocument   Kind = 1  // value is already a document node
	KindScalar     Kind = 2  // bool, string, integer or float
	KindSequence   Kind = 3  // ordered slice
	KindSet        Kind = 4  // map[K]struct{}
	KindMapping    Kind = 5  // any other map
	KindMapEntry   Kind = 6  // single KeyValue pair
	KindFixedArray Kind = 7  // [N]T, resolved from the static element type
	KindDate       Kind = 8  // civil.Date
	KindDateTime   Kind = 9  // civil.DateTime
	KindTimestamp  Kind = 10 // time.Time
	KindLocale     Kind = 11 // language.Tag
	KindUniqueID   Kind = 12 // uuid.UUID
	KindNullable   Kind = 13 // adapter that admits null
	KindCustom     Kind = 14 // Marshaler
	KindMessage    Kind = 15 // generated protobuf message
	KindStructural Kind = 16 // field-by-field struct encoding

	minKind = KindDocument
	maxKind = KindStructural
)

func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindSet:
		return "set"
	case KindMapping:
		return "mapping"
	case KindMapEntry:
		return "map_entry"
	case KindFixedArray:
		return "fixed_array"
	case KindDate:
		return "date"
	case KindDateTime:
		return "date_time"
	case KindTimestamp:
		return "timestamp"
	case KindLocale:
		return "locale"
	case KindUniqueID:
		return "unique_id"
	case KindNullable:
		return "nullable"
	case KindCustom:
		return "custom"
	case KindMessage:
		return "message"
	case KindStructural:
		return "structural"
	}
	return fmt.Sprintf("Kind(%d)", k)
}
