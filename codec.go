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
	"mime"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	codecNameJSON     = "json"
	codecNameProtobuf = "protobuf"
)

// A Codec writes document trees in one wire syntax.
type Codec interface {
	// Name is the codec's short name, for example "json".
	Name() string
	// ContentType is the media type of marshaled documents.
	ContentType() string
	Marshal(*structpb.Value) ([]byte, error)
}

type codecJSON struct {
	marshalOptions protojson.MarshalOptions
}

var _ Codec = (*codecJSON)(nil)

func (c *codecJSON) Name() string        { return codecNameJSON }
func (c *codecJSON) ContentType() string { return "application/json" }

func (c *codecJSON) Marshal(document *structpb.Value) ([]byte, error) {
	return c.marshalOptions.Marshal(document)
}

// codecProtobuf writes documents as binary google.protobuf.Value messages.
type codecProtobuf struct{}

var _ Codec = (*codecProtobuf)(nil)

func (c *codecProtobuf) Name() string        { return codecNameProtobuf }
func (c *codecProtobuf) ContentType() string { return "application/protobuf" }

func (c *codecProtobuf) Marshal(document *structpb.Value) ([]byte, error) {
	return proto.MarshalOptions{Deterministic: true}.Marshal(document)
}

// codecMap picks a codec for each request from the media types the client
// accepts.
type codecMap struct {
	fallback Codec
	byType   map[string]Codec
}

func newCodecMap(codecs []Codec) *codecMap {
	m := &codecMap{byType: make(map[string]Codec, len(codecs))}
	for _, codec := range codecs {
		if m.fallback == nil {
			m.fallback = codec
		}
		m.byType[codec.ContentType()] = codec
	}
	if m.fallback == nil {
		m.fallback = &codecJSON{}
		m.byType[m.fallback.ContentType()] = m.fallback
	}
	return m
}

// Negotiate returns the first codec named in an Accept header. Other than
// q=0, which rules a type out, quality values don't reorder the list.
// Wildcards and unknown types fall back to the first registered codec.
func (m *codecMap) Negotiate(accept string) Codec {
	for _, part := range strings.Split(accept, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if q, ok := params["q"]; ok {
			if weight, err := strconv.ParseFloat(q, 64); err == nil && weight == 0 {
				continue
			}
		}
		if codec, ok := m.byType[mediaType]; ok {
			return codec
		}
	}
	return m.fallback
}
