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

// Package resolve turns values of arbitrary runtime shape into document
// trees. A document tree is a google.protobuf.Value: objects, arrays,
// strings, numbers, booleans and null, with no commitment to a particular
// wire syntax.
//
// Resolve picks an Encoder by inspecting a value at call time, and Unify
// picks the single Encoder shared by every element of a collection,
// rejecting collections whose elements have different shapes. Encoders
// aren't cached: the same static type can hold differently shaped data from
// one call to the next, for example a []any.
//
// Application types control their own encoding by implementing Marshaler.
// Everything else is encoded by kind, with plain structs written field by
// field according to their json tags.
package resolve
