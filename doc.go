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

// Package envelope gives HTTP services one response format. Handlers return
// a Response: OK, Data, Error, Errors, Listing, File, or an Either of two
// responses. Each variant has a fixed document shape and status code, so
// clients can rely on the same structure for success payloads, validation
// failures and paginated listings.
//
// Payloads are encoded by the resolve package, which inspects values at
// runtime, so a Data or Listing can carry maps, slices, structs, dates,
// locales, UUIDs and protobuf messages without any registration.
//
// Handler adapts a function returning a Response to net/http. Writer and
// Transport expose the same pipeline for other HTTP stacks.
package envelope
