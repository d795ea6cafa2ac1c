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

// Package validation holds the error records reported back to clients when
// a request doesn't pass validation. The records are plain data; checking
// requests is left to the application.
package validation

import (
	"errors"
	"fmt"
	"strings"
)

// An Error describes one problem with a request. Property names the
// offending input, if any, and Value optionally echoes what was received.
// A non-nil Value must be encodable as a document, or the response carrying
// it fails to encode.
type Error struct {
	Message  string
	Property string
	Value    any
}

// New constructs an Error that isn't tied to a particular property.
func New(message string) Error {
	return Error{Message: message}
}

// NewField constructs an Error about one property and the value received
// for it.
func NewField(property, message string, value any) Error {
	return Error{Message: message, Property: property, Value: value}
}

func (e Error) Error() string {
	if strings.TrimSpace(e.Property) == "" {
		return e.Message
	}
	return e.Property + ": " + e.Message
}

// Errors is an ordered collection of validation errors.
type Errors []Error

func (es Errors) Error() string {
	switch len(es) {
	case 0:
		return "no validation errors"
	case 1:
		return es[0].Error()
	}
	messages := make([]string, len(es))
	for i, e := range es {
		messages[i] = e.Error()
	}
	return fmt.Sprintf("%d validation errors: %s", len(es), strings.Join(messages, "; "))
}

// Err returns es as an error, or nil if es is empty. Returning an empty
// Errors directly would produce a non-nil error.
func (es Errors) Err() error {
	if len(es) == 0 {
		return nil
	}
	return es
}

// As extracts validation errors from err's chain. A single Error is
// returned as a one-element slice; single reports which form was found. An
// empty Errors reports no failures, so As doesn't accept it.
func As(err error) (errs Errors, single bool, ok bool) {
	var one Error
	if errors.As(err, &one) {
		return Errors{one}, true, true
	}
	var many Errors
	if errors.As(err, &many) && len(many) > 0 {
		return many, false, true
	}
	var onePtr *Error
	if errors.As(err, &onePtr) && onePtr != nil {
		return Errors{*onePtr}, true, true
	}
	return nil, false, false
}
