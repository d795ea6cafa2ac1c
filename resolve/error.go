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
	"errors"
	"fmt"
)

// A Code classifies an encoding failure. Every failure is a deterministic
// function of the input, so none of them are worth retrying.
type Code uint32

const (
	CodeUnknown           Code = 0 // not produced by this package
	CodeUnresolvableType  Code = 1 // no strategy matches the value
	CodeMixedElementTypes Code = 2 // collection elements resolve to different encoders
	CodeMissingKeyOrValue Code = 3 // key/value pair with a nil key or value
	CodeUnrepresentable   Code = 4 // value has no document form (NaN, structured map key)
	CodeContractViolation Code = 5 // programming defect, e.g. Either without a branch
)

func (c Code) String() string {
	switch c {
	case CodeUnknown:
		return "unknown"
	case CodeUnresolvableType:
		return "unresolvable_type"
	case CodeMixedElementTypes:
		return "mixed_element_types"
	case CodeMissingKeyOrValue:
		return "missing_key_or_value"
	case CodeUnrepresentable:
		return "unrepresentable"
	case CodeContractViolation:
		return "contract_violation"
	}
	return fmt.Sprintf("Code(%d)", c)
}

// An Error pairs a Code with the underlying cause. Errors with
// CodeMixedElementTypes also carry the names of the distinct encoders found
// in the offending collection.
type Error struct {
	code  Code
	err   error
	kinds []string
}

// NewError annotates any Go error with a Code.
func NewError(c Code, underlying error) *Error {
	return &Error{code: c, err: underlying}
}

func (e *Error) Error() string {
	text := e.err.Error()
	if text == "" {
		return e.code.String()
	}
	return e.code.String() + ": " + text
}

// Unwrap allows errors.Is and errors.As access to the underlying error.
func (e *Error) Unwrap() error {
	return e.err
}

// Code returns the error's code.
func (e *Error) Code() Code {
	return e.code
}

// Kinds returns the encoder names found in a heterogeneous collection, in
// the order they were first seen. It's empty for every other code. The
// returned slice is safe for the caller to mutate.
func (e *Error) Kinds() []string {
	if len(e.kinds) == 0 {
		return nil
	}
	kinds := make([]string, len(e.kinds))
	copy(kinds, e.kinds)
	return kinds
}

// CodeOf returns the code of the first *Error in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	if resolveErr, ok := asError(err); ok {
		return resolveErr.Code()
	}
	return CodeUnknown
}

func errorf(c Code, template string, args ...any) *Error {
	return NewError(c, fmt.Errorf(template, args...))
}

func asError(err error) (*Error, bool) {
	var re *Error
	ok := errors.As(err, &re)
	return re, ok
}
