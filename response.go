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

	"github.com/envelopekit/envelope/validation"
)

// A Variant identifies which case of Response a value is.
type Variant uint8

const (
	VariantOK      Variant = 1
	VariantData    Variant = 2
	VariantError   Variant = 3
	VariantErrors  Variant = 4
	VariantListing Variant = 5
	VariantFile    Variant = 6
	VariantEither  Variant = 7

	minVariant = VariantOK
	maxVariant = VariantEither
)

func (v Variant) String() string {
	switch v {
	case VariantOK:
		return "ok"
	case VariantData:
		return "data"
	case VariantError:
		return "error"
	case VariantErrors:
		return "errors"
	case VariantListing:
		return "listing"
	case VariantFile:
		return "file"
	case VariantEither:
		return "either"
	}
	return fmt.Sprintf("Variant(%d)", v)
}

// Response is the closed set of outcomes a handler can produce. Only the
// types in this package implement it.
type Response interface {
	Variant() Variant

	isResponse()
}

// OK reports success without a payload.
type OK struct{}

// Data wraps a single payload.
type Data[T any] struct {
	Value T
}

// Error reports a single validation failure.
type Error struct {
	Err validation.Error
}

// Errors reports several validation failures.
type Errors struct {
	Errs validation.Errors
}

// Listing wraps one page of a continuous list.
type Listing[T any] struct {
	List ContinuousList[T]
}

// File is streamed to the client byte for byte instead of being encoded.
// Name, if set, is offered to the client as the download's file name.
type File struct {
	Path string
	Name string
}

// Either holds exactly one of two responses. It's invisible on the wire:
// it encodes and maps to a status exactly like its active branch.
//
// The zero value has no active branch, and encoding it is a programming
// error. Construct Eithers with Left and Right.
type Either[L, R Response] struct {
	left  L
	right R
	side  side
}

type side uint8

const (
	sideNone side = iota
	sideLeft
	sideRight
)

// NewData constructs a Data response.
func NewData[T any](value T) Data[T] {
	return Data[T]{Value: value}
}

// NewError constructs an Error response from a validation error.
func NewError(err validation.Error) Error {
	return Error{Err: err}
}

// NewErrors constructs an Errors response.
func NewErrors(errs ...validation.Error) Errors {
	return Errors{Errs: errs}
}

// NewListing constructs a Listing response.
func NewListing[T any](list ContinuousList[T]) Listing[T] {
	return Listing[T]{List: list}
}

// Left constructs an Either whose left branch is active.
func Left[L, R Response](l L) Either[L, R] {
	return Either[L, R]{left: l, side: sideLeft}
}

// Right constructs an Either whose right branch is active.
func Right[L, R Response](r R) Either[L, R] {
	return Either[L, R]{right: r, side: sideRight}
}

// IsLeft reports whether the left branch is active.
func (e Either[L, R]) IsLeft() bool { return e.side == sideLeft }

// IsRight reports whether the right branch is active.
func (e Either[L, R]) IsRight() bool { return e.side == sideRight }

// Active returns the active branch, or nil if there isn't one.
func (e Either[L, R]) Active() Response {
	switch e.side {
	case sideLeft:
		return e.left
	case sideRight:
		return e.right
	}
	return nil
}

func (OK) Variant() Variant           { return VariantOK }
func (Data[T]) Variant() Variant      { return VariantData }
func (Error) Variant() Variant        { return VariantError }
func (Errors) Variant() Variant       { return VariantErrors }
func (Listing[T]) Variant() Variant   { return VariantListing }
func (File) Variant() Variant         { return VariantFile }
func (Either[L, R]) Variant() Variant { return VariantEither }

func (OK) isResponse()           {}
func (Data[T]) isResponse()      {}
func (Error) isResponse()        {}
func (Errors) isResponse()       {}
func (Listing[T]) isResponse()   {}
func (File) isResponse()         {}
func (Either[L, R]) isResponse() {}

func (d Data[T]) payload() any           { return d.Value }
func (l Listing[T]) page() (any, Cursor) { return l.List.Items, l.List.Cursor }
func (e Either[L, R]) active() Response  { return e.Active() }

// These unexported views let Encode and StatusOf reach generic payloads
// without knowing their type parameters.
type (
	dataResponse    interface{ payload() any }
	listingResponse interface{ page() (any, Cursor) }
	eitherResponse  interface{ active() Response }
)
