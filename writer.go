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
	"context"
	"fmt"
	"net/http"

	"github.com/envelopekit/envelope/resolve"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/types/known/structpb"
)

// A Writer delivers outgoing values to a Transport. Each value passes
// through an ordered series of stages, and the first stage that handles it
// ends the series:
//
//  1. Files are streamed with the status from StatusOf, bypassing encoding.
//  2. Any other Response is encoded with Encode and written with the status
//     from StatusOf.
//  3. Anything else is encoded with resolve.Value and written with status
//     200. A nil value is treated as OK, and a typed nil such as a nil
//     pointer is written as a null document.
//
// Every stage finishes the transport once it has written, and Send never
// writes to a finished transport, so a value is encoded at most once.
//
// Writers are safe to use concurrently.
type Writer struct {
	logger zerolog.Logger
	stages []stage
}

// A stage handles a value or declines it. A stage that returns an error
// hasn't finished the transport.
type stage func(ctx context.Context, t Transport, value any) (handled bool, err error)

// NewWriter constructs a Writer. Only WithLogger applies to Writers.
func NewWriter(options ...HandlerOption) *Writer {
	config := newHandlerConfig(options)
	return newWriter(config.Logger)
}

func newWriter(logger zerolog.Logger) *Writer {
	return &Writer{
		logger: logger,
		stages: []stage{sendFile, sendResponse, sendValue},
	}
}

// Send writes value to t. Values sent to a finished transport are dropped.
// Errors are returned unwritten: the caller decides what, if anything, the
// client sees.
func (w *Writer) Send(ctx context.Context, t Transport, value any) error {
	if t.Finished() {
		w.logger.Debug().Type("value", value).Msg("dropping value sent to a finished response")
		return nil
	}
	for _, s := range w.stages {
		handled, err := s(ctx, t, value)
		if err != nil {
			w.logFailure(value, err)
			return err
		}
		if handled {
			return nil
		}
	}
	return nil
}

func (w *Writer) logFailure(value any, err error) {
	event := w.logger.Warn()
	if isContractViolation(err) {
		event = w.logger.Error()
	}
	if r, ok := value.(Response); ok && !resolve.IsNull(r) {
		event = event.Stringer("variant", r.Variant())
	}
	event.Err(err).Str("code", resolve.CodeOf(err).String()).Msg("failed to send response")
}

func sendFile(_ context.Context, t Transport, value any) (bool, error) {
	var file File
	switch v := value.(type) {
	case File:
		file = v
	case *File:
		if v == nil {
			return false, nil
		}
		file = *v
	default:
		return false, nil
	}
	t.SetStatus(StatusOf(file))
	if err := t.StreamFile(file); err != nil {
		return false, err
	}
	t.Finish()
	return true, nil
}

func sendResponse(_ context.Context, t Transport, value any) (bool, error) {
	r, ok := value.(Response)
	if !ok {
		return false, nil
	}
	document, err := Encode(r)
	if err != nil {
		return false, err
	}
	t.SetStatus(StatusOf(r))
	if err := t.WriteDocument(document); err != nil {
		return false, fmt.Errorf("write %v response: %w", r.Variant(), err)
	}
	t.Finish()
	return true, nil
}

func sendValue(ctx context.Context, t Transport, value any) (bool, error) {
	if value == nil {
		return sendResponse(ctx, t, OK{})
	}
	document := structpb.NewNullValue()
	if !resolve.IsNull(value) {
		var err error
		if document, err = resolve.Value(value); err != nil {
			return false, err
		}
	}
	t.SetStatus(http.StatusOK)
	if err := t.WriteDocument(document); err != nil {
		return false, fmt.Errorf("write value: %w", err)
	}
	t.Finish()
	return true, nil
}
