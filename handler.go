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
	"errors"
	"io/fs"
	"net/http"

	"github.com/envelopekit/envelope/compress"
	"github.com/envelopekit/envelope/validation"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/types/known/structpb"
)

// Func is the application code behind a Handler. It returns a Response, or
// any other value to be sent as-is with status 200.
//
// Returning a validation.Error or validation.Errors (possibly wrapped) sends
// an Error or Errors response. Any other error is logged and answered with
// a generic 500 document, so internal details never reach the client. An
// empty validation.Errors counts as any other error; return Errors.Err to
// report "no failures" as nil.
type Func func(ctx context.Context, request *http.Request) (any, error)

// A Handler adapts a Func to net/http, writing every outcome in the
// envelope format.
//
// By default, Handlers write JSON, or binary protobuf for clients that ask
// for application/protobuf. They gzip bodies over 1KiB for clients that
// accept it.
type Handler struct {
	fn         Func
	writer     *Writer
	codecs     *codecMap
	compressor compress.Compressor
	logger     zerolog.Logger

	recoverPanic func(context.Context, *http.Request, any) error
}

// NewHandler constructs a Handler.
func NewHandler(fn Func, options ...HandlerOption) *Handler {
	config := newHandlerConfig(options)
	return &Handler{
		fn:         fn,
		writer:     newWriter(config.Logger),
		codecs:     newCodecMap(config.Codecs),
		compressor: config.Compressor,
		logger:     config.Logger,

		recoverPanic: config.RecoverPanic,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	transport := newHTTPTransport(w, r, h.codecs, h.compressor)
	value, err := h.call(ctx, r)
	if err != nil {
		errs, single, ok := validation.As(err)
		if !ok {
			h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("handler failed")
			h.fail(transport, http.StatusInternalServerError, "internal error")
			return
		}
		if single {
			value = NewError(errs[0])
		} else {
			value = NewErrors(errs...)
		}
	}
	if err := h.writer.Send(ctx, transport, value); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			h.fail(transport, http.StatusNotFound, "file not found")
			return
		}
		h.fail(transport, http.StatusInternalServerError, "internal error")
	}
}

// fail answers with {"message": message}, unless part of a response is
// already on the wire.
func (h *Handler) fail(t *httpTransport, status int, message string) {
	if t.wroteHeader || t.finished {
		return
	}
	t.SetStatus(status)
	document := object(map[string]*structpb.Value{
		fieldMessage: structpb.NewStringValue(message),
	})
	if err := t.WriteDocument(document); err != nil {
		h.logger.Warn().Err(err).Msg("failed to write error response")
	}
	t.Finish()
}
