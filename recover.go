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
	"net/http"
)

var errPanicked = errors.New("handler panicked")

// WithRecover makes Handlers recover from panics in their Func. The handle
// function receives the request and the recovered value, which is never
// nil, and returns the error to answer with: validation errors become Error
// or Errors responses, and anything else (nil included) becomes the generic
// 500 document. It may also log the panic or emit metrics, and it must be
// safe to call concurrently.
//
// Panics with http.ErrAbortHandler are re-raised, so net/http can abort the
// response as it normally would.
//
// By default, handlers don't recover from panics, and http.Server's own
// recovery closes the connection.
func WithRecover(handle func(ctx context.Context, request *http.Request, panicValue any) error) HandlerOption {
	return &recoverOption{handle: handle}
}

type recoverOption struct {
	handle func(context.Context, *http.Request, any) error
}

func (o *recoverOption) applyToHandler(config *handlerConfig) {
	config.RecoverPanic = o.handle
}

// call runs the Func, converting panics to errors if WithRecover was used.
func (h *Handler) call(ctx context.Context, request *http.Request) (value any, retErr error) {
	if h.recoverPanic == nil {
		return h.fn(ctx, request)
	}
	defer func() {
		panicValue := recover()
		if panicValue == nil {
			return
		}
		if err, ok := panicValue.(error); ok && errors.Is(err, http.ErrAbortHandler) {
			panic(panicValue)
		}
		value = nil
		retErr = h.recoverPanic(ctx, request, panicValue)
		if retErr == nil {
			retErr = errPanicked
		}
	}()
	return h.fn(ctx, request)
}
