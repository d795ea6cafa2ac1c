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


// Package memhttptest starts memhttp servers that are tied to a test's
// lifetime.
package memhttptest

import (
	"net/http"
	"testing"

	"github.com/envelopekit/envelope/internal/memhttp"
	"github.com/rs/zerolog"
)

// NewServer starts a memhttp.Server whose internal errors are written to
// the test log. The server is shut down when the test completes, and a
// failed shutdown fails the test. Options given here take precedence.
func NewServer(tb testing.TB, handler http.Handler, options ...memhttp.Option) *memhttp.Server {
	tb.Helper()
	logger := zerolog.New(testWriter{tb}).With().Str("component", "memhttp").Logger()
	options = append([]memhttp.Option{memhttp.WithLogger(logger)}, options...)
	server := memhttp.New(handler, options...)
	tb.Cleanup(func() {
		if err := server.Cleanup(); err != nil {
			tb.Error(err)
		}
	})
	return server
}

type testWriter struct {
	tb testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.tb.Log(string(p))
	return len(p), nil
}
