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


package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/envelopekit/envelope"
	"github.com/envelopekit/envelope/config"
	"github.com/envelopekit/envelope/internal/assert"
	"github.com/envelopekit/envelope/internal/memhttp/memhttptest"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func request(t *testing.T, handler http.Handler, method, target string) (int, map[string]any, []any) {
	t.Helper()
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(method, target, nil))
	var body any
	assert.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &body), assert.Sprintf("%s %s: %q", method, target, recorder.Body.String()))
	object, _ := body.(map[string]any)
	list, _ := body.([]any)
	return recorder.Code, object, list
}

func TestCatalog(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Server.Files = t.TempDir()
	mux := newMux(newCatalog(), cfg, newObserver(zerolog.Nop()))

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		code, body, _ := request(t, mux, http.MethodGet, "/ok")
		assert.Equal(t, code, http.StatusOK)
		assert.Equal(t, body["data"], any("ok"))
	})
	t.Run("pages", func(t *testing.T) {
		t.Parallel()
		code, first, _ := request(t, mux, http.MethodGet, "/books?limit=1")
		assert.Equal(t, code, http.StatusOK)
		assert.Equal(t, first["hasMore"], any(true))
		assert.Equal(t, first["nextCursor"], any("6f1c1c1e-8d5b-4c1b-9a51-0b0c5d1f0a01"))
		books, ok := first["data"].([]any)
		assert.True(t, ok)
		assert.Equal(t, len(books), 1)
		book, ok := books[0].(map[string]any)
		assert.True(t, ok)
		assert.Equal(t, book["published"], any("2015-10-26"))
		assert.Equal(t, book["language"], any("en"))

		code, second, _ := request(t, mux, http.MethodGet, "/books?limit=1&cursor=6f1c1c1e-8d5b-4c1b-9a51-0b0c5d1f0a01")
		assert.Equal(t, code, http.StatusOK)
		books, ok = second["data"].([]any)
		assert.True(t, ok)
		assert.Equal(t, len(books), 1)
		assert.Equal(t, books[0].(map[string]any)["title"], any("Programmieren in Go"))
	})
	t.Run("bad limit", func(t *testing.T) {
		t.Parallel()
		code, body, _ := request(t, mux, http.MethodGet, "/books?limit=zero")
		assert.Equal(t, code, http.StatusUnprocessableEntity)
		assert.Equal(t, body["property"], any("limit"))
	})
	t.Run("get", func(t *testing.T) {
		t.Parallel()
		code, body, _ := request(t, mux, http.MethodGet, "/books/6f1c1c1e-8d5b-4c1b-9a51-0b0c5d1f0a02")
		assert.Equal(t, code, http.StatusOK)
		book, ok := body["data"].(map[string]any)
		assert.True(t, ok)
		assert.Equal(t, book["language"], any("de"))

		code, body, _ = request(t, mux, http.MethodGet, "/books/not-a-uuid")
		assert.Equal(t, code, http.StatusUnprocessableEntity)
		assert.Equal(t, body["message"], any("must be a UUID"))

		code, body, _ = request(t, mux, http.MethodGet, "/books/00000000-0000-0000-0000-000000000000")
		assert.Equal(t, code, http.StatusUnprocessableEntity)
		assert.Equal(t, body["message"], any("no such book"))
	})
	t.Run("invalid add", func(t *testing.T) {
		t.Parallel()
		code, _, errs := request(t, mux, http.MethodPost, "/books?published=someday")
		assert.Equal(t, code, http.StatusUnprocessableEntity)
		assert.Equal(t, len(errs), 2)
	})
	t.Run("stats", func(t *testing.T) {
		t.Parallel()
		code, body, _ := request(t, mux, http.MethodGet, "/stats")
		assert.Equal(t, code, http.StatusOK)
		languages, ok := body["languages"].(map[string]any)
		assert.True(t, ok)
		assert.Equal(t, languages["en"], any(1.0))
		assert.Equal(t, languages["de"], any(1.0))
	})
	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		code, body, _ := request(t, mux, http.MethodGet, "/files/absent.json")
		assert.Equal(t, code, http.StatusNotFound)
		assert.Equal(t, body["message"], any("file not found"))
	})
}

func TestCatalogAdd(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Server.Files = t.TempDir()
	assert.Nil(t, os.WriteFile(filepath.Join(cfg.Server.Files, "export.json"), []byte(`[]`), 0o600))
	mux := newMux(newCatalog(), cfg, newObserver(zerolog.Nop()))

	code, body, _ := request(t, mux, http.MethodPost, "/books?title=Learning+Go&published=2024-02-29")
	assert.Equal(t, code, http.StatusOK)
	book, ok := body["data"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, book["title"], any("Learning Go"))
	assert.Equal(t, book["published"], any("2024-02-29"))
	assert.Equal(t, book["language"], any("und"))

	_, stats, _ := request(t, mux, http.MethodGet, "/stats")
	assert.Equal(t, stats["books"], any(3.0))

	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/files/export.json", nil))
	assert.Equal(t, recorder.Code, http.StatusOK)
	assert.Equal(t, recorder.Body.String(), `[]`)
}

func TestDemoOverHTTP2(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	server := memhttptest.NewServer(t, newMux(newCatalog(), cfg, newObserver(zerolog.Nop()), envelope.WithCompressMinBytes(64)))
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL()+"/books", nil)
	assert.Nil(t, err)
	req.Header.Set("Accept", "application/protobuf")
	response, err := server.Client().Do(req)
	assert.Nil(t, err)
	defer response.Body.Close()
	assert.Equal(t, response.ProtoMajor, 2)
	assert.Equal(t, response.Header.Get("Content-Type"), "application/protobuf")
	assert.True(t, response.Uncompressed)
	body, err := io.ReadAll(response.Body)
	assert.Nil(t, err)
	document := &structpb.Value{}
	assert.Nil(t, proto.Unmarshal(body, document))
	listing := document.GetStructValue().GetFields()
	assert.Equal(t, len(listing["data"].GetListValue().GetValues()), 2)
	assert.False(t, listing["hasMore"].GetBoolValue())
}
