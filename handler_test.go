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
	"bytes"
	stdgzip "compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/envelopekit/envelope/internal/assert"
	"github.com/envelopekit/envelope/validation"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func serve(t *testing.T, handler http.Handler, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest(http.MethodGet, "/resource", nil)
	for i := 0; i+1 < len(headers); i += 2 {
		request.Header.Set(headers[i], headers[i+1])
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) any {
	t.Helper()
	var body any
	assert.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &body), assert.Sprintf("body %q", recorder.Body.String()))
	return body
}

func TestHandler(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name       string
		fn         Func
		wantStatus int
		want       any
	}{
		{
			name:       "response",
			fn:         func(context.Context, *http.Request) (any, error) { return NewData("hi"), nil },
			wantStatus: http.StatusOK,
			want:       map[string]any{"data": "hi"},
		},
		{
			name:       "nil",
			fn:         func(context.Context, *http.Request) (any, error) { return nil, nil },
			wantStatus: http.StatusOK,
			want:       map[string]any{"data": "ok"},
		},
		{
			name: "validation error",
			fn: func(context.Context, *http.Request) (any, error) {
				return nil, validation.NewField("name", "is required", "")
			},
			wantStatus: http.StatusUnprocessableEntity,
			want:       map[string]any{"message": "is required", "property": "name", "value": ""},
		},
		{
			name: "wrapped validation errors",
			fn: func(context.Context, *http.Request) (any, error) {
				errs := validation.Errors{validation.New("a"), validation.New("b")}
				return nil, fmt.Errorf("check input: %w", errs)
			},
			wantStatus: http.StatusUnprocessableEntity,
			want:       []any{map[string]any{"message": "a"}, map[string]any{"message": "b"}},
		},
		{
			name: "empty validation errors",
			fn: func(context.Context, *http.Request) (any, error) {
				return nil, validation.Errors{}
			},
			wantStatus: http.StatusInternalServerError,
			want:       map[string]any{"message": "internal error"},
		},
		{
			name: "internal error",
			fn: func(context.Context, *http.Request) (any, error) {
				return nil, errors.New("connection refused to db-7")
			},
			wantStatus: http.StatusInternalServerError,
			want:       map[string]any{"message": "internal error"},
		},
		{
			name: "unencodable value",
			fn: func(context.Context, *http.Request) (any, error) {
				return NewData(func() {}), nil
			},
			wantStatus: http.StatusInternalServerError,
			want:       map[string]any{"message": "internal error"},
		},
		{
			name: "either",
			fn: func(context.Context, *http.Request) (any, error) {
				return Right[Error](NewListing(NewContinuousList([]string{"a", "b"}, 1, func(s string) string { return s }))), nil
			},
			wantStatus: http.StatusOK,
			want:       map[string]any{"data": []any{"a"}, "hasMore": true, "nextCursor": "a", "limit": 1.0},
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			recorder := serve(t, NewHandler(testCase.fn))
			assert.Equal(t, recorder.Code, testCase.wantStatus)
			assert.Equal(t, recorder.Header().Get(headerContentType), "application/json")
			assert.Equal(t, decodeBody(t, recorder), testCase.want)
		})
	}
}

func TestHandlerFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.json")
	assert.Nil(t, os.WriteFile(path, []byte(`["remember the milk"]`), 0o600))

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		handler := NewHandler(func(context.Context, *http.Request) (any, error) {
			return File{Path: path, Name: "notes.json"}, nil
		})
		recorder := serve(t, handler, headerAcceptEncoding, "gzip")
		assert.Equal(t, recorder.Code, http.StatusOK)
		assert.Equal(t, recorder.Body.String(), `["remember the milk"]`)
		assert.Match(t, recorder.Header().Get(headerContentType), `^application/json`)
		assert.Match(t, recorder.Header().Get(headerContentDisposition), `filename=notes\.json`)
	})
	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		handler := NewHandler(func(context.Context, *http.Request) (any, error) {
			return File{Path: filepath.Join(dir, "absent.txt")}, nil
		})
		recorder := serve(t, handler)
		assert.Equal(t, recorder.Code, http.StatusNotFound)
		assert.Equal(t, decodeBody(t, recorder), any(map[string]any{"message": "file not found"}))
	})
}

func TestHandlerNegotiation(t *testing.T) {
	t.Parallel()
	payload := strings.Repeat("x", 2048)
	handler := NewHandler(func(context.Context, *http.Request) (any, error) {
		return NewData(payload), nil
	}, WithCompressMinBytes(256))

	t.Run("protobuf", func(t *testing.T) {
		t.Parallel()
		recorder := serve(t, handler, headerAccept, "application/protobuf")
		assert.Equal(t, recorder.Header().Get(headerContentType), "application/protobuf")
		document := &structpb.Value{}
		assert.Nil(t, proto.Unmarshal(recorder.Body.Bytes(), document))
		assert.Document(t, document, fmt.Sprintf(`{"data": %q}`, payload))
	})
	t.Run("gzip", func(t *testing.T) {
		t.Parallel()
		recorder := serve(t, handler, headerAcceptEncoding, "gzip")
		assert.Equal(t, recorder.Header().Get(headerContentEncoding), "gzip")
		reader, err := stdgzip.NewReader(bytes.NewReader(recorder.Body.Bytes()))
		assert.Nil(t, err)
		body, err := io.ReadAll(reader)
		assert.Nil(t, err)
		var decoded map[string]string
		assert.Nil(t, json.Unmarshal(body, &decoded))
		assert.Equal(t, decoded, map[string]string{"data": payload})
	})
	t.Run("without compression", func(t *testing.T) {
		t.Parallel()
		plain := NewHandler(func(context.Context, *http.Request) (any, error) {
			return NewData(payload), nil
		}, WithoutCompression())
		recorder := serve(t, plain, headerAcceptEncoding, "gzip")
		assert.Equal(t, recorder.Header().Get(headerContentEncoding), "")
		assert.Equal(t, len(recorder.Body.String()) > len(payload), true)
	})
}

func TestHandlerRecover(t *testing.T) {
	t.Parallel()
	panicky := func(context.Context, *http.Request) (any, error) {
		panic("out of envelopes")
	}
	t.Run("validation error", func(t *testing.T) {
		t.Parallel()
		var recovered any
		handler := NewHandler(panicky, WithRecover(func(_ context.Context, _ *http.Request, panicValue any) error {
			recovered = panicValue
			return validation.New("try again later")
		}))
		recorder := serve(t, handler)
		assert.Equal(t, recorder.Code, http.StatusUnprocessableEntity)
		assert.Equal(t, decodeBody(t, recorder), any(map[string]any{"message": "try again later"}))
		assert.Equal(t, recovered, any("out of envelopes"))
	})
	t.Run("nil error", func(t *testing.T) {
		t.Parallel()
		handler := NewHandler(panicky, WithRecover(func(context.Context, *http.Request, any) error {
			return nil
		}))
		recorder := serve(t, handler)
		assert.Equal(t, recorder.Code, http.StatusInternalServerError)
		assert.Equal(t, decodeBody(t, recorder), any(map[string]any{"message": "internal error"}))
	})
	t.Run("abort", func(t *testing.T) {
		t.Parallel()
		handler := NewHandler(func(context.Context, *http.Request) (any, error) {
			panic(http.ErrAbortHandler)
		}, WithRecover(func(context.Context, *http.Request, any) error {
			t.Error("abort panics shouldn't be recovered")
			return nil
		}))
		defer func() {
			assert.True(t, recover() == any(http.ErrAbortHandler))
		}()
		serve(t, handler)
		t.Error("expected panic")
	})
}
