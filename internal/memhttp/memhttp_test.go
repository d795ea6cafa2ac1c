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


package memhttp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/envelopekit/envelope"
	"github.com/envelopekit/envelope/internal/assert"
	"github.com/envelopekit/envelope/internal/memhttp"
	"github.com/envelopekit/envelope/internal/memhttp/memhttptest"
)

func TestServer(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name      string
		options   []memhttp.Option
		wantMajor int
	}{
		{name: "http2", wantMajor: 2},
		{name: "http1", options: []memhttp.Option{memhttp.WithoutHTTP2()}, wantMajor: 1},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			payload := strings.Repeat("paper ", 512)
			handler := envelope.NewHandler(func(_ context.Context, r *http.Request) (any, error) {
				if r.ProtoMajor != testCase.wantMajor {
					t.Errorf("got HTTP/%d, want HTTP/%d", r.ProtoMajor, testCase.wantMajor)
				}
				return envelope.NewData(payload), nil
			})
			server := memhttptest.NewServer(t, handler, testCase.options...)
			client := server.Client()

			const concurrency = 20
			var wg sync.WaitGroup
			for i := 0; i < concurrency; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					request, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL(), nil)
					if err != nil {
						t.Error(err)
						return
					}
					response, err := client.Do(request)
					if err != nil {
						t.Error(err)
						return
					}
					defer response.Body.Close()
					if response.StatusCode != http.StatusOK {
						t.Errorf("got status %d", response.StatusCode)
					}
					// The client asked for gzip on its own and undid it.
					if !response.Uncompressed {
						t.Error("response wasn't compressed")
					}
					var body map[string]string
					if err := json.NewDecoder(response.Body).Decode(&body); err != nil {
						t.Error(err)
						return
					}
					if body["data"] != payload {
						t.Errorf("got %d bytes of data, want %d", len(body["data"]), len(payload))
					}
				}()
			}
			wg.Wait()
		})
	}
}

func TestShutdown(t *testing.T) {
	t.Parallel()
	server := memhttp.New(envelope.NewHandler(func(context.Context, *http.Request) (any, error) {
		return envelope.OK{}, nil
	}), memhttp.WithShutdownTimeout(time.Second))
	response, err := server.Client().Get(server.URL())
	assert.Nil(t, err)
	var body map[string]string
	assert.Nil(t, json.NewDecoder(response.Body).Decode(&body))
	assert.Nil(t, response.Body.Close())
	assert.Equal(t, body, map[string]string{"data": "ok"})
	assert.Nil(t, server.Cleanup())

	_, err = server.Client().Get(server.URL())
	assert.NotNil(t, err)
}
