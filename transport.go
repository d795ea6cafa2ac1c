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
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/envelopekit/envelope/compress"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	headerContentType        = "Content-Type"
	headerContentLength      = "Content-Length"
	headerContentEncoding    = "Content-Encoding"
	headerContentDisposition = "Content-Disposition"
	headerAccept             = "Accept"
	headerAcceptEncoding     = "Accept-Encoding"
	headerVary               = "Vary"
)

// errFinished is returned by transports asked to write after Finish.
var errFinished = errors.New("response already finished")

// A Transport is where a Writer delivers responses. Implementations own the
// wire format: status line, headers, syntax and compression.
type Transport interface {
	// SetStatus records the status code. It takes effect with the next
	// write.
	SetStatus(code int)
	// WriteDocument writes an encoded response body.
	WriteDocument(document *structpb.Value) error
	// StreamFile copies a file's bytes to the client. The file is opened and
	// closed within the call, whether or not it succeeds.
	StreamFile(file File) error
	// Finish marks the response complete. Later writes fail.
	Finish()
	Finished() bool
}

// httpTransport writes responses to an http.ResponseWriter, choosing the
// codec and compression from the request's headers.
type httpTransport struct {
	writer      http.ResponseWriter
	codec       Codec
	compressor  compress.Compressor // nil if the client doesn't accept it
	status      int
	wroteHeader bool
	finished    bool
}

// NewHTTPTransport constructs a Transport over an HTTP exchange, for use
// with Writer in handlers that don't use Handler. Options other than codecs
// and compression are ignored.
func NewHTTPTransport(w http.ResponseWriter, r *http.Request, options ...HandlerOption) Transport {
	config := newHandlerConfig(options)
	return newHTTPTransport(w, r, newCodecMap(config.Codecs), config.Compressor)
}

func newHTTPTransport(
	w http.ResponseWriter,
	r *http.Request,
	codecs *codecMap,
	compressor compress.Compressor,
) *httpTransport {
	transport := &httpTransport{
		writer: w,
		codec:  codecs.Negotiate(r.Header.Get(headerAccept)),
		status: http.StatusOK,
	}
	if compressor != nil && acceptsEncoding(r.Header.Get(headerAcceptEncoding), compressor.Name()) {
		transport.compressor = compressor
	}
	return transport
}

func (t *httpTransport) SetStatus(code int) {
	t.status = code
}

func (t *httpTransport) WriteDocument(document *structpb.Value) error {
	if t.finished {
		return errFinished
	}
	body, err := t.codec.Marshal(document)
	if err != nil {
		return fmt.Errorf("marshal %s document: %w", t.codec.Name(), err)
	}
	header := t.writer.Header()
	header.Set(headerContentType, t.codec.ContentType())
	if t.compressor != nil {
		header.Add(headerVary, headerAcceptEncoding)
	}
	if t.compressor == nil || !t.compressor.ShouldCompress(body) {
		header.Set(headerContentLength, strconv.Itoa(len(body)))
		t.writeHeader()
		_, err := t.writer.Write(body)
		return err
	}
	var compressed bytes.Buffer
	gz := t.compressor.GetWriter(&compressed)
	_, writeErr := gz.Write(body)
	closeErr := gz.Close()
	t.compressor.PutWriter(gz)
	if err := errors.Join(writeErr, closeErr); err != nil {
		return fmt.Errorf("compress document: %w", err)
	}
	header.Set(headerContentEncoding, t.compressor.Name())
	header.Set(headerContentLength, strconv.Itoa(compressed.Len()))
	t.writeHeader()
	_, err = compressed.WriteTo(t.writer)
	return err
}

func (t *httpTransport) StreamFile(file File) error {
	if t.finished {
		return errFinished
	}
	f, err := os.Open(file.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", file.Path)
	}
	header := t.writer.Header()
	contentType := mime.TypeByExtension(filepath.Ext(file.Path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set(headerContentType, contentType)
	header.Set(headerContentLength, strconv.FormatInt(info.Size(), 10))
	if file.Name != "" {
		disposition := mime.FormatMediaType("attachment", map[string]string{"filename": file.Name})
		if disposition != "" {
			header.Set(headerContentDisposition, disposition)
		}
	}
	t.writeHeader()
	if _, err := io.Copy(t.writer, f); err != nil {
		return fmt.Errorf("stream %s: %w", file.Path, err)
	}
	return nil
}

func (t *httpTransport) Finish() {
	t.finished = true
}

func (t *httpTransport) Finished() bool {
	return t.finished
}

func (t *httpTransport) writeHeader() {
	if t.wroteHeader {
		return
	}
	t.wroteHeader = true
	t.writer.WriteHeader(t.status)
}

// acceptsEncoding reports whether an Accept-Encoding header allows the named
// encoding, honoring "*" and q=0 exclusions.
func acceptsEncoding(header, name string) bool {
	wildcard := false
	for _, part := range strings.Split(header, ",") {
		token, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		token = strings.ToLower(strings.TrimSpace(token))
		if token != name && token != "*" {
			continue
		}
		rejected := false
		for _, param := range strings.Split(params, ";") {
			key, value, _ := strings.Cut(strings.TrimSpace(param), "=")
			if strings.EqualFold(key, "q") {
				if q, err := strconv.ParseFloat(value, 64); err == nil && q == 0 {
					rejected = true
				}
			}
		}
		if token == name {
			return !rejected
		}
		wildcard = !rejected
	}
	return wildcard
}
