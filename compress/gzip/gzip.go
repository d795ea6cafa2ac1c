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

// Package gzip implements compress.Compressor with the standard library's
// compress/gzip.
package gzip

import (
	"compress/gzip"
	"io"
	"sync"

	"github.com/envelopekit/envelope/compress"
)

const (
	Name = "gzip"

	oneKiB = 1024
)

// Compressor uses the standard library's compress/gzip to implement
// compress.Compressor.
type Compressor struct {
	min     int
	writers sync.Pool
}

var _ compress.Compressor = (*Compressor)(nil)

// New creates a new Compressor. The compressor uses the standard library's
// gzip package with the default compression level, and it doesn't compress
// bodies of min bytes or fewer. A non-positive min means 1KiB.
func New(min int) *Compressor {
	if min <= 0 {
		min = oneKiB
	}
	return &Compressor{
		min: min,
		writers: sync.Pool{
			New: func() any {
				return gzip.NewWriter(io.Discard)
			},
		},
	}
}

func (c *Compressor) Name() string { return Name }

func (c *Compressor) ShouldCompress(bs []byte) bool {
	return len(bs) > c.min
}

func (c *Compressor) GetWriter(w io.Writer) io.WriteCloser {
	gzipWriter, ok := c.writers.Get().(*gzip.Writer)
	if !ok {
		return gzip.NewWriter(w)
	}
	gzipWriter.Reset(w)
	return gzipWriter
}

func (c *Compressor) PutWriter(w io.WriteCloser) {
	gzipWriter, ok := w.(*gzip.Writer)
	if !ok {
		return
	}
	if err := gzipWriter.Close(); err != nil { // close if we haven't already
		return
	}
	gzipWriter.Reset(io.Discard) // don't keep references
	c.writers.Put(gzipWriter)
}
