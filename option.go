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
	"net/http"

	"github.com/envelopekit/envelope/compress"
	"github.com/envelopekit/envelope/compress/gzip"
	"github.com/rs/zerolog"
)

// A HandlerOption configures a Handler, a Writer or an HTTP transport.
type HandlerOption interface {
	applyToHandler(*handlerConfig)
}

// WithLogger sets the logger used to report responses that fail to encode.
// By default, nothing is logged.
func WithLogger(logger zerolog.Logger) HandlerOption {
	return &loggerOption{logger: logger}
}

// WithCodec registers a codec, replacing any codec with the same content
// type. By default, handlers write JSON and, for clients that accept
// application/protobuf, binary protobuf.
func WithCodec(codec Codec) HandlerOption {
	return &codecOption{codec: codec}
}

// WithCompressMinBytes sets a minimum size threshold for compression:
// bodies of that many bytes or fewer are sent uncompressed. The default is
// 1KiB.
func WithCompressMinBytes(min int) HandlerOption {
	return &compressMinBytesOption{min: min}
}

// WithCompressor replaces the default gzip compressor.
func WithCompressor(compressor compress.Compressor) HandlerOption {
	return &compressorOption{compressor: compressor}
}

// WithoutCompression disables response compression.
func WithoutCompression() HandlerOption {
	return &compressorOption{}
}

// WithHandlerOptions composes multiple HandlerOptions into one.
func WithHandlerOptions(options ...HandlerOption) HandlerOption {
	return &handlerOptionsOption{options: options}
}

type handlerConfig struct {
	Logger           zerolog.Logger
	Codecs           []Codec
	Compressor       compress.Compressor
	CompressMinBytes int
	RecoverPanic     func(context.Context, *http.Request, any) error
	customCompressor bool
}

func newHandlerConfig(options []HandlerOption) *handlerConfig {
	config := handlerConfig{
		Logger: zerolog.Nop(),
		Codecs: []Codec{&codecJSON{}, &codecProtobuf{}},
	}
	for _, opt := range options {
		opt.applyToHandler(&config)
	}
	if !config.customCompressor {
		config.Compressor = gzip.New(config.CompressMinBytes)
	}
	return &config
}

type loggerOption struct {
	logger zerolog.Logger
}

func (o *loggerOption) applyToHandler(config *handlerConfig) {
	config.Logger = o.logger
}

type codecOption struct {
	codec Codec
}

func (o *codecOption) applyToHandler(config *handlerConfig) {
	if o.codec == nil {
		return
	}
	for i, existing := range config.Codecs {
		if existing.ContentType() == o.codec.ContentType() {
			config.Codecs[i] = o.codec
			return
		}
	}
	config.Codecs = append(config.Codecs, o.codec)
}

type compressMinBytesOption struct {
	min int
}

func (o *compressMinBytesOption) applyToHandler(config *handlerConfig) {
	config.CompressMinBytes = o.min
}

type compressorOption struct {
	compressor compress.Compressor
}

func (o *compressorOption) applyToHandler(config *handlerConfig) {
	config.Compressor = o.compressor
	config.customCompressor = true
}

type handlerOptionsOption struct {
	options []HandlerOption
}

func (o *handlerOptionsOption) applyToHandler(config *handlerConfig) {
	for _, option := range o.options {
		option.applyToHandler(config)
	}
}
