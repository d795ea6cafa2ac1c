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


package memhttp

import (
	"time"

	"github.com/rs/zerolog"
)

// An Option configures a Server.
type Option interface {
	apply(*config)
}

type config struct {
	logger          zerolog.Logger
	http1Only       bool
	shutdownTimeout time.Duration
}

type optionFunc func(*config)

func (f optionFunc) apply(cfg *config) { f(cfg) }

// WithLogger sends the server's internal errors, such as failed TLS or h2c
// handshakes, to logger. By default they're discarded.
func WithLogger(logger zerolog.Logger) Option {
	return optionFunc(func(cfg *config) {
		cfg.logger = logger
	})
}

// WithoutHTTP2 serves and dials HTTP/1.1 only.
func WithoutHTTP2() Option {
	return optionFunc(func(cfg *config) {
		cfg.http1Only = true
	})
}

// WithShutdownTimeout bounds how long Cleanup waits for in-flight requests.
// The default is five seconds.
func WithShutdownTimeout(d time.Duration) Option {
	return optionFunc(func(cfg *config) {
		cfg.shutdownTimeout = d
	})
}
