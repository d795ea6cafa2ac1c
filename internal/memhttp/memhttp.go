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


// Package memhttp runs net/http servers over in-memory pipes, so tests can
// drive a handler through a real client, codec negotiation and compression
// included, without opening sockets.
package memhttp

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Server serves a handler over in-memory pipes. Unless WithoutHTTP2 is
// used, it speaks both HTTP/1.1 and cleartext HTTP/2.
type Server struct {
	server          http.Server
	listener        *pipeListener
	http1Only       bool
	shutdownTimeout time.Duration

	done chan struct{}
	err  error
}

// New starts serving handler. Stop the server with Shutdown, Cleanup or
// Close.
func New(handler http.Handler, options ...Option) *Server {
	cfg := config{
		logger:          zerolog.Nop(),
		shutdownTimeout: 5 * time.Second,
	}
	for _, option := range options {
		option.apply(&cfg)
	}
	if !cfg.http1Only {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}
	s := &Server{
		server: http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ErrorLog:          log.New(cfg.logger, "" /* prefix */, 0),
		},
		listener:        newPipeListener(),
		http1Only:       cfg.http1Only,
		shutdownTimeout: cfg.shutdownTimeout,
		done:            make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		s.err = s.server.Serve(s.listener)
	}()
	return s
}

// URL is the base URL clients from this server should request.
func (s *Server) URL() string {
	return "http://" + s.listener.Addr().String()
}

// Client returns a new client that dials this server. It speaks HTTP/2
// unless the server was started WithoutHTTP2. Like any net/http client, it
// asks for gzip and decompresses responses transparently.
func (s *Server) Client() *http.Client {
	if s.http1Only {
		return &http.Client{Transport: &http.Transport{
			DialContext: s.listener.dial,
			// Idle keep-alive connections would hold Shutdown open.
			DisableKeepAlives: true,
		}}
	}
	return &http.Client{Transport: &http2.Transport{
		AllowHTTP: true,
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			return s.listener.dial(ctx, network, addr)
		},
	}}
}

// Shutdown stops accepting connections and waits for in-flight requests,
// like http.Server.Shutdown, then for the serve loop to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	<-s.done
	if errors.Is(s.err, http.ErrServerClosed) {
		return nil
	}
	return s.err
}

// Cleanup is Shutdown bounded by the configured shutdown timeout.
func (s *Server) Cleanup() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// Close stops the server without waiting for in-flight requests.
func (s *Server) Close() error {
	return s.server.Close()
}
