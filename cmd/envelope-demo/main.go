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

// envelope-demo serves a small in-memory book catalog that exercises every
// response variant:
//
//	GET  /ok             OK
//	GET  /books          Listing, paginated with ?cursor= and ?limit=
//	GET  /books/{id}     Either an Error or the book as Data
//	POST /books?title=   Errors if the input is invalid, else Data
//	GET  /files/{name}   File, served from server.files
//	GET  /stats          a plain value, encoded without an envelope variant
//	GET  /metrics        Prometheus metrics for the routes above
//
// Every route is logged and counted by status and response variant.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/envelopekit/envelope"
	"github.com/envelopekit/envelope/config"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath, os.Environ())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	options := []envelope.HandlerOption{
		envelope.WithLogger(logger),
		envelope.WithCompressMinBytes(cfg.Server.CompressMinBytes),
	}
	if !cfg.Server.Gzip {
		options = append(options, envelope.WithoutCompression())
	}
	catalog := newCatalog()
	mux := newMux(catalog, cfg, newObserver(logger), options...)

	server := &http.Server{
		Addr: cfg.Server.Addr,
		// HTTP/2 without TLS, for clients on a trusted network.
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("listening")
		serveErr <- server.ListenAndServe()
	}()
	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newMux(catalog *catalog, cfg config.Config, obs *observer, options ...envelope.HandlerOption) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ok", obs.route("/ok", func(context.Context, *http.Request) (any, error) {
		return envelope.OK{}, nil
	}, options...))
	mux.Handle("/books", obs.route("/books", func(_ context.Context, r *http.Request) (any, error) {
		if r.Method == http.MethodPost {
			created, err := catalog.add(r.URL.Query().Get("title"), r.URL.Query().Get("published"))
			if err != nil {
				return nil, err
			}
			return created, nil
		}
		page, err := envelope.PageRequestFromQuery(r.URL.Query(), cfg.Listing.Limit, cfg.Listing.Max)
		if err != nil {
			return nil, err
		}
		return envelope.NewListing(catalog.list(page)), nil
	}, options...))
	mux.Handle("/books/", obs.route("/books/{id}", func(_ context.Context, r *http.Request) (any, error) {
		return catalog.get(strings.TrimPrefix(r.URL.Path, "/books/")), nil
	}, options...))
	mux.Handle("/files/", obs.route("/files/{name}", func(_ context.Context, r *http.Request) (any, error) {
		name := filepath.Base(strings.TrimPrefix(r.URL.Path, "/files/"))
		return envelope.File{Path: filepath.Join(cfg.Server.Files, name), Name: name}, nil
	}, options...))
	mux.Handle("/stats", obs.route("/stats", func(context.Context, *http.Request) (any, error) {
		return catalog.stats(), nil
	}, options...))
	mux.Handle("/metrics", obs.metricsHandler())
	return mux
}
