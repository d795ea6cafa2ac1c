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
	"net/http"
	"strconv"
	"time"

	"github.com/envelopekit/envelope"
	"github.com/envelopekit/envelope/validation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// observer logs and counts every request a route answers, labeled by the
// response variant the route's Func produced.
type observer struct {
	logger   zerolog.Logger
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newObserver(logger zerolog.Logger) *observer {
	labels := []string{"route", "method", "status", "variant"}
	o := &observer{
		logger:   logger,
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "envelope",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests.",
			},
			labels,
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "envelope",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			labels,
		),
	}
	o.registry.MustRegister(
		o.requests,
		o.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return o
}

// metricsHandler serves the observer's registry in the Prometheus text
// format.
func (o *observer) metricsHandler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

// route builds the envelope Handler for fn and wraps it so each request is
// logged and recorded under route.
func (o *observer) route(route string, fn envelope.Func, options ...envelope.HandlerOption) http.Handler {
	handler := envelope.NewHandler(recordVariant(fn), options...)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		slot := &variantSlot{variant: "none"}
		recorder := &statusRecorder{ResponseWriter: w}
		handler.ServeHTTP(recorder, r.WithContext(context.WithValue(r.Context(), variantKey{}, slot)))
		o.record(route, r, recorder, slot.variant, time.Since(start))
	})
}

func (o *observer) record(route string, r *http.Request, w *statusRecorder, variant string, elapsed time.Duration) {
	status := w.Status()
	statusLabel := strconv.Itoa(status)
	o.requests.WithLabelValues(route, r.Method, statusLabel, variant).Inc()
	o.duration.WithLabelValues(route, r.Method, statusLabel, variant).Observe(elapsed.Seconds())

	event := o.logger.Info()
	if status >= 500 {
		event = o.logger.Error()
	} else if status >= 400 {
		event = o.logger.Warn()
	}
	event.
		Str("method", r.Method).
		Str("route", route).
		Str("path", r.URL.Path).
		Int("status", status).
		Str("variant", variant).
		Dur("duration", elapsed).
		Str("client_ip", r.RemoteAddr).
		Int("bytes", w.size).
		Msg("http_request")
}

type variantKey struct{}

type variantSlot struct {
	variant string
}

// recordVariant stores the name of what fn returned in the request's
// variantSlot, if it has one.
func recordVariant(fn envelope.Func) envelope.Func {
	return func(ctx context.Context, r *http.Request) (any, error) {
		value, err := fn(ctx, r)
		if slot, ok := ctx.Value(variantKey{}).(*variantSlot); ok {
			slot.variant = variantName(value, err)
		}
		return value, err
	}
}

func variantName(value any, err error) string {
	if err != nil {
		errs, single, ok := validation.As(err)
		switch {
		case !ok:
			return "failure"
		case single || len(errs) == 1:
			return envelope.VariantError.String()
		default:
			return envelope.VariantErrors.String()
		}
	}
	if value == nil {
		return envelope.VariantOK.String()
	}
	response, ok := value.(envelope.Response)
	if !ok {
		return "value"
	}
	for response != nil {
		either, ok := response.(interface{ Active() envelope.Response })
		if !ok {
			return response.Variant().String()
		}
		response = either.Active()
	}
	return "none"
}

// statusRecorder remembers the status and body size written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusRecorder) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.size += n
	return n, err
}

// Status returns the status sent to the client. Handlers that never write
// answer 200.
func (w *statusRecorder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
