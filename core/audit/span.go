// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import (
	"context"
	"encoding/base64"
	"runtime/trace"
	"strconv"
	"time"

	servertiming "github.com/mitchellh/go-server-timing"
	"github.com/rs/zerolog/log"
)

// Span represents an HTTP request or a view load in flight.
type Span struct {
	// only these fields are set automatically
	task     *trace.Task
	start    time.Time
	duration time.Duration
	metric   *servertiming.Metric

	Destination TrafficDestination
	RequestID   string
	Method      string
	URL         string
	Route       string
	StatusCode  int
	Error       error
}

// TrafficDestination describes what a span measures.
type TrafficDestination string

// Constants for traffic destinations.
const (
	ToUser   TrafficDestination = "user"
	ToLoader TrafficDestination = "loader"
)

func (span Span) ServerTimingName() string {
	// base64 without trailing '=' to match the header token syntax
	subject := span.URL
	if span.Destination == ToLoader {
		subject = span.Route
	}

	return string(span.Destination) + "$" + span.Method + "$" + base64.RawURLEncoding.EncodeToString([]byte(subject))
}

func (span *Span) Begin(ctx context.Context) context.Context {
	span.start = time.Now()

	ctx, span.task = trace.NewTask(ctx, "filekit."+string(span.Destination))
	if servertimingContext := servertiming.FromContext(ctx); servertimingContext != nil {
		span.metric = servertimingContext.NewMetric(span.ServerTimingName())
		span.metric.Extra = make(map[string]string)
		span.metric.Extra["start"] = strconv.FormatFloat(float64(span.start.UnixNano())/float64(time.Millisecond), 'f', -1, 64)
	}

	return ctx
}

// End stops the clock. Calling it more than once is harmless.
func (span *Span) End() {
	if span.task != nil {
		span.duration = time.Since(span.start)
		span.task.End()

		if span.metric != nil {
			span.metric.Duration = span.duration
		}

		span.task = nil
	}
}

// Duration is the measured time, valid after End.
func (span Span) Duration() time.Duration {
	return span.duration
}

func (span Span) Log() {
	event := log.Debug()

	if span.Destination == ToLoader {
		event.Str("sys", "loader")
		event.Str("route", span.Route)
	} else {
		event.Str("sys", "http")
		event.Str("method", span.Method)
		event.Str("url", span.URL)
		event.Int("status_code", span.StatusCode)
	}

	event.Dur("dur", span.duration)
	event.Str("destination", string(span.Destination))

	if span.RequestID != "" {
		event.Str("request_id", span.RequestID)
	}

	if span.Error != nil {
		event.Err(span.Error)
	}

	event.Send()
}
