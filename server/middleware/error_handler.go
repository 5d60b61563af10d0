// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"errors"
	"maps"
	"net/http"
	"net/http/httptest"

	"github.com/rs/zerolog/log"

	"codeberg.org/filekit/filekit/config"
	"codeberg.org/filekit/filekit/core/audit"
	"codeberg.org/filekit/filekit/core/metrics"
	"codeberg.org/filekit/filekit/server/request_context"
	"codeberg.org/filekit/filekit/server/routes"
)

// errNotFound stands in for handlers that answer 404 without an error.
var errNotFound = errors.New("page not found")

// HandlerWithError is an HTTP handler that reports failures by returning them.
type HandlerWithError func(w http.ResponseWriter, r *http.Request) error

// CatchError returns a wrapper for handlers that return an error, providing
// centralized error handling, response buffering, and request logging.
//
// The wrapped handler writes into an httptest.ResponseRecorder. Afterwards:
//   - If it returned an error without writing an error status (status < 400),
//     the buffered response is discarded and render is called with the status
//     from [routes.StatusFor] stored in the request context.
//   - If it wrote 404 Not Found, the buffered response is also replaced by
//     render.
//   - Otherwise the buffered response is written to the client.
//
// Cookies set by the handler survive an error response, so a session started
// by a failed request is not lost.
func CatchError(render http.HandlerFunc) func(HandlerWithError) http.HandlerFunc {
	return func(handler HandlerWithError) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx := request_context.FromRequest(r)

			span := audit.Span{
				Destination: audit.ToUser,
				RequestID:   ctx.RequestID,
				Method:      r.Method,
				URL:         r.URL.String(),
			}

			_ = span.Begin(r.Context())
			defer span.End()

			recorder := httptest.NewRecorder()

			err := handler(recorder, r)

			ctx.RequestError = err

			switch {
			case (err != nil && recorder.Code < http.StatusBadRequest) || recorder.Code == http.StatusNotFound:
				if err != nil {
					ctx.StatusCode = routes.StatusFor(err)
				} else {
					ctx.StatusCode = http.StatusNotFound
					ctx.RequestError = errNotFound
				}

				for _, cookie := range recorder.Header().Values("Set-Cookie") {
					w.Header().Add("Set-Cookie", cookie)
				}

				render(w, r)

			default:
				ctx.StatusCode = recorder.Code
				maps.Copy(w.Header(), recorder.Header())
				w.WriteHeader(recorder.Code)

				if _, err := recorder.Body.WriteTo(w); err != nil {
					log.Err(err).Msg("Failed to write response body")
				}
			}

			span.End()

			span.StatusCode = ctx.StatusCode
			span.Error = ctx.RequestError

			metrics.ObserveHTTP(r.Method, ctx.StatusCode, span.Duration().Seconds())

			if !config.Global.ShouldSkipServerLogging(r.URL.Path) {
				span.Log()
			}
		}
	}
}
