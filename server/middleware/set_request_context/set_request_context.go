// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package set_request_context

import (
	"net/http"

	"codeberg.org/filekit/filekit/server/request_context"
)

// WithRequestContext is a middleware that attaches a RequestContext to each
// HTTP request and echoes its ID in the response headers.
func WithRequestContext(w http.ResponseWriter, r *http.Request, next http.Handler) {
	ctx := request_context.WithRequestContext(r.Context(), r)

	w.Header().Set(request_context.RequestIDHeader, request_context.FromContext(ctx).RequestID)

	next.ServeHTTP(w, r.WithContext(ctx))
}
