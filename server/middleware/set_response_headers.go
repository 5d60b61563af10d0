// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"maps"
	"net/http"
	"strings"
	"sync/atomic"

	"codeberg.org/filekit/filekit/config"
)

var (
	// baseHeaders defines the default headers to be set in responses.
	//
	// Filekit-Version and Filekit-Revision are added dynamically in SetResponseHeaders.
	//
	// NOTE: we intentionally don't set CORP or HSTS headers.
	baseHeaders = http.Header{
		"Referrer-Policy":         {"no-referrer"},
		"X-Frame-Options":         {"DENY"},
		"X-Content-Type-Options":  {"nosniff"},
		"Permissions-Policy":      {strings.Join(defaultPermissionsPolicy, ", ")},
		"Content-Security-Policy": {strings.Join(csp, "; ") + ";"},
	}

	// Files are processed in the browser, so object URLs must be allowed
	// for previews, downloads and workers.
	csp = []string{
		"base-uri 'self'",
		"default-src 'self'",
		"script-src 'self'",
		"style-src 'self'",
		"font-src 'self'",
		"connect-src 'self'",
		"img-src 'self' data: blob:",
		"media-src 'self' blob:",
		"worker-src 'self' blob:",
		"form-action 'self'",
		"frame-ancestors 'none'",
	}

	defaultPermissionsPolicy = []string{
		"accelerometer=()",
		"ambient-light-sensor=()",
		"battery=()",
		"camera=()",
		"display-capture=()",
		"geolocation=()",
		"gyroscope=()",
		"magnetometer=()",
		"microphone=()",
		"payment=()",
		"usb=()",
		"xr-spatial-tracking=()",
	}
)

// SetResponseHeaders adds default headers to HTTP responses.
func SetResponseHeaders(w http.ResponseWriter, r *http.Request, next http.Handler) {
	headers := w.Header()

	maps.Insert(headers, maps.All(baseHeaders))

	if config.Global.Development.InDevelopment {
		invalidateCacheInDevelopment(headers)
	}

	setCacheControl(headers)

	headers.Set("Filekit-Version", config.BuildVersion)
	headers.Set("Filekit-Revision", config.Global.Build.Revision())

	next.ServeHTTP(w, r)
}

var clearedDevCache atomic.Bool

// invalidateCacheInDevelopment clears the browser cache on the first
// response after a restart.
func invalidateCacheInDevelopment(headers http.Header) {
	if clearedDevCache.CompareAndSwap(false, true) {
		headers.Set("Clear-Site-Data", `"cache"`)
	}
}

// setCacheControl sets the default Cache-Control. Static files and pages
// with their own caching policy override it.
func setCacheControl(headers http.Header) {
	// Default to only storing in the browser cache and forcing revalidation
	headers.Set("Cache-Control", "private, no-cache")
}
