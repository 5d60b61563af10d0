// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"
	"strings"
)

// NormalizeURL redirects paths with a trailing slash (except the root) to
// the same path without it.
func NormalizeURL(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if hasTrailingSlash(r) {
		removeTrailingSlash(w, r)

		return
	}

	next.ServeHTTP(w, r)
}

// hasTrailingSlash checks if a request path has a trailing slash (except root).
func hasTrailingSlash(r *http.Request) bool {
	return r.URL.Path != "/" && strings.HasSuffix(r.URL.Path, "/")
}

// removeTrailingSlash removes trailing slashes and redirects.
func removeTrailingSlash(w http.ResponseWriter, r *http.Request) {
	target := *r.URL
	target.Scheme = ""
	target.Host = ""
	target.User = nil

	// "//host/" must not become a protocol-relative redirect.
	target.Path = "/" + strings.Trim(target.Path, "/")
	target.RawPath = ""

	http.Redirect(w, r, target.String(), http.StatusPermanentRedirect)
}
