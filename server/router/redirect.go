// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"net/http"
)

// redirectToBase sends visitors of the bare host root to the home page
// under base, preserving the query string.
//
// Example:   /?x=1   ->   /tools?x=1
func redirectToBase(base string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := base
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}

		http.Redirect(w, r, target, http.StatusFound)
	}
}
