// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"
	"sync"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog/log"
)

// compressMinSize is the smallest response body worth compressing.
const compressMinSize = 512

var gzipWrapper = sync.OnceValue(func() func(http.Handler) http.HandlerFunc {
	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(compressMinSize),
		gzhttp.ContentTypes([]string{
			"text/html",
			"text/css",
			"text/plain",
			"text/javascript",
			"application/javascript",
			"application/json",
			"image/svg+xml",
		}),
	)
	if err != nil {
		log.Panic().Err(err).Msg("Invalid gzip wrapper options")
	}

	return wrapper
})

// Compress gzips responses for clients that accept it.
func Compress(w http.ResponseWriter, r *http.Request, next http.Handler) {
	gzipWrapper()(next).ServeHTTP(w, r)
}
