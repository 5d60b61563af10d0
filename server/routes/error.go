// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"codeberg.org/filekit/filekit/server/request_context"
	"codeberg.org/filekit/filekit/views"
)

// ErrorPage writes the status code from the request context and renders
// its error.
//
// Navigation requests get the bare error block together with
// "HX-Reswap: none", which leaves the previously shown view in place.
func (s *Site) ErrorPage(w http.ResponseWriter, r *http.Request) {
	rc := request_context.FromRequest(r)

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	data := views.ErrorData{
		Title:      "Error",
		StatusCode: rc.StatusCode,
		Error:      rc.RequestError,
	}

	var err error

	if rc.Fragment {
		w.Header().Set(headerReswap, "none")
		w.WriteHeader(rc.StatusCode)

		err = views.ErrorContent(data).Render(views.WithBase(r.Context(), s.Table.Base()), w)
	} else {
		w.WriteHeader(rc.StatusCode)

		err = views.Page(s.pageData(data.Title, "", views.ErrorContent(data))).Render(r.Context(), w)
	}

	if err != nil {
		log.Err(err).
			Str("request_id", rc.RequestID).
			Msg("Failed to render the error page")
	}
}
