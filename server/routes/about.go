// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"fmt"
	"net/http"

	"codeberg.org/filekit/filekit/config"
	"codeberg.org/filekit/filekit/server/utils"
	"codeberg.org/filekit/filekit/views"
)

// AboutPage is the handler for the /about page.
func (s *Site) AboutPage(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d",
		int(config.Global.HTTPCache.MaxAge.Seconds()),
		int(config.Global.HTTPCache.StaleWhileRevalidate.Seconds())))

	content := views.About(views.AboutData{
		Version:   config.BuildVersion,
		Revision:  config.Global.Build.Revision(),
		StartedAt: config.Global.Instance.StartingTime,
		Instance:  utils.GetOriginFromRequest(r) + s.Table.Base(),
		RepoURL:   config.Global.Instance.RepoURL,
		Tools:     s.navLinks(),
	})

	return views.Page(s.pageData("About", "", content)).Render(r.Context(), w)
}

// Healthz reports that the process is serving requests.
func Healthz(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	_, err := w.Write([]byte("ok\n"))

	return err
}
