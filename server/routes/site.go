// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package routes holds the HTTP handlers of filekit.

Handlers return errors instead of writing error responses themselves;
middleware.CatchError turns them into an error page, or an error fragment for
in-page navigation requests, using [StatusFor] and [Site.ErrorPage].
*/
package routes

import (
	"errors"
	"net/http"

	"github.com/a-h/templ"

	"codeberg.org/filekit/filekit/config"
	"codeberg.org/filekit/filekit/core/loader"
	"codeberg.org/filekit/filekit/core/navigation"
	"codeberg.org/filekit/filekit/core/routetable"
	"codeberg.org/filekit/filekit/server/session"
	"codeberg.org/filekit/filekit/views"
)

// errBadNavigationTarget is returned for /nav requests whose target is not a
// same-origin path.
var errBadNavigationTarget = errors.New("navigation target must be a same-origin path")

// Site serves the pages of one route table.
type Site struct {
	Table     *routetable.Table
	Activator navigation.Activator
	Sessions  *session.Store
}

// StatusFor maps a handler error to the HTTP status reported to the client.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, routetable.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadNavigationTarget):
		return http.StatusBadRequest
	case errors.Is(err, loader.ErrLoadFailure):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// navLinks lists every route for the navigation bar.
func (s *Site) navLinks() []views.NavLink {
	routes := s.Table.Routes()
	links := make([]views.NavLink, 0, len(routes))

	for _, def := range routes {
		links = append(links, views.NavLink{
			Name:  def.Name,
			Label: def.Title,
			URL:   s.Table.Join(def.Path),
		})
	}

	return links
}

// pageData wraps content in the document shell.
func (s *Site) pageData(title, current string, content templ.Component) views.PageData {
	return views.PageData{
		Title:   title,
		Base:    s.Table.Base(),
		Version: config.BuildVersion,
		Current: current,
		Nav:     s.navLinks(),
		Content: content,
	}
}
