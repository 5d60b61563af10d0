// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"errors"
	"net/http"

	"codeberg.org/filekit/filekit/core/navigation"
	"codeberg.org/filekit/filekit/views"
)

// ViewPage serves a full document for any path under the base segment.
//
// The request goes through the session navigator so that later fragment
// navigations and back requests start from this page.
func (s *Site) ViewPage(w http.ResponseWriter, r *http.Request) error {
	state, err := s.navigateSession(w, r, r.URL.Path)
	if errors.Is(err, navigation.ErrSuperseded) {
		// Another request of this browser won the race. This document
		// still has to show what its URL names.
		return s.renderDetached(w, r)
	}

	if err != nil {
		return err
	}

	return views.Page(s.pageData(state.View.Title(), state.Route, state.View)).Render(r.Context(), w)
}

// renderDetached resolves and renders r.URL.Path without touching any
// navigation state.
func (s *Site) renderDetached(w http.ResponseWriter, r *http.Request) error {
	def, err := s.Table.Resolve(r.URL.Path)
	if err != nil {
		return err
	}

	v, err := s.Activator.Activate(r.Context(), def)
	if err != nil {
		return err
	}

	return views.Page(s.pageData(v.Title(), def.Name, v)).Render(r.Context(), w)
}

// OutsideBase answers requests that do not fall under the base segment.
func (s *Site) OutsideBase(_ http.ResponseWriter, r *http.Request) error {
	_, err := s.Table.Resolve(r.URL.Path)

	return err
}
