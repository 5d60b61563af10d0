// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"codeberg.org/filekit/filekit/core/navigation"
	"codeberg.org/filekit/filekit/server/utils"
	"codeberg.org/filekit/filekit/views"
)

// Headers understood by the navigation script, named after their htmx
// counterparts.
const (
	headerPushURL = "HX-Push-Url"
	headerReswap  = "HX-Reswap"
)

// Navigate swaps the active view of the session to ?to=, a path relative to
// the base segment, and answers with the view fragment.
//
// A navigation overtaken by a newer one of the same session is answered with
// 204 No Content so the client keeps whatever the newer one shows.
func (s *Site) Navigate(w http.ResponseWriter, r *http.Request) error {
	to := utils.SanitizeReturnPath(utils.GetQueryParam(r, "to", "/"))
	if to == "" {
		return errBadNavigationTarget
	}

	state, err := s.navigateSession(w, r, s.Table.Join(utils.StripQuery(to)))

	return s.writeNavigation(w, r, state, err)
}

// navigateSession navigates the session of r to path. Paths that name no
// route never create a session; an existing one still records the failure.
func (s *Site) navigateSession(w http.ResponseWriter, r *http.Request, path string) (navigation.State, error) {
	if _, err := s.Table.Resolve(path); err != nil {
		sess, ok := s.Sessions.Lookup(r)
		if !ok {
			return navigation.State{}, err
		}

		return sess.Navigator.Navigate(r.Context(), path)
	}

	return s.Sessions.Get(w, r).Navigator.Navigate(r.Context(), path)
}

// Back moves the session to the previous path in its history.
func (s *Site) Back(w http.ResponseWriter, r *http.Request) error {
	sess, ok := s.Sessions.Lookup(r)
	if !ok {
		w.WriteHeader(http.StatusNoContent)

		return nil
	}

	state, err := sess.Navigator.Back(r.Context())
	if errors.Is(err, navigation.ErrNoHistory) {
		w.WriteHeader(http.StatusNoContent)

		return nil
	}

	return s.writeNavigation(w, r, state, err)
}

func (s *Site) writeNavigation(w http.ResponseWriter, r *http.Request, state navigation.State, err error) error {
	if errors.Is(err, navigation.ErrSuperseded) {
		w.WriteHeader(http.StatusNoContent)

		return nil
	}

	if err != nil {
		return err
	}

	w.Header().Set(headerPushURL, state.Path)
	w.Header().Set("Vary", "HX-Request")
	w.Header().Set("Cache-Control", "no-store")

	return views.Fragment(s.Table.Base(), state.View).Render(r.Context(), w)
}

// stateResponse is the JSON form of a navigation.State.
type stateResponse struct {
	Phase      string `json:"phase"`
	Path       string `json:"path,omitempty"`
	Route      string `json:"route,omitempty"`
	Title      string `json:"title,omitempty"`
	Generation uint64 `json:"generation"`
	Error      string `json:"error,omitempty"`
	History    int    `json:"history"`
}

// State reports the navigation state of the session as JSON.
func (s *Site) State(w http.ResponseWriter, r *http.Request) error {
	resp := stateResponse{Phase: navigation.Idle.String()}

	if sess, ok := s.Sessions.Lookup(r); ok {
		state := sess.Navigator.State()

		resp = stateResponse{
			Phase:      state.Phase.String(),
			Path:       state.Path,
			Route:      state.Route,
			Generation: state.Generation,
			History:    sess.History.Len(),
		}

		if state.View != nil {
			resp.Title = state.View.Title()
		}

		if state.Err != nil {
			resp.Error = state.Err.Error()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	return json.NewEncoder(w).Encode(resp)
}
