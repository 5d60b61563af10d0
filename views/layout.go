// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package views

import (
	"net/http"
	"strconv"

	"github.com/a-h/templ"
)

// NavLink is one entry in the page navigation bar.
type NavLink struct {
	Name  string
	Label string
	URL   string
}

// PageData is the data used to render a full page.
type PageData struct {
	Title   string
	Base    string
	Version string
	Current string // name of the active route
	Nav     []NavLink
	Content templ.Component
}

// ErrorData is the data used to render an error view.
type ErrorData struct {
	Title      string
	StatusCode int
	Error      error
}

// statusLine returns e.g. "404 Not Found".
func (data ErrorData) statusLine() string {
	text := http.StatusText(data.StatusCode)
	if text == "" {
		text = "Error"
	}

	return strconv.Itoa(data.StatusCode) + " " + text
}
