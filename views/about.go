// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package views

// AboutData is the data used to render the about view.
type AboutData struct {
	Version   string
	Revision  string
	StartedAt string
	Instance  string
	RepoURL   string
	Tools     []NavLink
}
