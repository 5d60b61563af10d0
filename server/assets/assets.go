// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package assets provides access to the application's embedded static assets.
*/
package assets

import (
	"embed"
	"fmt"
	"io/fs"
)

// FS provides access to the embedded file system. It is assigned by package
// main, which owns the assets directory.
var FS embed.FS

// Root returns the assets directory itself: css/, js/ and views/.
func Root() (fs.FS, error) {
	root, err := fs.Sub(FS, "assets")
	if err != nil {
		return nil, fmt.Errorf("failed to create sub-filesystem for embedded 'assets' directory: %w", err)
	}

	return root, nil
}
