// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package routetable maps request paths to view routes.

A Table is built once by Configure and never changes afterwards, so it can
be shared by every request and navigation without locking. Matching is
exact string equality on the path left after removing the base segment.
*/
package routetable

import (
	"strings"

	"codeberg.org/filekit/filekit/views"
)

// Definition is one navigable page.
type Definition struct {
	// Path is the URL path relative to the base segment, starting with "/".
	Path string

	// Name identifies the route for programmatic navigation.
	Name string

	// Title labels the route in navigation menus. Defaults to Name.
	Title string

	// View is the view module key the loader was built from.
	View string

	// Loader produces the view implementation on demand.
	Loader views.LoadFunc
}

// Table is an immutable, ordered set of route definitions.
type Table struct {
	base   string
	routes []Definition
	byPath map[string]*Definition
	byName map[string]*Definition
}

// Configure validates routes and builds a Table mounted under baseSegment.
//
// Duplicate paths or names, paths not starting with "/", empty names and
// missing loaders are rejected with a *ConfigurationError.
func Configure(baseSegment string, routes []Definition) (*Table, error) {
	table := &Table{
		base:   normalizeBase(baseSegment),
		routes: make([]Definition, len(routes)),
		byPath: make(map[string]*Definition, len(routes)),
		byName: make(map[string]*Definition, len(routes)),
	}

	copy(table.routes, routes)

	pathIndex := make(map[string]int, len(routes))
	nameIndex := make(map[string]int, len(routes))

	for i := range table.routes {
		def := &table.routes[i]

		switch {
		case !strings.HasPrefix(def.Path, "/"):
			return nil, &ConfigurationError{Err: ErrInvalidRoute, Field: "path", Value: def.Path, Index: i, Other: -1}
		case def.Name == "":
			return nil, &ConfigurationError{Err: ErrInvalidRoute, Field: "name", Value: def.Name, Index: i, Other: -1}
		case def.Loader == nil:
			return nil, &ConfigurationError{Err: ErrInvalidRoute, Field: "loader", Value: def.Name, Index: i, Other: -1}
		}

		if prev, ok := pathIndex[def.Path]; ok {
			return nil, &ConfigurationError{Err: ErrDuplicatePath, Field: "path", Value: def.Path, Index: i, Other: prev}
		}

		if prev, ok := nameIndex[def.Name]; ok {
			return nil, &ConfigurationError{Err: ErrDuplicateName, Field: "name", Value: def.Name, Index: i, Other: prev}
		}

		if def.Title == "" {
			def.Title = def.Name
		}

		pathIndex[def.Path] = i
		nameIndex[def.Name] = i
		table.byPath[def.Path] = def
		table.byName[def.Name] = def
	}

	return table, nil
}

// Resolve returns the route whose path equals requestedPath once the base
// segment is removed. It returns a *NotFoundError otherwise.
func (t *Table) Resolve(requestedPath string) (*Definition, error) {
	rel, ok := t.strip(requestedPath)
	if !ok {
		return nil, &NotFoundError{Path: requestedPath}
	}

	if def, ok := t.byPath[rel]; ok {
		return def, nil
	}

	return nil, &NotFoundError{Path: requestedPath}
}

// Lookup returns the route called name.
func (t *Table) Lookup(name string) (*Definition, bool) {
	def, ok := t.byName[name]

	return def, ok
}

// URL returns the full request path for the route called name.
func (t *Table) URL(name string) (string, error) {
	def, ok := t.byName[name]
	if !ok {
		return "", &NotFoundError{Name: name}
	}

	return t.Join(def.Path), nil
}

// Join prefixes path with the base segment.
//
// The root path under a non-empty base is the base itself, so it survives
// trailing slash normalization.
func (t *Table) Join(path string) string {
	if t.base == "" {
		return path
	}

	if path == "/" {
		return t.base
	}

	return t.base + path
}

// Routes returns a copy of the definitions in configuration order.
func (t *Table) Routes() []Definition {
	routes := make([]Definition, len(t.routes))
	copy(routes, t.routes)

	return routes
}

// Base returns the normalized base segment, "" when mounted at the root.
func (t *Table) Base() string {
	return t.base
}

// strip removes the base segment from requestedPath. The second result is
// false when requestedPath lies outside the base.
func (t *Table) strip(requestedPath string) (string, bool) {
	if t.base == "" {
		return requestedPath, true
	}

	rest, ok := strings.CutPrefix(requestedPath, t.base)
	if !ok {
		return "", false
	}

	switch {
	case rest == "":
		return "/", true
	case rest[0] != '/':
		// "/basement" is not under "/base".
		return "", false
	}

	return rest, true
}

func normalizeBase(base string) string {
	base = strings.TrimSpace(base)
	base = strings.TrimRight(base, "/")

	if base == "" {
		return ""
	}

	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}

	return base
}
