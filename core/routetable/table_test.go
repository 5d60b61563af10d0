// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routetable

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/filekit/filekit/views"
)

func nopLoader(context.Context) (views.View, error) {
	return nil, errors.New("not used")
}

func testRoutes() []Definition {
	var routes []Definition

	for _, desc := range DefaultDescriptors() {
		routes = append(routes, Definition{Path: desc.Path, Name: desc.Name, View: desc.View, Loader: nopLoader})
	}

	return routes
}

func TestResolveExactMatch(t *testing.T) {
	t.Parallel()

	table, err := Configure("", testRoutes())
	require.NoError(t, err)

	for _, route := range testRoutes() {
		def, err := table.Resolve(route.Path)
		require.NoError(t, err, route.Path)
		assert.Equal(t, route.Name, def.Name, "path %q", route.Path)
	}
}

func TestResolveNotFound(t *testing.T) {
	t.Parallel()

	table, err := Configure("", testRoutes())
	require.NoError(t, err)

	for _, path := range []string{
		"/does-not-exist",
		"",
		"image-compress",
		"/image-compress/",
		"/IMAGE-COMPRESS",
		"/image-compress?x=1",
		"//",
	} {
		def, err := table.Resolve(path)
		assert.Nil(t, def, path)
		require.ErrorIs(t, err, ErrNotFound, path)

		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, path, notFound.Path)
	}
}

func TestResolveWithBase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		base     string
		path     string
		wantName string
	}{
		{name: "root under base", base: "/tools", path: "/tools", wantName: "home"},
		{name: "root with slash under base", base: "/tools", path: "/tools/", wantName: "home"},
		{name: "page under base", base: "/tools/", path: "/tools/image-compress", wantName: "image-compress"},
		{name: "base without leading slash", base: "tools", path: "/tools/p-score-edit", wantName: "p-score-edit"},
		{name: "slash base is root", base: "/", path: "/pdf-compress", wantName: "pdfCompress"},
		{name: "outside base", base: "/tools", path: "/image-compress"},
		{name: "prefix but not segment", base: "/tools", path: "/toolsimage-compress"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			table, err := Configure(tt.base, testRoutes())
			require.NoError(t, err)

			def, err := table.Resolve(tt.path)
			if tt.wantName == "" {
				require.ErrorIs(t, err, ErrNotFound)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantName, def.Name)
		})
	}
}

func TestConfigureRejectsInvalidTables(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		routes  []Definition
		wantErr error
		field   string
	}{
		{
			name: "duplicate path",
			routes: []Definition{
				{Path: "/a", Name: "a", Loader: nopLoader},
				{Path: "/a", Name: "b", Loader: nopLoader},
			},
			wantErr: ErrDuplicatePath,
			field:   "path",
		},
		{
			name: "duplicate name",
			routes: []Definition{
				{Path: "/a", Name: "a", Loader: nopLoader},
				{Path: "/b", Name: "a", Loader: nopLoader},
			},
			wantErr: ErrDuplicateName,
			field:   "name",
		},
		{
			name:    "relative path",
			routes:  []Definition{{Path: "a", Name: "a", Loader: nopLoader}},
			wantErr: ErrInvalidRoute,
			field:   "path",
		},
		{
			name:    "empty name",
			routes:  []Definition{{Path: "/a", Loader: nopLoader}},
			wantErr: ErrInvalidRoute,
			field:   "name",
		},
		{
			name:    "missing loader",
			routes:  []Definition{{Path: "/a", Name: "a"}},
			wantErr: ErrInvalidRoute,
			field:   "loader",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			table, err := Configure("", tt.routes)
			assert.Nil(t, table)
			require.ErrorIs(t, err, ErrConfiguration)
			require.ErrorIs(t, err, tt.wantErr)

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestDuplicatePathReportsBothIndexes(t *testing.T) {
	t.Parallel()

	routes := append(testRoutes(), Definition{Path: "/image-compress", Name: "again", Loader: nopLoader})

	_, err := Configure("", routes)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, len(routes)-1, cfgErr.Index)
	assert.Equal(t, 2, cfgErr.Other)
	assert.Contains(t, err.Error(), `"/image-compress"`)
}

func TestTableIsImmutable(t *testing.T) {
	t.Parallel()

	routes := testRoutes()

	table, err := Configure("", routes)
	require.NoError(t, err)

	routes[2].Path = "/changed"

	def, err := table.Resolve("/image-compress")
	require.NoError(t, err)
	assert.Equal(t, "image-compress", def.Name)

	copied := table.Routes()
	copied[0].Name = "changed"

	def, ok := table.Lookup("home")
	require.True(t, ok)
	assert.Equal(t, "/", def.Path)
}

func TestURLAndLookup(t *testing.T) {
	t.Parallel()

	table, err := Configure("/tools", testRoutes())
	require.NoError(t, err)

	url, err := table.URL("pngToIcon")
	require.NoError(t, err)
	assert.Equal(t, "/tools/image-png-to-icon", url)

	url, err = table.URL("home")
	require.NoError(t, err)
	assert.Equal(t, "/tools", url)

	_, err = table.URL("missing")
	require.ErrorIs(t, err, ErrNotFound)

	def, ok := table.Lookup("p-score-edit")
	require.True(t, ok)
	assert.Equal(t, "/p-score-edit", def.Path)
	assert.Equal(t, "p-score-edit", def.Title, "title defaults to the name")
}

type fakeSource map[string]views.LoadFunc

func (s fakeSource) Loader(key string) (views.LoadFunc, error) {
	if f, ok := s[key]; ok {
		return f, nil
	}

	return nil, views.ErrUnknownView
}

func TestBuild(t *testing.T) {
	t.Parallel()

	source := fakeSource{}
	for _, desc := range DefaultDescriptors() {
		source[desc.View] = nopLoader
	}

	table, err := Build("", DefaultDescriptors(), source)
	require.NoError(t, err)
	assert.Len(t, table.Routes(), 8)

	def, err := table.Resolve("/image-png-to-jpg")
	require.NoError(t, err)
	assert.Equal(t, "png-to-jpg", def.Name)
	assert.Equal(t, "image-png-to-jpg", def.View)
	assert.Equal(t, "PNG to JPG", def.Title)

	_, err = Build("", []Descriptor{{Path: "/x", Name: "x", View: "missing"}}, source)
	require.ErrorIs(t, err, ErrConfiguration)
	require.ErrorIs(t, err, views.ErrUnknownView)
}
