// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package views

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"views/image-compress.yaml": {Data: []byte(`
title: Image compression
description: Shrink <images>
accept: [image/png, image/jpeg]
multiple: true
script: js/tools/image-compress.js
options:
  - name: quality
    label: Quality
    type: range
    min: 1
    max: 100
    default: "80"
  - name: format
    type: select
    choices: [webp, jpeg]
    default: jpeg
`)},
		"views/image-compress.html": {Data: []byte(`<div id="image-output"></div>`)},
		"views/home.yaml":           {Data: []byte("title: File tools\n")},
		"views/broken.yaml":         {Data: []byte("title: [unterminated\n")},
		"views/untitled.yaml":       {Data: []byte("description: no title\n")},
		"views/notes.txt":           {Data: []byte("ignored")},
	}
}

func TestRegistryKeys(t *testing.T) {
	t.Parallel()

	keys, err := NewRegistry(testFS()).Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"broken", "home", "image-compress", "untitled"}, keys)
}

func TestRegistryLoaderUnknownView(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(testFS())

	for _, key := range []string{"missing", "", "../secret", "a/b"} {
		loadFunc, err := reg.Loader(key)
		assert.Nil(t, loadFunc, key)
		require.Error(t, err, key)
	}

	_, err := reg.Loader("missing")
	require.ErrorIs(t, err, ErrUnknownView)
}

func TestRegistryLoadAndRender(t *testing.T) {
	t.Parallel()

	loadFunc, err := NewRegistry(testFS()).Loader("image-compress")
	require.NoError(t, err)

	v, err := loadFunc(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "image-compress", v.Name())
	assert.Equal(t, "Image compression", v.Title())

	var sb strings.Builder

	require.NoError(t, v.Render(WithBase(context.Background(), "/tools"), &sb))

	html := sb.String()
	assert.Contains(t, html, `data-view="image-compress"`)
	assert.Contains(t, html, `Shrink &lt;images&gt;`)
	assert.Contains(t, html, `accept="image/png,image/jpeg" multiple`)
	assert.Contains(t, html, `<input type="range" name="quality" min="1" max="100" value="80">`)
	assert.Contains(t, html, `<option selected>jpeg</option>`)
	assert.Contains(t, html, `<div id="image-output"></div>`)
	assert.Contains(t, html, `src="/tools/js/tools/image-compress.js"`)
}

func TestRegistryLoadWithoutBody(t *testing.T) {
	t.Parallel()

	loadFunc, err := NewRegistry(testFS()).Loader("home")
	require.NoError(t, err)

	v, err := loadFunc(context.Background())
	require.NoError(t, err)

	var sb strings.Builder

	require.NoError(t, v.Render(context.Background(), &sb))
	assert.NotContains(t, sb.String(), "<form")
	assert.NotContains(t, sb.String(), "<script")
}

func TestToolOptionEscaping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opt  Option
		want string
	}{
		{
			name: "unknown type falls back to text",
			opt:  Option{Name: `n"><script>`, Type: `"><script>`, Default: `<b>`},
			want: `<label><span>n&#34;&gt;&lt;script&gt;</span> <input type="text" name="n&#34;&gt;&lt;script&gt;" value="&lt;b&gt;"></label>`,
		},
		{
			name: "checkbox",
			opt:  Option{Name: "strip", Label: "Strip metadata", Type: "checkbox", Default: "true"},
			want: `<label><span>Strip metadata</span> <input type="checkbox" name="strip" checked></label>`,
		},
		{
			name: "number with step",
			opt:  Option{Name: "scale", Type: "number", Min: 0.5, Max: 4, Step: 0.25, Default: "1"},
			want: `<input type="number" name="scale" min="0.5" max="4" step="0.25" value="1">`,
		},
		{
			name: "color",
			opt:  Option{Name: "tint", Type: "color", Default: "#ff0000"},
			want: `<input type="color" name="tint" value="#ff0000">`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var sb strings.Builder

			require.NoError(t, toolOption(tt.opt).Render(context.Background(), &sb))
			assert.Contains(t, sb.String(), tt.want)
			assert.NotContains(t, sb.String(), "<script>")
		})
	}
}

func TestRegistryLoadErrors(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(testFS())

	for _, key := range []string{"broken", "untitled"} {
		loadFunc, err := reg.Loader(key)
		require.NoError(t, err, key)

		_, err = loadFunc(context.Background())
		require.ErrorIs(t, err, errInvalidManifest, key)
	}

	loadFunc, err := reg.Loader("home")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = loadFunc(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPageAndFragment(t *testing.T) {
	t.Parallel()

	loadFunc, err := NewRegistry(testFS()).Loader("image-compress")
	require.NoError(t, err)

	v, err := loadFunc(context.Background())
	require.NoError(t, err)

	var page strings.Builder

	err = Page(PageData{
		Title:   v.Title(),
		Base:    "/tools",
		Version: "v1.0.0",
		Current: "image-compress",
		Nav: []NavLink{
			{Name: "home", Label: "Home", URL: "/tools"},
			{Name: "image-compress", Label: "Image compression", URL: "/tools/image-compress"},
		},
		Content: v,
	}).Render(context.Background(), &page)
	require.NoError(t, err)

	html := page.String()
	assert.Contains(t, html, `<title>Image compression - filekit</title>`)
	assert.Contains(t, html, `<a href="/tools/image-compress" data-nav="image-compress" aria-current="page">`)
	assert.Contains(t, html, `<a href="/tools" data-nav="home">Home</a>`)
	assert.Contains(t, html, `src="/tools/js/tools/image-compress.js"`, "base reaches the view")

	var fragment strings.Builder

	require.NoError(t, Fragment("/tools", v).Render(context.Background(), &fragment))
	assert.True(t, strings.HasPrefix(fragment.String(), `<div class="view-fragment" data-title="Image compression">`))
	assert.NotContains(t, fragment.String(), "<html")
}

func TestErrorContent(t *testing.T) {
	t.Parallel()

	var sb strings.Builder

	err := ErrorContent(ErrorData{StatusCode: 404, Error: errors.New(`no route "<x>"`)}).
		Render(WithBase(context.Background(), "/tools"), &sb)
	require.NoError(t, err)

	html := sb.String()
	assert.Contains(t, html, `<h1>404 Not Found</h1>`)
	assert.Contains(t, html, `no route &#34;&lt;x&gt;&#34;`)
	assert.Contains(t, html, `href="/tools/"`)
}

func TestAbout(t *testing.T) {
	t.Parallel()

	var sb strings.Builder

	err := About(AboutData{
		Version:   "v0.4.0",
		Revision:  "unknown",
		StartedAt: "2025-01-01 00:00",
		Instance:  "https://tools.example.org/tools",
		RepoURL:   "https://codeberg.org/filekit/filekit",
		Tools:     []NavLink{{Name: "pdfCompress", Label: "PDF <compress>", URL: "/pdf-compress"}},
	}).Render(context.Background(), &sb)
	require.NoError(t, err)

	html := sb.String()
	assert.Contains(t, html, `<dd>v0.4.0</dd>`)
	assert.Contains(t, html, `<dt>Instance</dt><dd>https://tools.example.org/tools</dd>`)
	assert.Contains(t, html, `<a href="/pdf-compress" data-nav="pdfCompress">PDF &lt;compress&gt;</a>`)
}
