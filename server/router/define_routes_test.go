// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"codeberg.org/filekit/filekit/core/authenticated"
	"codeberg.org/filekit/filekit/core/loader"
	"codeberg.org/filekit/filekit/core/routetable"
	"codeberg.org/filekit/filekit/server/routes"
	"codeberg.org/filekit/filekit/server/session"
	"codeberg.org/filekit/filekit/views"
)

func testAssets() fstest.MapFS {
	fsys := fstest.MapFS{
		"css/site.css": {Data: []byte("body { margin: 0; }\n")},
		"js/nav.js":    {Data: []byte("// nav\n")},
	}

	for _, desc := range routetable.DefaultDescriptors() {
		fsys["views/"+desc.View+".yaml"] = &fstest.MapFile{Data: []byte("title: " + desc.Title + "\n")}
	}

	return fsys
}

// testClient is a browser talking to a filekit instance mounted under base.
type testClient struct {
	t      *testing.T
	base   string
	server *httptest.Server
	client *http.Client
}

func newTestClient(t *testing.T, base string) *testClient {
	t.Helper()

	static := testAssets()

	table, err := routetable.Build(base, routetable.DefaultDescriptors(), views.NewRegistry(static))
	require.NoError(t, err)

	signer, err := authenticated.NewSigner("", time.Hour)
	require.NoError(t, err)

	activator := loader.New()

	sessions, err := session.NewStore(session.Options{
		CookieName:   "filekit_session",
		Capacity:     16,
		HistoryLimit: 16,
		Signer:       signer,
	}, table, activator)
	require.NoError(t, err)

	router := NewRouter()
	router.DefineRoutes(&routes.Site{Table: table, Activator: activator, Sessions: sessions}, static)
	require.NoError(t, router.RegisterMiddleware())

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testClient{
		t:      t,
		base:   table.Base(),
		server: server,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *testClient) do(method, path string, fragment bool) (*http.Response, string) {
	c.t.Helper()

	req, err := http.NewRequest(method, c.server.URL+path, nil)
	require.NoError(c.t, err)

	if fragment {
		req.Header.Set("HX-Request", "true")
	}

	resp, err := c.client.Do(req)
	require.NoError(c.t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	return resp, string(body)
}

func (c *testClient) document(body string) *goquery.Document {
	c.t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(c.t, err)

	return doc
}

func (c *testClient) state() gjson.Result {
	c.t.Helper()

	resp, body := c.do(http.MethodGet, c.base+"/nav/state", false)
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	require.True(c.t, gjson.Valid(body), body)

	return gjson.Parse(body)
}

func TestFullPage(t *testing.T) {
	t.Parallel()

	for _, base := range []string{"", "/tools"} {
		t.Run("base "+base, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, base)

			resp, body := c.do(http.MethodGet, base+"/image-compress", false)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
			assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
			assert.NotEmpty(t, resp.Cookies(), "a session cookie is issued")

			doc := c.document(body)
			assert.Equal(t, "Image compression - filekit", doc.Find("title").Text())
			assert.Equal(t, base, doc.Find("body").AttrOr("data-base", "missing"))
			assert.Equal(t, 1, doc.Find(`main#view section.tool[data-view="image-compress"]`).Length())
			assert.Equal(t, "page", doc.Find(`a[data-nav="image-compress"]`).AttrOr("aria-current", ""))
			assert.Equal(t, 8, doc.Find("nav a[data-nav]").Length())
			assert.Equal(t, base+"/pdf-compress", doc.Find(`a[data-nav="pdfCompress"]`).AttrOr("href", ""))

			state := c.state()
			assert.Equal(t, "active", state.Get("phase").String())
			assert.Equal(t, "image-compress", state.Get("route").String())
			assert.Equal(t, int64(1), state.Get("history").Int())
		})
	}
}

func TestHomePageUnderBase(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "/tools")

	resp, body := c.do(http.MethodGet, "/tools", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, c.document(body).Find(`section.tool[data-view="home"]`).Length())

	resp, _ = c.do(http.MethodGet, "/tools/", false)
	assert.Equal(t, http.StatusPermanentRedirect, resp.StatusCode)
	assert.Equal(t, "/tools", resp.Header.Get("Location"))

	resp, _ = c.do(http.MethodGet, "/", false)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/tools", resp.Header.Get("Location"))
}

func TestNotFoundPages(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "/tools")

	for _, path := range []string{"/tools/does-not-exist", "/image-compress", "/toolsimage-compress"} {
		resp, body := c.do(http.MethodGet, path, false)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"), path)

		doc := c.document(body)
		assert.Equal(t, 1, doc.Find(`main#view section.error[data-status="404"]`).Length(), path)
	}
}

func TestUnknownPathsDoNotCreateSessions(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "/tools")

	for _, tt := range []struct {
		path     string
		fragment bool
	}{
		{path: "/tools/does-not-exist"},
		{path: "/tools/nav?to=/does-not-exist", fragment: true},
	} {
		resp, _ := c.do(http.MethodGet, tt.path, tt.fragment)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, tt.path)
		assert.Empty(t, resp.Header.Values("Set-Cookie"), tt.path)
	}

	assert.Equal(t, "idle", c.state().Get("phase").String())

	resp, _ := c.do(http.MethodGet, "/tools/image-compress", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Values("Set-Cookie"))

	resp, _ = c.do(http.MethodGet, "/tools/does-not-exist", false)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	state := c.state()
	assert.Equal(t, "failed", state.Get("phase").String(), "an existing session records the failure")
	assert.Equal(t, "image-compress", state.Get("route").String())
}

func TestFragmentNavigation(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "/tools")

	resp, _ := c.do(http.MethodGet, "/tools/image-compress", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := c.do(http.MethodGet, "/tools/nav?to=/pdf-compress", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/tools/pdf-compress", resp.Header.Get("HX-Push-Url"))

	fragment := c.document(body).Find("div.view-fragment")
	assert.Equal(t, "PDF compression", fragment.AttrOr("data-title", ""))
	assert.Equal(t, 1, fragment.Find(`section.tool[data-view="pdf-compress"]`).Length())
	assert.NotContains(t, body, "<html")

	state := c.state()
	assert.Equal(t, "pdfCompress", state.Get("route").String())
	assert.Equal(t, "/tools/pdf-compress", state.Get("path").String())
	assert.Equal(t, int64(2), state.Get("history").Int())

	// An unknown target keeps the current view.
	resp, body = c.do(http.MethodGet, "/tools/nav?to=/does-not-exist", true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "none", resp.Header.Get("HX-Reswap"))
	assert.Equal(t, 1, c.document(body).Find(`section.error[data-status="404"]`).Length())
	assert.NotContains(t, body, "<html")

	state = c.state()
	assert.Equal(t, "failed", state.Get("phase").String())
	assert.Equal(t, "pdfCompress", state.Get("route").String())
	assert.Contains(t, state.Get("error").String(), "route not found")

	// Back returns to the first page without pushing.
	resp, _ = c.do(http.MethodPost, "/tools/nav/back", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/tools/image-compress", resp.Header.Get("HX-Push-Url"))

	state = c.state()
	assert.Equal(t, "image-compress", state.Get("route").String())
	assert.Equal(t, int64(1), state.Get("history").Int())

	resp, _ = c.do(http.MethodPost, "/tools/nav/back", true)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode, "history exhausted")
}

func TestNavigationWithoutSession(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "")

	resp, _ := c.do(http.MethodPost, "/nav/back", true)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	state := c.state()
	assert.Equal(t, "idle", state.Get("phase").String())
	assert.False(t, state.Get("route").Exists())

	resp, _ = c.do(http.MethodGet, "/nav?to=https://evil.example/", true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "none", resp.Header.Get("HX-Reswap"))
}

func TestStaticAndAuxiliaryRoutes(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "/tools")

	resp, body := c.do(http.MethodGet, "/tools/css/site.css", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "body { margin: 0; }\n", body)
	assert.NotEmpty(t, resp.Header.Get("ETag"))
	assert.Equal(t, "max-age=604800", resp.Header.Get("Cache-Control"))

	resp, _ = c.do(http.MethodGet, "/tools/js/missing.js", false)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = c.do(http.MethodGet, "/tools/healthz", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", body)

	resp, body = c.do(http.MethodGet, "/tools/about", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 8, c.document(body).Find("main#view a[data-nav]").Length())
}
