// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package set_request_context

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/filekit/filekit/server/middleware"
	"codeberg.org/filekit/filekit/server/request_context"
)

func serve(t *testing.T, req *http.Request) (*request_context.RequestContext, *httptest.ResponseRecorder) {
	t.Helper()

	var rc *request_context.RequestContext

	handler := middleware.Wrap(WithRequestContext, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc = request_context.FromRequest(r)

		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.NotNil(t, rc)

	return rc, rec
}

func TestWithRequestContextAttachesContext(t *testing.T) {
	t.Parallel()

	rc, rec := serve(t, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, rc.StatusCode)
	assert.False(t, rc.Fragment)

	_, err := uuid.Parse(rc.RequestID)
	require.NoError(t, err)
	assert.Equal(t, rc.RequestID, rec.Header().Get(request_context.RequestIDHeader))
}

func TestWithRequestContextGeneratesUniqueRequestIDs(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)

	for range 10 {
		rc, _ := serve(t, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.False(t, seen[rc.RequestID], "duplicate request ID %s", rc.RequestID)
		seen[rc.RequestID] = true
	}
}

func TestWithRequestContextKeepsClientRequestID(t *testing.T) {
	t.Parallel()

	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/nav?to=/", nil)
	req.Header.Set(request_context.RequestIDHeader, id)
	req.Header.Set("HX-Request", "true")

	rc, _ := serve(t, req)
	assert.Equal(t, id, rc.RequestID)
	assert.True(t, rc.Fragment)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(request_context.RequestIDHeader, "<script>")

	rc, _ = serve(t, req)
	assert.NotEqual(t, "<script>", rc.RequestID)
}

func TestFromContextWithoutMiddleware(t *testing.T) {
	t.Parallel()

	rc := request_context.FromRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rc.StatusCode)
	assert.Empty(t, rc.RequestID)
}
