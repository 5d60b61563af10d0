// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/filekit/filekit/core/routetable"
	"codeberg.org/filekit/filekit/views"
)

func TestMiddlewareOrder(t *testing.T) {
	t.Parallel()

	router := NewRouter()

	var calls []string

	for _, name := range []string{"outer", "inner"} {
		router.Use(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
			calls = append(calls, name)
			next.ServeHTTP(w, r)
		})
	}

	router.HandleFunc("GET /ping", func(w http.ResponseWriter, _ *http.Request) {
		calls = append(calls, "handler")
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, []string{"outer", "inner", "handler"}, calls)
}

func TestMiddlewareCanStopChain(t *testing.T) {
	t.Parallel()

	router := NewRouter()
	router.Use(func(w http.ResponseWriter, _ *http.Request, _ http.Handler) {
		w.WriteHeader(http.StatusForbidden)
	})
	router.HandleFunc("GET /ping", func(http.ResponseWriter, *http.Request) {
		t.Error("handler must not run")
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestShadowedRoutes(t *testing.T) {
	t.Parallel()

	loadFunc := func(context.Context) (views.View, error) { return nil, errors.New("not used") }

	table, err := routetable.Configure("/tools", []routetable.Definition{
		{Path: "/", Name: "home", Loader: loadFunc},
		{Path: "/about", Name: "about", Loader: loadFunc},
		{Path: "/css/theme", Name: "theme", Loader: loadFunc},
		{Path: "/navigator", Name: "navigator", Loader: loadFunc},
	})
	require.NoError(t, err)

	router := NewRouter()
	ok := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	router.Own("GET /tools/about", ok)
	router.Own("GET /tools/css/", ok)
	router.Own("GET /tools/nav", ok)
	router.HandleFunc("GET /tools/", ok)

	var names []string
	for _, def := range router.ShadowedRoutes(table) {
		names = append(names, def.Name)
	}

	assert.Equal(t, []string{"about", "theme"}, names)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/tools/css/site.css", nil))
	assert.Equal(t, http.StatusOK, rr.Code, "owned patterns are served")
}
