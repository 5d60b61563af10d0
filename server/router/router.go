// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package router wires the handlers of package routes and the middleware chain
into one http.Handler.
*/
package router

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"codeberg.org/filekit/filekit/core/routetable"
	"codeberg.org/filekit/filekit/server/middleware"
)

// Router is an http.ServeMux behind a middleware chain.
//
// Paths registered with Own belong to filekit itself. Route table entries
// on those paths can never be reached and are reported by ShadowedRoutes.
type Router struct {
	*http.ServeMux

	middlewares []middleware.Middleware
	handler     http.Handler
	owned       []string
}

// NewRouter creates a Router without middleware.
func NewRouter() *Router {
	mux := http.NewServeMux()

	return &Router{
		ServeMux: mux,
		handler:  mux,
	}
}

// Use appends m to the chain. The first middleware added runs first.
func (router *Router) Use(m middleware.Middleware) {
	router.middlewares = append(router.middlewares, m)

	var handler http.Handler = router.ServeMux
	for i := len(router.middlewares) - 1; i >= 0; i-- {
		handler = middleware.Wrap(router.middlewares[i], handler)
	}

	router.handler = handler
}

// Own registers handler for pattern and reserves the path of pattern.
func (router *Router) Own(pattern string, handler http.Handler) {
	router.Handle(pattern, handler)

	// Drop the method of "GET /path".
	path := pattern
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		path = strings.TrimSpace(pattern[i+1:])
	}

	router.owned = append(router.owned, path)
}

// ShadowedRoutes returns the routes of table whose URL is served by an
// owned path instead. An owned path ending in "/" covers everything below it.
func (router *Router) ShadowedRoutes(table *routetable.Table) []routetable.Definition {
	var shadowed []routetable.Definition

	for _, def := range table.Routes() {
		url := table.Join(def.Path)

		for _, path := range router.owned {
			if url == path || (strings.HasSuffix(path, "/") && strings.HasPrefix(url, path)) {
				shadowed = append(shadowed, def)

				break
			}
		}
	}

	return shadowed
}

func (router *Router) warnShadowedRoutes(table *routetable.Table) {
	for _, def := range router.ShadowedRoutes(table) {
		log.Warn().
			Str("route", def.Name).
			Str("path", def.Path).
			Msg("Route path is reserved and will never be served")
	}
}

// ServeHTTP runs the middleware chain, ending in the ServeMux.
func (router *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	router.handler.ServeHTTP(w, r)
}
