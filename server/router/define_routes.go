// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"io/fs"
	"net/http"
	"net/http/pprof"
	"runtime/trace"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"codeberg.org/filekit/filekit/config"
	"codeberg.org/filekit/filekit/core/metrics"
	"codeberg.org/filekit/filekit/server/middleware"
	"codeberg.org/filekit/filekit/server/routes"
)

// DefineRoutes sets up all the routes of site using our custom Router.
// Static files are served from static, which holds the css/ and js/
// directories.
//
// It leaves the middleware chain untouched.
func (router *Router) DefineRoutes(site *routes.Site, static fs.FS) {
	base := site.Table.Base()
	catch := middleware.CatchError(site.ErrorPage)

	fileServerHandler := http.StripPrefix(base, fileServer(static))

	// Patterns ending in "/" are prefix matches.
	router.Own("GET "+base+"/css/", fileServerHandler)
	router.Own("GET "+base+"/js/", fileServerHandler)

	// Navigation API
	router.Own("GET "+base+"/nav", catch(site.Navigate))
	router.Own("POST "+base+"/nav/back", catch(site.Back))
	router.Own("GET "+base+"/nav/state", catch(site.State))

	// About routes
	router.Own("GET "+base+"/about", catch(site.AboutPage))
	router.Own("GET "+base+"/healthz", catch(routes.Healthz))

	if config.Global.Metrics.Enabled {
		router.Own("GET "+config.Global.Metrics.Path, metrics.Handler())
	}

	// View pages. Everything under the base path is resolved through the
	// route table, which answers unknown paths with a 404.
	if base == "" {
		router.HandleFunc("GET /", catch(site.ViewPage))
	} else {
		router.HandleFunc("GET "+base, catch(site.ViewPage))
		router.HandleFunc("GET "+base+"/", catch(site.ViewPage))

		router.HandleFunc("GET /{$}", redirectToBase(base))
		router.HandleFunc("/", catch(site.OutsideBase))
	}

	if config.Global.Development.InDevelopment {
		registerDebugRoutes(router)
	}

	router.warnShadowedRoutes(site.Table)
}

// Serve static files from static.
func fileServer(static fs.FS) http.HandlerFunc {
	fileServer := http.FileServer(http.FS(static))

	return func(w http.ResponseWriter, r *http.Request) {
		// JavaScript and CSS get a moderate cache time (1 week)
		w.Header().Set("Cache-Control", "max-age=604800")
		// Using a strong ETag for static files embedded via go:embed
		// ref: https://www.rfc-editor.org/rfc/rfc9110#weak.and.strong.validators
		//
		// Since go:embed requires rebuilding when files change, we use a per-instance
		// cache ID to ensure browsers fetch fresh content after any deployment.
		w.Header().Set("ETag", `"`+config.Global.Instance.FileServerCacheID+`"`)
		fileServer.ServeHTTP(w, r)
	}
}

var (
	flightRecorder      = trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: time.Minute})
	startFlightRecorder = sync.OnceValue(flightRecorder.Start)
)

func registerDebugRoutes(router *Router) {
	if err := startFlightRecorder(); err != nil {
		log.Warn().Err(err).Msg("Failed to start the flight recorder")
	}

	router.HandleFunc("GET /debug/pprof/", pprof.Index)
	router.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	router.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	router.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
	router.HandleFunc("GET /debug/flight", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = flightRecorder.WriteTo(w)
	})
}
