// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"time"

	"codeberg.org/filekit/filekit/core/routetable"
)

const (
	defaultHost = "localhost"
	defaultPort = "8282"

	defaultSessionCapacity     = 1024
	defaultSessionHistoryLimit = 64
	defaultSessionMaxAge       = 7 * 24 * time.Hour

	defaultLimiterRequestsPerMinute = 120
	defaultLimiterBurst             = 30
	defaultLimiterCapacity          = 4096

	defaultHTTPCacheMaxAgeSeconds               = 30
	defaultHTTPCacheStaleWhileRevalidateSeconds = 60
)

// SetDefaults populates the configuration with default values.
func (cfg *ServerConfig) SetDefaults() {
	cfg.Basic.Host = defaultHost
	cfg.Basic.Port = defaultPort
	cfg.Basic.BasePath = ""

	cfg.Routes = routetable.DefaultDescriptors()

	cfg.Views.Directory = ""
	cfg.Views.LoadTimeout = 0
	cfg.Views.Preload = false

	cfg.Session.CookieName = "filekit_session"
	cfg.Session.Capacity = defaultSessionCapacity
	cfg.Session.HistoryLimit = defaultSessionHistoryLimit
	cfg.Session.MaxAge = defaultSessionMaxAge

	cfg.Limiter.Enabled = false
	cfg.Limiter.RequestsPerMinute = defaultLimiterRequestsPerMinute
	cfg.Limiter.Burst = defaultLimiterBurst
	cfg.Limiter.Capacity = defaultLimiterCapacity

	cfg.Metrics.Enabled = false
	cfg.Metrics.Path = "/metrics"

	cfg.HTTPCache.MaxAge = defaultHTTPCacheMaxAgeSeconds * time.Second
	cfg.HTTPCache.StaleWhileRevalidate = defaultHTTPCacheStaleWhileRevalidateSeconds * time.Second

	cfg.Response.Compression = true

	cfg.Instance.RepoURL = "https://codeberg.org/filekit/filekit"

	cfg.Log.Level = "info"
	cfg.Log.Outputs = []string{"/dev/stderr"}
	cfg.Log.Format = "console"
}
