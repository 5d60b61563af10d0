// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"codeberg.org/filekit/filekit/config"
	"codeberg.org/filekit/filekit/server/middleware"
	"codeberg.org/filekit/filekit/server/middleware/limiter"
	"codeberg.org/filekit/filekit/server/middleware/set_request_context"
)

func (router *Router) RegisterMiddleware() error {
	// the first middleware is the most outer / first executed one
	router.Use(middleware.WithServerTiming)
	router.Use(middleware.NormalizeURL)                // handle trailing slashes
	router.Use(set_request_context.WithRequestContext) // needed for everything else
	router.Use(middleware.SetResponseHeaders)          // all pages need this

	if cfg := config.Global.Limiter; cfg.Enabled {
		l, err := limiter.New(cfg.RequestsPerMinute, cfg.Burst, cfg.Capacity)
		if err != nil {
			return fmt.Errorf("failed to create rate limiter: %w", err)
		}

		l.Exempt = config.Global.IsAuxiliaryPath

		log.Info().
			Int("requests_per_minute", cfg.RequestsPerMinute).
			Int("burst", cfg.Burst).
			Msg("Limiter enabled")

		router.Use(l.Evaluate)
	}

	if config.Global.Response.Compression {
		router.Use(middleware.Compress)
	}

	return nil
}
