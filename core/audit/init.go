// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package audit times and logs units of work: HTTP requests served to users
and on-demand view loads.
*/
package audit

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetDefaultLogger provides a readable log format on startup, before the
// configured outputs are known.
func SetDefaultLogger() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime})
}
