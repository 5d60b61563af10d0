// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const logFilePermissions = 0o666

// setupAudit points the global logger at the configured outputs.
func (cfg *ServerConfig) setupAudit() {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || cfg.Development.InDevelopment {
		level = zerolog.DebugLevel
	}

	zerolog.SetGlobalLevel(level)

	outputs := cfg.Log.Outputs
	if len(outputs) == 0 {
		outputs = []string{"/dev/stderr"}
	}

	writers := make([]io.Writer, 0, len(outputs))

	for _, output := range outputs {
		w, err := cfg.openLogOutput(output)
		if err != nil {
			// An unusable output is skipped; the others still receive logs.
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v\n", output, err)

			continue
		}

		writers = append(writers, w)
	}

	if len(writers) == 0 {
		writers = append(writers, ConsoleWriter(os.Stderr))
	}

	log.Logger = log.Output(zerolog.MultiLevelWriter(writers...))
}

func (cfg *ServerConfig) openLogOutput(output string) (io.Writer, error) {
	var file *os.File

	switch output {
	case "/dev/stdout":
		file = os.Stdout
	case "/dev/stderr":
		file = os.Stderr
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions) // #nosec:G302,G304
		if err != nil {
			return nil, err
		}

		file = f
	}

	if cfg.Log.Format == "json" {
		return file, nil
	}

	return ConsoleWriter(file), nil
}

// ConsoleWriter returns a human-readable zerolog writer, colored only when f
// is a terminal.
func ConsoleWriter(f *os.File) io.Writer {
	noColor := !isatty.IsTerminal(f.Fd())

	w := zerolog.ConsoleWriter{Out: f, NoColor: noColor, TimeFormat: time.DateTime}

	if !noColor {
		w.FormatPrepare = func(m map[string]any) error {
			switch m["sys"] {
			case "http":
				m["message"] = fmt.Sprintf("[%s] %v %-5s %s", m["destination"], m["status_code"], m["method"], m["url"])
				for _, key := range []string{"sys", "method", "status_code", "url", "destination", "request_id"} {
					delete(m, key)
				}
			case "loader":
				m["message"] = fmt.Sprintf("[%s] load %s", m["destination"], m["route"])
				for _, key := range []string{"sys", "route", "destination"} {
					delete(m, key)
				}
			}

			return nil
		}
	}

	return w
}
