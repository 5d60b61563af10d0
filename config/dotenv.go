// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// useDotEnv loads a .env file from the working directory, falling back to
// the directory of the binary. A missing file is not an error.
func useDotEnv() error {
	candidates := make([]string, 0, 2)

	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, ".env"))
	} else {
		log.Warn().
			Err(err).
			Msg("Could not get current working directory")
	}

	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), ".env"))
	}

	for _, envPath := range candidates {
		// #nosec G304 - envPath is built from the working directory or the binary location
		data, err := os.ReadFile(envPath)
		if os.IsNotExist(err) {
			continue
		}

		if err != nil {
			log.Warn().
				Err(err).
				Str("path", envPath).
				Msg("Could not read .env file")

			continue
		}

		applyDotEnv(envPath, parseDotEnv(envPath, string(data)))

		return nil
	}

	log.Info().Msg("No .env file found, skipping")

	return nil
}

// parseDotEnv reads KEY=VALUE lines, ignoring blanks and # comments.
// Values wrapped in matching single or double quotes are unquoted.
func parseDotEnv(envPath, data string) map[string]string {
	vars := make(map[string]string)

	for lineNumber, rawLine := range strings.Split(data, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			log.Warn().
				Str("path", envPath).
				Int("line", lineNumber+1).
				Msg("Invalid format in .env file")

			continue
		}

		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		if len(value) >= 2 && value[0] == value[len(value)-1] && (value[0] == '"' || value[0] == '\'') {
			value = value[1 : len(value)-1]
		}

		vars[key] = value
	}

	return vars
}

// applyDotEnv sets variables that are not already present in the environment.
func applyDotEnv(envPath string, vars map[string]string) {
	for key, value := range vars {
		if _, set := os.LookupEnv(key); set {
			continue
		}

		if err := os.Setenv(key, value); err != nil {
			log.Warn().
				Err(err).
				Str("key", key).
				Msg("Could not set environment variable")
		}
	}

	log.Info().
		Str("path", envPath).
		Int("variables", len(vars)).
		Msg("Loaded configuration from .env file")
}
