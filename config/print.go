// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"
)

const redactedValue = "[redacted]"

func (cfg *ServerConfig) print() {
	log.Info().
		Str("version", BuildVersion).
		Str("revision", cfg.Build.Revision()).
		Str("go", cfg.Build.GoVersion).
		Str("cacheid", cfg.Instance.FileServerCacheID).
		Msg("Starting filekit")

	configYAML, err := cfg.printable()
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal config to YAML for printing")

		return
	}

	log.Info().
		Msg("Application configuration:")
	fmt.Fprintln(os.Stderr, string(configYAML))
}

// printable renders the configuration as YAML with the session secret
// and local filesystem locations redacted.
func (cfg *ServerConfig) printable() ([]byte, error) {
	printableConfig := *cfg

	if printableConfig.Basic.UnixSocket != "" {
		printableConfig.Basic.UnixSocket = redactedValue
	}

	if printableConfig.Session.Secret != "" {
		printableConfig.Session.Secret = redactedValue
	}

	if printableConfig.Views.Directory != "" {
		printableConfig.Views.Directory = redactedValue
	}

	return yaml.MarshalWithOptions(printableConfig, GetDurationEncoderOption())
}
