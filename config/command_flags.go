// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import "flag"

const configFlagName = "config"

// parseCommandLineArgs registers the -config flag once, parses the command
// line and reports the flag value along with whether it was given explicitly.
func parseCommandLineArgs() (string, bool) {
	var configFilePath string

	if f := flag.Lookup(configFlagName); f == nil {
		flag.StringVar(&configFilePath, configFlagName, "./config.yaml", "Path to a filekit configuration file in YAML format.")
	} else {
		configFilePath = f.Value.String()
	}

	if !flag.Parsed() {
		flag.Parse()
	}

	if f := flag.Lookup(configFlagName); f != nil {
		configFilePath = f.Value.String()
	}

	userSet := false

	flag.Visit(func(f *flag.Flag) {
		if f.Name == configFlagName {
			userSet = true
		}
	})

	return configFilePath, userSet
}
