// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Genconfig writes the example configuration files under deploy/ from the
built-in defaults.

	go run ./cmd/genconfig
*/
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	"codeberg.org/filekit/filekit/config"
	"codeberg.org/filekit/filekit/core/audit"
	"codeberg.org/filekit/filekit/core/authenticated"
)

const (
	envOutputFile  = "deploy/.env.example"
	yamlOutputFile = "deploy/config.yaml.example"
	filePerm       = 0o644
	dirPerm        = 0o755

	envFileHeader = `# filekit configuration (via environment variables)
#
# Copy this file to .env and customize the values below.
#
# This file was auto-generated using go run ./cmd/genconfig.

`
	yamlFileHeader = `# filekit configuration (via configuration file)
#
# Copy this file to config.yaml and customize the values below.
#
# This file was auto-generated using go run ./cmd/genconfig.
`
	secretComment = `## Generate a persistent session key with:
##   go run ./cmd/genconfig -secret`
)

func main() {
	audit.SetDefaultLogger()

	if len(os.Args) > 1 && os.Args[1] == "-secret" {
		fmt.Println(authenticated.NewSecretKeyHex())

		return
	}

	cfg := &config.ServerConfig{}
	cfg.SetDefaults()

	writeFile(envOutputFile, renderEnv(cfg))

	yamlContent, err := renderYAML(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal config to YAML")
	}

	writeFile(yamlOutputFile, yamlContent)
}

func writeFile(path, content string) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to create output directory")
	}

	if err := os.WriteFile(path, []byte(content), filePerm); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to write example file")
	}

	log.Info().Str("path", path).Msg("Successfully generated example file")
}

// renderEnv lists every env-tagged setting of cfg, grouped by section.
func renderEnv(cfg *config.ServerConfig) string {
	var sb strings.Builder
	sb.WriteString(envFileHeader)

	val := reflect.ValueOf(*cfg)
	typ := val.Type()

	// Iterate over the top-level struct fields.
	for i := range typ.NumField() {
		structField := typ.Field(i)
		structValue := val.Field(i)

		if structValue.Kind() != reflect.Struct || structField.Name == "Build" {
			continue
		}

		var section strings.Builder

		innerTyp := structValue.Type()
		for j := range innerTyp.NumField() {
			field := innerTyp.Field(j)
			value := structValue.Field(j)

			tag, ok := field.Tag.Lookup("env")
			if !ok {
				continue
			}

			envVarName, _, _ := strings.Cut(tag, ",")

			switch envVarName {
			case "FILEKIT_PORT", "FILEKIT_HOST":
				// Uncomment essential fields.
				fmt.Fprintf(&section, "%s=\"%v\"\n", envVarName, value.Interface())
			case "FILEKIT_SESSION_SECRET":
				fmt.Fprintf(&section, "%s\n# %s=\n", secretComment, envVarName)
			default:
				// Empty strings and lists are left blank to prompt user input.
				if value.Kind() == reflect.Slice || (value.Kind() == reflect.String && value.Len() == 0) {
					fmt.Fprintf(&section, "# %s=\n", envVarName)
				} else {
					fmt.Fprintf(&section, "# %s=%v\n", envVarName, value.Interface())
				}
			}
		}

		if section.Len() == 0 {
			continue
		}

		fmt.Fprintf(&sb, "## %s\n%s\n", structField.Name, section.String())
	}

	return sb.String()
}

// renderYAML marshals cfg and comments out every setting, keeping the
// section headers.
func renderYAML(cfg *config.ServerConfig) (string, error) {
	var yamlContent strings.Builder

	encoderOpts := []yaml.EncodeOption{
		config.GetDurationEncoderOption(),
		yaml.Indent(2),
	}
	if err := yaml.NewEncoder(&yamlContent, encoderOpts...).Encode(cfg); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(yamlFileHeader)

	for line := range strings.SplitSeq(yamlContent.String(), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		// Top-level keys (e.g., "basic:") are treated as section headers.
		if !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "-") {
			fmt.Fprintf(&sb, "\n%s\n", line)

			continue
		}

		indentSize := len(line) - len(strings.TrimLeft(line, " "))
		fmt.Fprintf(&sb, "%s# %s\n", strings.Repeat(" ", indentSize), trimmed)
	}

	return sb.String(), nil
}
