// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"codeberg.org/filekit/filekit/core/authenticated"
	"codeberg.org/filekit/filekit/server/utils"
)

// validation errors.
var (
	errUnixSocketWithHostPort       = errors.New("unix socket configured - cannot specify Host and Port simultaneously")
	errUnixSocketInvalidPermissions = errors.New("invalid Basic.UnixSocketPermissions value")
	errUnixSocketUserDoesNotExist   = errors.New("user does not exist")
	errUnixSocketGroupDoesNotExist  = errors.New("group does not exist")
	errInvalidBasePath              = errors.New("Basic.BasePath must be empty or an absolute path without query or fragment")
	errNoRoutes                     = errors.New("at least one route is required")
	errNegativeLoadTimeout          = errors.New("Views.LoadTimeout cannot be negative")
	errInvalidSessionCookie         = errors.New("Session.CookieName cannot be empty or contain separators")
	errInvalidSessionCapacity       = errors.New("Session.Capacity and Session.HistoryLimit must be positive")
	errInvalidSessionMaxAge         = errors.New("Session.MaxAge must be positive")
	errSessionSecretInvalid         = errors.New("Session.Secret is not a valid paseto key")
	errInvalidLimiterRate           = errors.New("Limiter.RequestsPerMinute, Limiter.Burst and Limiter.Capacity must be positive")
	errInvalidMetricsPath           = errors.New("Metrics.Path must be an absolute path")
	errInvalidLogFormat             = errors.New(`Log.Format must be "console" or "json"`)
)

var (
	fileModeOctalRegexp  = regexp.MustCompile(`^0?[0-7]{3}$`)
	fileModeStringRegexp = regexp.MustCompile(`^(?:[r-][w-][x-]){3}$`)
	digitsRegexp         = regexp.MustCompile(`^[0-9]+$`)
)

// validateAndSet validates the server configuration and populates some fields.
func (cfg *ServerConfig) validateAndSet() error {
	if err := cfg.validateListener(); err != nil {
		return err
	}

	basePath, err := normalizeBasePath(cfg.Basic.BasePath)
	if err != nil {
		return err
	}

	cfg.Basic.BasePath = basePath

	if len(cfg.Routes) == 0 {
		return errNoRoutes
	}

	if cfg.Views.LoadTimeout < 0 {
		return errNegativeLoadTimeout
	}

	if cfg.Session.CookieName == "" || strings.ContainsAny(cfg.Session.CookieName, " ;,=\t") {
		return errInvalidSessionCookie
	}

	if cfg.Session.Capacity <= 0 || cfg.Session.HistoryLimit <= 0 {
		return errInvalidSessionCapacity
	}

	if cfg.Session.MaxAge <= 0 {
		return errInvalidSessionMaxAge
	}

	if cfg.Session.Secret != "" {
		if _, err := authenticated.NewSigner(cfg.Session.Secret, cfg.Session.MaxAge); err != nil {
			log.Error().
				Err(err).
				Msgf("Generated secret key (put this in config.yaml)\nsession:\n  secret: \"%s\"", authenticated.NewSecretKeyHex())

			return errSessionSecretInvalid
		}
	}

	if cfg.Limiter.Enabled &&
		(cfg.Limiter.RequestsPerMinute <= 0 || cfg.Limiter.Burst <= 0 || cfg.Limiter.Capacity <= 0) {
		return errInvalidLimiterRate
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return errInvalidMetricsPath
	}

	if cfg.HTTPCache.MaxAge < 0 {
		cfg.HTTPCache.MaxAge = 0
	}

	if cfg.HTTPCache.StaleWhileRevalidate < 0 {
		cfg.HTTPCache.StaleWhileRevalidate = 0
	}

	repoURL, err := utils.ParseURL(cfg.Instance.RepoURL, "Repo")
	if err != nil {
		return fmt.Errorf("invalid repo URL: %w", err)
	}

	cfg.Instance.RepoURL = repoURL.String()

	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("invalid Log.Level %q: %w", cfg.Log.Level, err)
	}

	switch cfg.Log.Format {
	case "console", "json":
	default:
		return errInvalidLogFormat
	}

	return nil
}

func (cfg *ServerConfig) validateListener() error {
	if cfg.Basic.UnixSocket == "" {
		if cfg.Basic.Host == "" {
			cfg.Basic.Host = defaultHost
			log.Info().
				Str("host", cfg.Basic.Host).
				Msg("Binding to default host")
		}

		if cfg.Basic.Port == "" {
			cfg.Basic.Port = defaultPort
			log.Info().
				Str("port", cfg.Basic.Port).
				Msg("Using default port")
		}

		return nil
	}

	// The defaults are only meaningful for TCP; a socket path replaces them
	// unless the user set them too.
	if cfg.Basic.Host == defaultHost && cfg.Basic.Port == defaultPort {
		cfg.Basic.Host, cfg.Basic.Port = "", ""
	}

	if cfg.Basic.Host != "" || cfg.Basic.Port != "" {
		return errUnixSocketWithHostPort
	}

	mode, err := parseSocketMode(cfg.Basic.RawUnixSocketPermissions)
	if err != nil {
		return err
	}

	cfg.Basic.UnixSocketPermissions = mode

	if name := cfg.Basic.UnixSocketUser; name != "" && !accountExists(name, lookupUserID, lookupUserName) {
		return errUnixSocketUserDoesNotExist
	}

	if name := cfg.Basic.UnixSocketGroup; name != "" && !accountExists(name, lookupGroupID, lookupGroupName) {
		return errUnixSocketGroupDoesNotExist
	}

	return nil
}

func lookupUserID(id string) error {
	_, err := user.LookupId(id)

	return err
}

func lookupUserName(name string) error {
	_, err := user.Lookup(name)

	return err
}

func lookupGroupID(id string) error {
	_, err := user.LookupGroupId(id)

	return err
}

func lookupGroupName(name string) error {
	_, err := user.LookupGroup(name)

	return err
}

// accountExists resolves a numeric ID with byID and anything else with byName.
func accountExists(name string, byID, byName func(string) error) bool {
	if digitsRegexp.MatchString(name) {
		return byID(name) == nil
	}

	return byName(name) == nil
}

// parseSocketMode accepts octal ("660", "0660") or symbolic ("rw-rw----")
// permissions. An empty value yields 0o666.
func parseSocketMode(raw string) (os.FileMode, error) {
	switch {
	case raw == "":
		return 0o666, nil
	case fileModeOctalRegexp.MatchString(raw):
		mode, err := strconv.ParseUint(raw, 8, 32)
		if err != nil {
			return 0, errUnixSocketInvalidPermissions
		}

		return os.FileMode(mode), nil
	case fileModeStringRegexp.MatchString(raw):
		const highestBit = 8

		var mode os.FileMode

		for i, c := range raw {
			if c != '-' {
				mode |= 1 << (highestBit - i)
			}
		}

		return mode, nil
	default:
		return 0, errUnixSocketInvalidPermissions
	}
}

// normalizeBasePath returns "" for the root and "/segment[/segment]" otherwise.
func normalizeBasePath(raw string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return "", nil
	}

	if !strings.HasPrefix(trimmed, "/") || strings.ContainsAny(trimmed, "?#") || strings.Contains(trimmed, "//") {
		return "", fmt.Errorf("%w: %q", errInvalidBasePath, raw)
	}

	return trimmed, nil
}
