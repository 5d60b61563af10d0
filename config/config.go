// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"codeberg.org/filekit/filekit/core/routetable"
)

// Global exposes the server configuration.
var Global ServerConfig

// ServerConfig holds the application configuration.
type ServerConfig struct {
	Build buildInfo `yaml:"-"`

	Basic struct {
		Host                     string      `env:"FILEKIT_HOST,overwrite" yaml:"host"`
		Port                     string      `env:"FILEKIT_PORT,overwrite" yaml:"port"`
		UnixSocket               string      `env:"FILEKIT_UNIXSOCKET" yaml:"unixSocket"`
		RawUnixSocketPermissions string      `env:"FILEKIT_UNIXSOCKET_PERMISSIONS" yaml:"unixSocketPermissions"`
		UnixSocketPermissions    os.FileMode `yaml:"-"`
		UnixSocketUser           string      `env:"FILEKIT_UNIXSOCKET_USER" yaml:"unixSocketUser"`
		UnixSocketGroup          string      `env:"FILEKIT_UNIXSOCKET_GROUP" yaml:"unixSocketGroup"`
		// URL prefix every page is mounted under, e.g. "/tools".
		BasePath string `env:"FILEKIT_BASE_PATH,overwrite" yaml:"basePath"`
	} `yaml:"basic"`

	// Routes is the page table. Each view names a module under assets/views.
	Routes []routetable.Descriptor `yaml:"routes"`

	Views struct {
		// Directory overrides the embedded view modules, for development.
		Directory   string        `env:"FILEKIT_VIEWS_DIR,overwrite" yaml:"directory"`
		LoadTimeout time.Duration `env:"FILEKIT_VIEWS_LOAD_TIMEOUT,overwrite" yaml:"loadTimeout"`
		Preload     bool          `env:"FILEKIT_VIEWS_PRELOAD,overwrite" yaml:"preload"`
	} `yaml:"views"`

	Session struct {
		CookieName   string `env:"FILEKIT_SESSION_COOKIE,overwrite" yaml:"cookieName"`
		Capacity     int    `env:"FILEKIT_SESSION_CAPACITY,overwrite" yaml:"capacity"`
		HistoryLimit int    `env:"FILEKIT_SESSION_HISTORY_LIMIT,overwrite" yaml:"historyLimit"`
		// Hex-encoded PASETO v4 secret key signing session cookies. An
		// ephemeral key is generated when empty.
		Secret string        `env:"FILEKIT_SESSION_SECRET,overwrite" yaml:"secret"`
		MaxAge time.Duration `env:"FILEKIT_SESSION_MAX_AGE,overwrite" yaml:"maxAge"`
	} `yaml:"session"`

	Limiter struct {
		Enabled           bool `env:"FILEKIT_LIMITER,overwrite" yaml:"enabled"`
		RequestsPerMinute int  `env:"FILEKIT_LIMITER_RPM,overwrite" yaml:"requestsPerMinute"`
		Burst             int  `env:"FILEKIT_LIMITER_BURST,overwrite" yaml:"burst"`
		Capacity          int  `env:"FILEKIT_LIMITER_CAPACITY,overwrite" yaml:"capacity"`
	} `yaml:"limiter"`

	Metrics struct {
		Enabled bool   `env:"FILEKIT_METRICS,overwrite" yaml:"enabled"`
		Path    string `env:"FILEKIT_METRICS_PATH,overwrite" yaml:"path"`
	} `yaml:"metrics"`

	HTTPCache struct {
		MaxAge               time.Duration `env:"FILEKIT_CACHE_CONTROL_MAX_AGE,overwrite" yaml:"cacheControlMaxAge"`
		StaleWhileRevalidate time.Duration `env:"FILEKIT_CACHE_CONTROL_STALE_WHILE_REVALIDATE,overwrite" yaml:"cacheControlStaleWhileRevalidate"`
	} `yaml:"httpCache"`

	Response struct {
		Compression bool `env:"FILEKIT_COMPRESSION,overwrite" yaml:"compression"`
	} `yaml:"response"`

	Instance struct {
		StartingTime      string `yaml:"-"`
		FileServerCacheID string `yaml:"-"`
		RepoURL           string `env:"FILEKIT_REPO_URL,overwrite" yaml:"repoUrl"`
	} `yaml:"instance"`

	Development struct {
		InDevelopment bool `env:"FILEKIT_DEV" yaml:"inDevelopment"`
	} `yaml:"development"`

	Log struct {
		Level   string   `env:"FILEKIT_LOG_LEVEL,overwrite" yaml:"logLevel"`
		Outputs []string `env:"FILEKIT_LOG_OUTPUTS,overwrite" yaml:"logOutputs"`
		Format  string   `env:"FILEKIT_LOG_FORMAT,overwrite" yaml:"logFormat"`
	} `yaml:"log"`
}

// resolveConfigPath picks the YAML file to read. Precedence: the -config
// flag, FILEKIT_CONFIGFILE, then ./config.yaml with a ./config.yml fallback.
func resolveConfigPath() string {
	configFilePath, userSet := parseCommandLineArgs()
	if userSet {
		return configFilePath
	}

	if envVar := os.Getenv("FILEKIT_CONFIGFILE"); envVar != "" {
		return envVar
	}

	if _, err := os.Stat(configFilePath); os.IsNotExist(err) {
		if _, statErr := os.Stat("./config.yml"); statErr == nil {
			return "./config.yml"
		}
	}

	return configFilePath
}

// LoadConfig loads the configuration from various sources.
func (cfg *ServerConfig) LoadConfig() error {
	configFilePath := resolveConfigPath()

	cfg.SetDefaults()

	cfg.Build.load()

	cfg.Instance.FileServerCacheID = uuid.NewString()
	cfg.Instance.StartingTime = time.Now().UTC().Format("2006-01-02 15:04")

	if err := cfg.readYAML(configFilePath); err != nil {
		return fmt.Errorf("error loading YAML config: %w", err)
	}

	if err := useDotEnv(); err != nil {
		return fmt.Errorf("error using .env file: %w", err)
	}

	if err := readEnv(cfg); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}

	if err := cfg.validateAndSet(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	cfg.setupAudit()

	cfg.print()

	// Heuristically check for containerized environment and warn if host is not a wildcard address.
	if isContainerized() && cfg.Basic.UnixSocket == "" && cfg.Basic.Host != "0.0.0.0" && cfg.Basic.Host != "::" {
		log.Warn().
			Str("host", cfg.Basic.Host).
			Msg("Running in a containerized environment but host is not a wildcard address (e.g., '0.0.0.0' or '::'). This may prevent the service from being accessible outside the container.")
	}

	return nil
}

var staticPathPrefixes = []string{"/css/", "/js/"}

// IsAuxiliaryPath reports static assets and the health check, which are
// neither logged nor rate limited.
func (cfg *ServerConfig) IsAuxiliaryPath(path string) bool {
	path = strings.TrimPrefix(path, cfg.Basic.BasePath)

	for _, prefix := range staticPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return path == "/healthz"
}

// ShouldSkipServerLogging determines if a request should bypass the logging middleware.
func (cfg *ServerConfig) ShouldSkipServerLogging(path string) bool {
	return cfg.IsAuxiliaryPath(path)
}

// isContainerized checks for common indicators of a containerized environment.
//
// This is a heuristic and may not be 100% accurate.
func isContainerized() bool {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true
	}

	for _, marker := range []string{"/.dockerenv", "/.containerenv"} {
		if _, err := os.Stat(marker); err == nil {
			return true
		}
	}

	// #nosec G304 -- well-known system file, read for heuristics only.
	cgroup, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return false
	}

	content := string(cgroup)

	for _, keyword := range []string{"docker", "kubepods", "containerd", "lxc", "crio", ".machine"} {
		if strings.Contains(content, keyword) {
			return true
		}
	}

	return false
}

// GetDurationEncoderOption returns a YAML encoder option that marshals
// time.Duration into a human-readable string format (e.g., "30m", "1h").
func GetDurationEncoderOption() yaml.EncodeOption {
	return yaml.CustomMarshaler[time.Duration](
		func(d time.Duration) ([]byte, error) {
			return yaml.Marshal(d.String())
		},
	)
}
