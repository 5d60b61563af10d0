// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/filekit/filekit/config"
)

func TestRenderEnv(t *testing.T) {
	t.Parallel()

	cfg := &config.ServerConfig{}
	cfg.SetDefaults()

	env := renderEnv(cfg)
	assert.Contains(t, env, "## Basic\n")
	assert.Contains(t, env, `FILEKIT_PORT="8282"`)
	assert.Contains(t, env, "# FILEKIT_BASE_PATH=\n")
	assert.Contains(t, env, "# FILEKIT_SESSION_SECRET=\n")
	assert.Contains(t, env, "# FILEKIT_LOG_OUTPUTS=\n")
	assert.NotContains(t, env, "## Build")
	assert.NotContains(t, env, "## Routes")
}

func TestRenderYAML(t *testing.T) {
	t.Parallel()

	cfg := &config.ServerConfig{}
	cfg.SetDefaults()

	out, err := renderYAML(cfg)
	require.NoError(t, err)

	assert.Contains(t, out, "\nbasic:\n")
	assert.Contains(t, out, "\nroutes:\n")
	assert.Contains(t, out, "  # port: ")
	assert.Contains(t, out, "# - path: /image-compress")
	assert.Contains(t, out, "  # loadTimeout: ")
	assert.NotContains(t, out, "build:")
}
