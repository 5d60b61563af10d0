// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package views

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
)

const (
	moduleDir      = "views"
	manifestSuffix = ".yaml"
	bodySuffix     = ".html"
)

var (
	ErrUnknownView     = errors.New("unknown view")
	errMissingTitle    = errors.New("manifest has no title")
	errInvalidKey      = errors.New("invalid view key")
	errInvalidManifest = errors.New("invalid manifest")
)

// Registry hands out loaders for the view modules stored in an fs.FS.
type Registry struct {
	fsys fs.FS
}

// NewRegistry returns a Registry reading modules from views/ in fsys.
func NewRegistry(fsys fs.FS) *Registry {
	return &Registry{fsys: fsys}
}

// Keys lists every module with a manifest, sorted.
func (reg *Registry) Keys() ([]string, error) {
	entries, err := fs.ReadDir(reg.fsys, moduleDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read view modules: %w", err)
	}

	keys := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), manifestSuffix) {
			continue
		}

		keys = append(keys, strings.TrimSuffix(entry.Name(), manifestSuffix))
	}

	slices.Sort(keys)

	return keys, nil
}

// Loader returns the on-demand loader for key.
//
// Only the presence of the manifest is checked here, so a route table
// referencing a missing module fails at startup. The module itself is read
// and parsed when the returned function runs.
func (reg *Registry) Loader(key string) (LoadFunc, error) {
	if key == "" || strings.ContainsAny(key, `/\.`) {
		return nil, fmt.Errorf("%w: %q", errInvalidKey, key)
	}

	if _, err := fs.Stat(reg.fsys, manifestPath(key)); err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrUnknownView, key, err)
	}

	return func(ctx context.Context) (View, error) {
		return reg.load(ctx, key)
	}, nil
}

func (reg *Registry) load(ctx context.Context, key string) (View, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := fs.ReadFile(reg.fsys, manifestPath(key))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest for %q: %w", key, err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("%w for %q: %w", errInvalidManifest, key, err)
	}

	if manifest.Title == "" {
		return nil, fmt.Errorf("%w for %q: %w", errInvalidManifest, key, errMissingTitle)
	}

	// The body fragment is optional.
	body, err := fs.ReadFile(reg.fsys, path.Join(moduleDir, key+bodySuffix))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read body for %q: %w", key, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &module{
		key:      key,
		manifest: manifest,
		body:     string(body),
	}, nil
}

func manifestPath(key string) string {
	return path.Join(moduleDir, key+manifestSuffix)
}
