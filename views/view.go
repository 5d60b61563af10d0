// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package views holds the file-utility view modules and the page layout
that hosts them.

A view module is a YAML manifest plus an HTML body fragment stored under
views/ in an fs.FS. Modules are only read when their loader runs, which is
what makes them loadable on demand by package loader.
*/
package views

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// View is a loaded view module ready to be rendered.
type View interface {
	templ.Component

	// Name is the registry key of the module, e.g. "image-compress".
	Name() string

	// Title is the human readable page title.
	Title() string
}

// LoadFunc asynchronously produces a View.
//
// Route definitions carry one LoadFunc each; package loader memoizes them.
type LoadFunc func(ctx context.Context) (View, error)

// Option is a tool option rendered as a form control.
type Option struct {
	Name    string   `yaml:"name"`
	Label   string   `yaml:"label"`
	Type    string   `yaml:"type"` // range, number, select, checkbox, text, color
	Min     float64  `yaml:"min"`
	Max     float64  `yaml:"max"`
	Step    float64  `yaml:"step"`
	Default string   `yaml:"default"`
	Choices []string `yaml:"choices"`
}

// Manifest describes a view module.
type Manifest struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Accept      []string `yaml:"accept"`
	Multiple    bool     `yaml:"multiple"`
	Script      string   `yaml:"script"`
	Options     []Option `yaml:"options"`
}

// module is the View implementation produced by Registry loaders.
type module struct {
	key      string
	manifest Manifest
	body     string
}

func (m *module) Name() string  { return m.key }
func (m *module) Title() string { return m.manifest.Title }

// Render writes the view body. The page chrome is added by Page.
func (m *module) Render(ctx context.Context, w io.Writer) error {
	return toolView(m).Render(ctx, w)
}

func (opt Option) label() string {
	if opt.Label == "" {
		return opt.Name
	}

	return opt.Label
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// scriptURL resolves a module script against the mount point in ctx.
func scriptURL(ctx context.Context, script string) string {
	return BaseFrom(ctx) + "/" + strings.TrimPrefix(script, "/")
}

type baseKeyType struct{}

var baseKey = baseKeyType{}

// WithBase attaches the URL mount point used to build asset links.
func WithBase(ctx context.Context, base string) context.Context {
	return context.WithValue(ctx, baseKey, base)
}

// BaseFrom returns the mount point attached by WithBase, or "".
func BaseFrom(ctx context.Context) string {
	if v, ok := ctx.Value(baseKey).(string); ok {
		return v
	}

	return ""
}
