// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routetable

import (
	"fmt"

	"codeberg.org/filekit/filekit/views"
)

// Descriptor is the configuration form of a Definition: the loader is
// named by its view module key instead of being a function.
type Descriptor struct {
	Path  string `yaml:"path"`
	Name  string `yaml:"name"`
	Title string `yaml:"title,omitempty"`
	View  string `yaml:"view"`
}

// LoaderSource resolves view module keys to loaders. *views.Registry
// implements it.
type LoaderSource interface {
	Loader(key string) (views.LoadFunc, error)
}

// Build resolves every descriptor's view through source and configures a
// Table. A view the source does not know is a *ConfigurationError.
func Build(baseSegment string, descriptors []Descriptor, source LoaderSource) (*Table, error) {
	routes := make([]Definition, 0, len(descriptors))

	for i, desc := range descriptors {
		loadFunc, err := source.Loader(desc.View)
		if err != nil {
			return nil, &ConfigurationError{
				Err:   fmt.Errorf("%w: %w", ErrInvalidRoute, err),
				Field: "view",
				Value: desc.View,
				Index: i,
				Other: -1,
			}
		}

		routes = append(routes, Definition{
			Path:   desc.Path,
			Name:   desc.Name,
			Title:  desc.Title,
			View:   desc.View,
			Loader: loadFunc,
		})
	}

	return Configure(baseSegment, routes)
}

// DefaultDescriptors returns the built-in page set.
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{Path: "/", Name: "home", Title: "Home", View: "home"},
		{Path: "/pdf-compress", Name: "pdfCompress", Title: "PDF compression", View: "pdf-compress"},
		{Path: "/image-compress", Name: "image-compress", Title: "Image compression", View: "image-compress"},
		{Path: "/image-png-to-jpg", Name: "png-to-jpg", Title: "PNG to JPG", View: "image-png-to-jpg"},
		{Path: "/image-png-to-icon", Name: "pngToIcon", Title: "PNG to icon", View: "image-png-to-icon"},
		{Path: "/image-watermark", Name: "image-watermark", Title: "Watermark", View: "image-watermark"},
		{Path: "/p-score-edit", Name: "p-score-edit", Title: "Score editor", View: "p-score-edit"},
		{Path: "/audio-visualization", Name: "audio-visualization", Title: "Audio visualization", View: "audio-visualization"},
	}
}
