// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routetable

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is matched by every *NotFoundError.
	ErrNotFound = errors.New("route not found")

	// ErrConfiguration is matched by every *ConfigurationError.
	ErrConfiguration = errors.New("invalid route configuration")

	ErrDuplicatePath = errors.New("duplicate route path")
	ErrDuplicateName = errors.New("duplicate route name")
	ErrInvalidRoute  = errors.New("invalid route")
)

// ConfigurationError reports a route table that cannot be built.
type ConfigurationError struct {
	Err   error  // ErrDuplicatePath, ErrDuplicateName or ErrInvalidRoute
	Field string // "path", "name" or "loader"
	Value string
	Index int // position of the offending definition
	Other int // position of the earlier duplicate, -1 if not a duplicate
}

func (e *ConfigurationError) Error() string {
	if e.Other >= 0 {
		return fmt.Sprintf("%v: %v %q at routes[%d] already used by routes[%d]",
			ErrConfiguration, e.Err, e.Value, e.Index, e.Other)
	}

	return fmt.Sprintf("%v: %v: bad %s %q at routes[%d]", ErrConfiguration, e.Err, e.Field, e.Value, e.Index)
}

func (e *ConfigurationError) Unwrap() []error {
	return []error{ErrConfiguration, e.Err}
}

// NotFoundError reports a path or name that matches no route.
type NotFoundError struct {
	Path string
	Name string
}

func (e *NotFoundError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%v: no route named %q", ErrNotFound, e.Name)
	}

	return fmt.Sprintf("%v: %q", ErrNotFound, e.Path)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
