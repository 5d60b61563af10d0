// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package navigation

import (
	"errors"

	"codeberg.org/filekit/filekit/views"
)

// Phase is the step a navigation is in.
type Phase int

const (
	Idle Phase = iota
	Resolving
	Activating
	Active
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Resolving:
		return "resolving"
	case Activating:
		return "activating"
	case Active:
		return "active"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrSuperseded is returned to a navigation whose result was discarded
// because a newer navigation was issued before it finished.
var ErrSuperseded = errors.New("navigation superseded")

// State is a snapshot of a Navigator.
//
// Path, Route and View describe the last committed navigation and always
// change together. Err is set while Phase is Failed.
type State struct {
	Phase      Phase
	Path       string
	Route      string
	View       views.View
	Err        error
	Generation uint64
}
