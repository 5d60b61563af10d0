// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"runtime/debug"
	"strings"
)

// BuildVersion is the latest tagged release of filekit.
const BuildVersion string = "v0.4.0"

const shortRevisionLength = 8

type buildInfo struct {
	GoVersion   string
	VcsRevision string
	VcsTime     string
	VcsModified bool
}

// Revision returns a short "date-commit" identifier, or "unknown" when the
// binary was built outside a VCS checkout.
func (b *buildInfo) Revision() string {
	if b.VcsRevision == "" {
		return "unknown"
	}

	revision := b.VcsRevision
	if len(revision) > shortRevisionLength {
		revision = revision[:shortRevisionLength]
	}

	date, _, _ := strings.Cut(b.VcsTime, "T")

	s := date + "-" + revision
	if b.VcsModified {
		s += "+dirty"
	}

	return s
}

// Version combines BuildVersion with the VCS revision when one is known.
func (b *buildInfo) Version() string {
	if b.VcsRevision == "" {
		return BuildVersion
	}

	return BuildVersion + " (" + b.Revision() + ")"
}

func (b *buildInfo) load() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	b.GoVersion = info.GoVersion

	settings := make(map[string]string, len(info.Settings))
	for _, kv := range info.Settings {
		settings[kv.Key] = kv.Value
	}

	b.VcsRevision = settings["vcs.revision"]
	b.VcsTime = settings["vcs.time"]
	b.VcsModified = settings["vcs.modified"] == "true"
}
