// Copyright (c) 2026 Freshmart Developers
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version provides build-time version information.
package version

import "fmt"

// Info contains build-time version information injected via ldflags.
type Info struct {
	Version   string // Semantic version from git tags (e.g., "v1.2.3")
	GitCommit string // Short git commit hash (e.g., "abc1234")
	BuildTime string // Build timestamp in RFC3339 format
}

// String renders the info on one line for the version command.
func (i Info) String() string {
	v := i.Version
	if v == "" {
		v = "dev"
	}
	out := "adminctl " + v
	if i.GitCommit != "" {
		out += fmt.Sprintf(" (%s)", i.GitCommit)
	}
	if i.BuildTime != "" {
		out += " built " + i.BuildTime
	}
	return out
}
