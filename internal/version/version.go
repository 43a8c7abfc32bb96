// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

// Package version provides build-time version information.
package version

// Info contains build-time version information injected via ldflags.
type Info struct {
	Version   string // Semantic version from git tags (e.g., "v1.2.3")
	GitCommit string // Short git commit hash (e.g., "abc1234")
	BuildTime string // Build timestamp in RFC3339 format
}

// String returns the semantic version, or "dev" when nothing was injected.
func (i Info) String() string {
	if i.Version == "" {
		return "dev"
	}
	return i.Version
}
