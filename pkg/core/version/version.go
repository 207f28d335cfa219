// ============================================================================
// cobdoc - COBOL static analysis and documentation
// ============================================================================
//
// Package:     version
// Description: Central version management for the CLI and the gRPC service
// Author:      msto63
// Created:     2026-10-17
// License:     MIT
// ============================================================================

package version

import (
	"fmt"
	"runtime"
)

// Version constants for cobdoc components
const (
	// Platform version
	Platform = "0.1.0"

	// Component versions
	Analyzer = "0.1.0"
	Service  = "0.1.0"
)

// Set at build time with -ldflags "-X github.com/msto63/cobdoc/pkg/core/version.Commit=..."
var (
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info describes the running binary
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Analyzer  string `json:"analyzer" yaml:"analyzer"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// Get returns the build information
func Get() Info {
	return Info{
		Version:   Platform,
		Analyzer:  Analyzer,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// ComponentVersion returns the version for a given component name
func ComponentVersion(name string) string {
	switch name {
	case "analyzer":
		return Analyzer
	case "service", "server":
		return Service
	default:
		return Platform
	}
}

// String renders a one-line version banner
func (i Info) String() string {
	return fmt.Sprintf("cobdoc %s (analyzer %s, commit %s, built %s, %s %s)",
		i.Version, i.Analyzer, i.Commit, i.BuildDate, i.GoVersion, i.Platform)
}
