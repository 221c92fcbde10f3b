// SPDX-License-Identifier: MIT
//
// Package build exposes metadata embedded into the lipsync binary at link
// time. Values are injected with -ldflags, for example:
//
//	go build -ldflags "-X lipsync/pkg/build.buildVersion=0.3.0 \
//	    -X lipsync/pkg/build.buildCommit=$(git rev-parse --short HEAD) \
//	    -X lipsync/pkg/build.buildTime=$(date -u +%FT%TZ)"
//
// Development builds carry no ldflags. Initialize reports that as an error
// but leaves usable defaults in place, so callers may log and continue.
package build

import (
	"errors"
	"fmt"
)

// Info describes the running binary.
type Info struct {
	Name        string
	Description string
	Version     string
	Commit      string
	Time        string
}

// ErrMissingFlags is returned by Initialize when one or more ldflags were
// not provided at link time.
var ErrMissingFlags = errors.New("build flags missing")

var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string

	info = Info{
		Name:        "lipsync",
		Description: "Real-time vowel estimation for lip-sync animation",
		Version:     "dev",
		Commit:      "unknown",
		Time:        "unknown",
	}
)

// Initialize copies the ldflags values into the build info. Every flag that
// is present is applied even when others are missing; the returned error
// lists the missing ones and wraps ErrMissingFlags.
func Initialize() error {
	var missing []string

	apply := func(name, value string, dst *string) {
		if value == "" {
			missing = append(missing, name)
			return
		}
		*dst = value
	}
	apply("name", buildName, &info.Name)
	apply("version", buildVersion, &info.Version)
	apply("commit", buildCommit, &info.Commit)
	apply("time", buildTime, &info.Time)

	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingFlags, missing)
	}
	return nil
}

// Get returns a copy of the current build information.
func Get() Info {
	return info
}

// String renders the version line shown by the CLI.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}
