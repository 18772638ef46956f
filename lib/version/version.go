// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
)

// Name is the program name printed in help output.
const Name = "build-wrap"

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// Version is the semantic version.
	Version = "0.5.0"
)

// Info returns "name version", the first line of help output.
func Info() string {
	return fmt.Sprintf("%s %s", Name, Version)
}

// Full returns detailed version information including the Go version.
func Full() string {
	return fmt.Sprintf("%s (%s)\n  Go: %s\n  Platform: %s/%s",
		Info(), GitCommit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
