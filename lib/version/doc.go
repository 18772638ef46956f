// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the
// build-wrap binaries.
//
// Version information is injected at build time via -ldflags, for
// example:
//
//	go build -ldflags "-X github.com/trailofbits/build-wrap/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version
