// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for the build-wrap
// binaries: reporting a fatal error before exiting, and carrying an
// exit code that a handled failure (such as a failed link) must be
// reported with.
package process
