// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for build-wrap
// packages.
//
// [WriteScript] writes an executable shell script, which tests use as
// a stand-in for a linker, a sandbox tool, or a compiled build script.
// [RequireTool] and [RequireGoTool] skip tests that need a program the
// host does not have (the Go toolchain for wrapper synthesis, bwrap
// for sandboxed runs). [Lookup] adapts a map to the variable lookup
// signature used throughout build-wrap.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package depends only on the standard library.
package testutil
