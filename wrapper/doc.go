// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

// Package wrapper replaces a freshly linked build script with a
// wrapper that runs it inside a sandbox.
//
// [Synthesize] performs the whole replacement:
//
//  1. The build script is renamed to a unique hidden name in the same
//     directory (the sibling). Its BLAKE3 digest is compared before
//     and after the rename.
//  2. [NewPackage] writes a Go module holding the shim sources and a
//     generated main.go whose constants are the sibling path and the
//     sandbox command template.
//  3. [BuildCommand] compiles the module with the Go tool. The real
//     linker is passed explicitly and cgo is disabled, so the inner
//     build never reaches build-wrap again.
//  4. The compiled wrapper is copied next to the build script and
//     renamed over the original path.
//
// A failure after step 1 leaves the build script at its sibling path
// and nothing at the original path. Cargo reports the missing file;
// "cargo clean" recovers.
package wrapper
