// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

// Package link is the linker half of build-wrap.
//
// [Run] forwards a link to the real linker and then decides whether
// the linked file is a build script that should be wrapped: it is not
// when RUSTC_WRAPPER or RUSTC_WORKSPACE_WRAPPER is set (Clippy and
// Dylint builds), when the output is not a build script according to
// the [Matcher], or when the policy exempts the package or directory.
// Otherwise it hands the build script to wrapper.Synthesize.
//
// [DetectStatus] reports whether cargo is configured to use build-wrap
// as its linker.
package link
