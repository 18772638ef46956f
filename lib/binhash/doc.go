// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash computes BLAKE3 digests of executables. The wrapper
// synthesis step digests a build script before and after moving it
// aside, to assert that the relocated binary is byte-identical to what
// the linker produced, and logs the digest so a wrapped build script
// can be matched to its original.
package binhash
