// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the build-wrap policy file, which lists
// directories and packages whose build scripts are not sandboxed.
//
// The file is build-wrap/config.toml (or build-wrap/config.yaml) in the
// first XDG configuration directory that has one ([SearchPaths]):
//
//	[allow]
//	directories = ["/home/user/project-a"]
//	packages = ["aws-lc-fips-sys"]
//
//	[ignore]
//	directories = ["/home/user/project-b"]
//	packages = ["svm-rs-builds"]
//
//	[build_script]
//	prefixes = ["build_script_"]
//
// Entries under [allow] and [ignore] have the same effect: a matching
// build script is left unwrapped. The two tables exist so that users
// can record why. [build_script] adds file name prefixes recognized as
// build scripts.
//
// A missing file is an empty policy. [Load] also treats an unreadable
// or malformed file as empty, after logging a warning, because the
// policy must never break a build that would otherwise succeed.
//
// This package depends on no other build-wrap packages.
package config
