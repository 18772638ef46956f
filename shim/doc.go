// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

// Package shim is the runtime half of build-wrap: the code that runs
// each time cargo executes a wrapped build script.
//
// A generated wrapper's main function calls [ExecSibling] with two
// constants fixed when the wrapper was compiled: the path of the
// original build script (the "sibling", renamed next to the wrapper)
// and the sandbox command template. ExecSibling expands the template
// with [SplitAndExpand], runs the resulting sandbox command with its
// output forwarded to the wrapper's own stdout and stderr, and, if the
// sandboxed run fails and BUILD_WRAP_ALLOW is enabled, runs the sibling
// directly.
//
// Command templates are whitespace-separated words. A backslash escapes
// a following whitespace character or backslash. Within a word, "{}"
// is replaced by the build script path and "{NAME}" by the value of
// the environment variable NAME; "{{" and "}}" produce literal braces.
// Two names are computed rather than read: PRIVATE_TMPDIR (the
// canonical TMPDIR when it lives under /private, as on macOS) and
// BUILD_WRAP_PROFILE_PATH (a file holding the expanded sandbox
// profile). See [Expander].
//
// The source files of this package are embedded into build-wrap
// ([Sources]) and copied verbatim into every generated wrapper
// package, so this package must import only the standard library.
package shim
