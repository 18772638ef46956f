// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

// Package sandbox knows which external sandbox tool build-wrap drives
// on each operating system and how to describe it.
//
// [DefaultCommand] returns the command template used when
// BUILD_WRAP_CMD is unset: a bubblewrap invocation on Linux and a
// sandbox-exec invocation on macOS. Templates are assembled with
// [Builder], which escapes words for the template tokenizer, and
// [BwrapTemplate] translates [BwrapOptions] into bwrap arguments.
//
// [DetectCapabilities] probes the host for the sandbox tool and for
// the kernel settings that commonly stop it from working (disabled
// unprivileged user namespaces, Ubuntu's AppArmor restriction).
// [Checker] turns a probe into pass/warn/fail results for the help
// output.
//
// The package does not run build scripts; that is the job of the
// generated wrappers (package shim).
package sandbox
