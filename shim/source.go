// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package shim

import "embed"

// Sources holds the files copied into every generated wrapper package.
// This file and the tests are not among them.
//
//go:embed doc.go exec.go profile.go sibling.go template.go
var Sources embed.FS
