// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package link

import (
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/trailofbits/build-wrap/shim"
	"github.com/trailofbits/build-wrap/wrapper"
)

const (
	// LinkerVar overrides the real linker.
	LinkerVar = "BUILD_WRAP_LD"

	// DefaultLinker is used when LinkerVar is unset.
	DefaultLinker = "cc"
)

// ResolveLinker returns the absolute path of the real linker. It fails
// if the linker is self, the running build-wrap executable.
func ResolveLinker(lookup shim.LookupFunc, self string) (string, error) {
	name := DefaultLinker
	if value, ok := lookup(LinkerVar); ok && value != "" {
		name = value
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("finding linker %q (set %s to override): %w", name, LinkerVar, err)
	}
	path, err = filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving linker path: %w", err)
	}
	if self != "" && wrapper.SameFile(path, self) {
		return "", fmt.Errorf("%w: linker %s is build-wrap itself; set %s to the real linker", wrapper.ErrRecursion, path, LinkerVar)
	}
	return path, nil
}
