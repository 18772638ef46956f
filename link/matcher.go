// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package link

import (
	"path/filepath"
	"slices"
	"strings"
)

// DefaultPrefix starts the file name of every build script cargo
// links, whether the script is build.rs or a custom "build = ..." file.
const DefaultPrefix = "build_script_"

// buildDirDepth is how many ancestors of a build script are searched
// for the build directory. Cargo's layouts put build scripts at
// build/<pkg>-<hash>/ or build/<pkg>/<hash>/.
const buildDirDepth = 3

// Matcher decides whether a linked file is a build script.
type Matcher struct {
	// Prefixes are accepted file name prefixes.
	Prefixes []string

	// BuildDir must name one of the file's nearest ancestor
	// directories. Empty disables the check.
	BuildDir string
}

// DefaultMatcher matches cargo's build script outputs.
func DefaultMatcher() Matcher {
	return Matcher{
		Prefixes: []string{DefaultPrefix},
		BuildDir: "build",
	}
}

// isZero reports whether m was never configured.
func (m Matcher) isZero() bool {
	return len(m.Prefixes) == 0 && m.BuildDir == ""
}

// WithPrefixes returns a copy of m that also accepts prefixes.
func (m Matcher) WithPrefixes(prefixes ...string) Matcher {
	merged := slices.Clone(m.Prefixes)
	for _, prefix := range prefixes {
		if prefix != "" && !slices.Contains(merged, prefix) {
			merged = append(merged, prefix)
		}
	}
	m.Prefixes = merged
	return m
}

// Match reports whether path names a build script.
func (m Matcher) Match(path string) bool {
	if path == "" {
		return false
	}
	name := filepath.Base(path)
	matched := false
	for _, prefix := range m.Prefixes {
		if strings.HasPrefix(name, prefix) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	if m.BuildDir == "" {
		return true
	}

	dir := filepath.Dir(filepath.Clean(path))
	for i := 0; i < buildDirDepth; i++ {
		if filepath.Base(dir) == m.BuildDir {
			return true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return false
}
