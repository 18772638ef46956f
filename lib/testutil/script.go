// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteScript writes a /bin/sh script with the given body to
// directory/name, mode 0755, and returns its path.
//
//	linker := testutil.WriteScript(t, dir, "cc", `echo "$@" > linked`)
func WriteScript(t *testing.T, directory, name, body string) string {
	t.Helper()
	return WriteExecutable(t, filepath.Join(directory, name), []byte("#!/bin/sh\n"+body+"\n"))
}

// WriteExecutable writes content to path with mode 0755, creating
// parent directories as needed.
func WriteExecutable(t *testing.T, path string, content []byte) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, content, 0o755); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// Lookup returns a variable lookup function over values. A nil map
// has no variables.
func Lookup(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
