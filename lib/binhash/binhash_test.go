// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zeebo/blake3"
)

func TestHashFile(t *testing.T) {
	content := []byte("#!/bin/sh\necho cargo:rerun-if-changed=build.rs\n")
	path := filepath.Join(t.TempDir(), "build_script_build-abcd")
	if err := os.WriteFile(path, content, 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if want := Digest(blake3.Sum256(content)); got != want {
		t.Errorf("HashFile = %s, want %s", got, want)
	}
}

func TestHashFileLarge(t *testing.T) {
	content := make([]byte, 256*1024)
	for i := range content {
		content[i] = byte(i % 251)
	}
	path := filepath.Join(t.TempDir(), "large")
	if err := os.WriteFile(path, content, 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if want := Digest(blake3.Sum256(content)); got != want {
		t.Errorf("HashFile = %s, want %s", got, want)
	}
}

func TestHashFileNonexistent(t *testing.T) {
	if _, err := HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("HashFile should fail for a nonexistent file")
	}
}
