// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"os/exec"
	"testing"
)

// RequireTool returns the path of program, or skips the test if it is
// not in PATH.
func RequireTool(t *testing.T, program string) string {
	t.Helper()
	path, err := exec.LookPath(program)
	if err != nil {
		t.Skipf("%s not found in PATH", program)
	}
	return path
}

// RequireGoTool returns the Go tool used to compile wrappers: the
// value of BUILD_WRAP_GO if set, else "go" from PATH. The test is
// skipped if neither is available.
func RequireGoTool(t *testing.T) string {
	t.Helper()
	if goTool := os.Getenv("BUILD_WRAP_GO"); goTool != "" {
		return RequireTool(t, goTool)
	}
	return RequireTool(t, "go")
}
