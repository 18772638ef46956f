// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package shim

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// wrapperFixture is a directory holding a fake build script at its
// sibling path and a Runtime that pretends to be the wrapper installed
// next to it.
type wrapperFixture struct {
	dir     string
	sibling string
	runtime *Runtime
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	env     map[string]string
}

func newWrapperFixture(t *testing.T, script string) *wrapperFixture {
	t.Helper()
	dir := t.TempDir()
	sibling := filepath.Join(dir, ".build_script_build-abcd.1234")
	if err := os.WriteFile(sibling, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("writing build script: %v", err)
	}
	fixture := &wrapperFixture{
		dir:     dir,
		sibling: sibling,
		stdout:  &bytes.Buffer{},
		stderr:  &bytes.Buffer{},
		env:     map[string]string{},
	}
	fixture.runtime = &Runtime{
		Lookup: mapLookup(fixture.env),
		Stdout: fixture.stdout,
		Stderr: fixture.stderr,
		Executable: func() (string, error) {
			return filepath.Join(dir, "build_script_build-abcd"), nil
		},
	}
	return fixture
}

func (f *wrapperFixture) run(template string) int {
	return f.runtime.ExecSibling(f.sibling, template)
}

func TestExecSiblingSandboxed(t *testing.T) {
	fixture := newWrapperFixture(t, "echo cargo:rustc-cfg=wrapped\n")

	if code := fixture.run("sh {}"); code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, fixture.stderr)
	}
	if got, want := fixture.stdout.String(), "cargo:rustc-cfg=wrapped\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
	if !strings.Contains(fixture.stderr.String(), "expanded BUILD_WRAP_CMD") {
		t.Errorf("stderr does not report the expanded command:\n%s", fixture.stderr)
	}
}

func TestExecSiblingUsesCompiledTemplate(t *testing.T) {
	fixture := newWrapperFixture(t, "echo ran\n")
	// The live BUILD_WRAP_CMD is ignored in favor of the template the
	// wrapper was generated with.
	fixture.env[CommandVar] = "false {}"

	if code := fixture.run("sh {}"); code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, fixture.stderr)
	}
	if fixture.stdout.String() != "ran\n" {
		t.Errorf("stdout = %q, want ran", fixture.stdout)
	}
}

func TestExecSiblingExpandsEnvironment(t *testing.T) {
	fixture := newWrapperFixture(t, `echo "$1"`+"\n")
	fixture.env["OUT_DIR"] = "/target/out"

	if code := fixture.run("sh {} {OUT_DIR}"); code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, fixture.stderr)
	}
	if fixture.stdout.String() != "/target/out\n" {
		t.Errorf("stdout = %q, want /target/out", fixture.stdout)
	}
}

func TestExecSiblingFailClosed(t *testing.T) {
	for _, allow := range []string{"", "0"} {
		fixture := newWrapperFixture(t, "echo unsandboxed\n")
		if allow != "" {
			fixture.env[AllowVar] = allow
		}

		code := fixture.run(`sh -c exit\ 5 {}`)
		if code != 5 {
			t.Errorf("allow=%q: exit code = %d, want 5", allow, code)
		}
		if strings.Contains(fixture.stdout.String(), "unsandboxed") {
			t.Errorf("allow=%q: build script ran without the sandbox", allow)
		}
		if !strings.Contains(fixture.stderr.String(), "command failed") {
			t.Errorf("allow=%q: stderr does not report the failure:\n%s", allow, fixture.stderr)
		}
	}
}

func TestExecSiblingFailClosedOnSpawnFailure(t *testing.T) {
	fixture := newWrapperFixture(t, "echo unsandboxed\n")

	code := fixture.run("/nonexistent/sandbox {}")
	if code != ExitInternal {
		t.Errorf("exit code = %d, want %d", code, ExitInternal)
	}
	if fixture.stdout.Len() != 0 {
		t.Errorf("stdout = %q, want nothing", fixture.stdout)
	}
}

func TestExecSiblingFallback(t *testing.T) {
	fixture := newWrapperFixture(t, "echo cargo:rustc-cfg=fallback\n")
	fixture.env[AllowVar] = "1"

	code := fixture.run("/nonexistent/sandbox {}")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, fixture.stderr)
	}
	if got, want := fixture.stdout.String(), "cargo:rustc-cfg=fallback\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
	if !strings.Contains(fixture.stderr.String(), "without a sandbox") {
		t.Errorf("stderr does not announce the fallback:\n%s", fixture.stderr)
	}
}

func TestExecSiblingFallbackPropagatesExitCode(t *testing.T) {
	fixture := newWrapperFixture(t, "exit 7\n")
	fixture.env[AllowVar] = "yes"

	if code := fixture.run(`sh -c exit\ 1 {}`); code != 7 {
		t.Errorf("exit code = %d, want 7", code)
	}
}

func TestExecSiblingTemplateError(t *testing.T) {
	fixture := newWrapperFixture(t, "echo unsandboxed\n")
	fixture.env[AllowVar] = "1"

	code := fixture.run("{UNKNOWN} {}")
	if code != ExitInternal {
		t.Errorf("exit code = %d, want %d", code, ExitInternal)
	}
	// Template errors are never recovered by the fallback.
	if fixture.stdout.Len() != 0 {
		t.Errorf("stdout = %q, want nothing", fixture.stdout)
	}
	if !strings.Contains(fixture.stderr.String(), "environment variable `UNKNOWN` not found") {
		t.Errorf("stderr does not name the variable:\n%s", fixture.stderr)
	}
}

func TestExecSiblingOutsideWrapperDirectory(t *testing.T) {
	fixture := newWrapperFixture(t, "echo unsandboxed\n")
	elsewhere := t.TempDir()
	fixture.runtime.Executable = func() (string, error) {
		return filepath.Join(elsewhere, "build_script_build-abcd"), nil
	}

	if code := fixture.run("sh {}"); code != ExitInternal {
		t.Errorf("exit code = %d, want %d", code, ExitInternal)
	}
	if !strings.Contains(fixture.stderr.String(), "not in the wrapper's directory") {
		t.Errorf("stderr:\n%s", fixture.stderr)
	}
}

func TestExecSiblingMissingSibling(t *testing.T) {
	fixture := newWrapperFixture(t, "")
	if err := os.Remove(fixture.sibling); err != nil {
		t.Fatal(err)
	}

	if code := fixture.run("sh {}"); code != ExitInternal {
		t.Errorf("exit code = %d, want %d", code, ExitInternal)
	}
	if !strings.Contains(fixture.stderr.String(), "cargo clean") {
		t.Errorf("stderr does not suggest a clean rebuild:\n%s", fixture.stderr)
	}
}
