// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package link

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/trailofbits/build-wrap/lib/process"
	"github.com/trailofbits/build-wrap/lib/testutil"
	"github.com/trailofbits/build-wrap/shim"
	"github.com/trailofbits/build-wrap/wrapper"
)

// linkFixture runs [Run] against a fake linker that records its
// arguments and creates the output file.
type linkFixture struct {
	dir     string
	linker  string
	env     map[string]string
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	wrapped []wrapper.Options
	wrapErr error
	policy  Policy
}

func newLinkFixture(t *testing.T, linkerBody string) *linkFixture {
	t.Helper()
	f := &linkFixture{dir: t.TempDir()}
	if linkerBody == "" {
		linkerBody = `echo "$@" > "$(dirname "$0")/args"
while [ $# -gt 0 ]; do
  if [ "$1" = -o ]; then mkdir -p "$(dirname "$2")"; : > "$2"; break; fi
  shift
done
echo linked`
	}
	f.linker = testutil.WriteScript(t, t.TempDir(), "ld", linkerBody)
	f.env = map[string]string{LinkerVar: f.linker}
	return f
}

func (f *linkFixture) buildScriptPath() string {
	return filepath.Join(f.dir, "target", "debug", "build", "demo-0123", "build_script_build-0123")
}

func (f *linkFixture) run(args ...string) error {
	return Run(context.Background(), append([]string{"build-wrap"}, args...), Options{
		Lookup: testutil.Lookup(f.env),
		Stdout: &f.stdout,
		Stderr: &f.stderr,
		Policy: f.policy,
		Getwd:  func() (string, error) { return f.dir, nil },
		GOOS:   "linux",
		Wrap: func(_ context.Context, opts wrapper.Options) error {
			f.wrapped = append(f.wrapped, opts)
			return f.wrapErr
		},
	})
}

func TestRunWrapsBuildScript(t *testing.T) {
	f := newLinkFixture(t, "")
	f.env[shim.CommandVar] = "time -p {}"
	f.env[wrapper.GoToolVar] = "/opt/go/bin/go"

	if err := f.run("main.o", "-o", f.buildScriptPath()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.stdout.String() != "linked\n" {
		t.Errorf("linker stdout = %q, want it forwarded", f.stdout.String())
	}
	if len(f.wrapped) != 1 {
		t.Fatalf("Wrap called %d times, want 1", len(f.wrapped))
	}
	opts := f.wrapped[0]
	if opts.BuildScriptPath != f.buildScriptPath() {
		t.Errorf("BuildScriptPath = %q, want %q", opts.BuildScriptPath, f.buildScriptPath())
	}
	if opts.Linker != f.linker {
		t.Errorf("Linker = %q, want %q", opts.Linker, f.linker)
	}
	if opts.Template != "time -p {}" {
		t.Errorf("Template = %q, want the BUILD_WRAP_CMD value", opts.Template)
	}
	if opts.GoTool != "/opt/go/bin/go" {
		t.Errorf("GoTool = %q", opts.GoTool)
	}
}

func TestRunDefaultTemplate(t *testing.T) {
	f := newLinkFixture(t, "")
	if err := f.run("-o", f.buildScriptPath()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(f.wrapped) != 1 || !strings.HasPrefix(f.wrapped[0].Template, "bwrap ") {
		t.Errorf("wrapped = %+v, want the default bwrap template", f.wrapped)
	}
}

func TestRunRelativeOutputPath(t *testing.T) {
	f := newLinkFixture(t, "exit 0")
	relative := filepath.Join("target", "debug", "build", "demo-0123", "build_script_build-0123")
	if err := f.run("-o", relative); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(f.wrapped) != 1 || f.wrapped[0].BuildScriptPath != filepath.Join(f.dir, relative) {
		t.Errorf("wrapped = %+v, want %s resolved against the working directory", f.wrapped, relative)
	}
}

func TestRunForwardsArguments(t *testing.T) {
	f := newLinkFixture(t, "")
	output := filepath.Join(f.dir, "target", "debug", "deps", "demo-0123")
	if err := f.run("-m64", "a b.o", "-o", output); err != nil {
		t.Fatalf("Run: %v", err)
	}
	args, err := os.ReadFile(filepath.Join(filepath.Dir(f.linker), "args"))
	if err != nil {
		t.Fatal(err)
	}
	if want := "-m64 a b.o -o " + output + "\n"; string(args) != want {
		t.Errorf("linker args = %q, want %q", args, want)
	}
	if len(f.wrapped) != 0 {
		t.Errorf("a non-build-script output was wrapped: %+v", f.wrapped)
	}
}

func TestRunLinkerFailure(t *testing.T) {
	f := newLinkFixture(t, "echo 'undefined reference' >&2; exit 4")
	err := f.run("-o", f.buildScriptPath())

	var exitErr *process.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 4 {
		t.Fatalf("Run error = %v, want ExitError{4}", err)
	}
	if f.stderr.String() != "undefined reference\n" {
		t.Errorf("linker stderr = %q, want it forwarded", f.stderr.String())
	}
	if len(f.wrapped) != 0 {
		t.Error("build script wrapped after a failed link")
	}
}

func TestRunSkipsUnderRustcWrapper(t *testing.T) {
	for _, name := range []string{"RUSTC_WRAPPER", "RUSTC_WORKSPACE_WRAPPER"} {
		f := newLinkFixture(t, "")
		f.env[name] = ""
		if err := f.run("-o", f.buildScriptPath()); err != nil {
			t.Fatalf("%s: Run: %v", name, err)
		}
		if len(f.wrapped) != 0 {
			t.Errorf("%s set: build script was wrapped", name)
		}
	}
}

type policyFunc func(dir, packageName string) bool

func (p policyFunc) Allowed(dir, packageName string) bool { return p(dir, packageName) }

func TestRunPolicy(t *testing.T) {
	f := newLinkFixture(t, "")
	f.env[PackageNameVar] = "aws-lc-fips-sys"
	var seenDir, seenPackage string
	f.policy = policyFunc(func(dir, packageName string) bool {
		seenDir, seenPackage = dir, packageName
		return packageName == "aws-lc-fips-sys"
	})

	if err := f.run("-o", f.buildScriptPath()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(f.wrapped) != 0 {
		t.Error("allowed package was wrapped")
	}
	if seenDir != f.dir || seenPackage != "aws-lc-fips-sys" {
		t.Errorf("policy saw (%q, %q)", seenDir, seenPackage)
	}

	f.env[PackageNameVar] = "other"
	if err := f.run("-o", f.buildScriptPath()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(f.wrapped) != 1 {
		t.Error("package outside the policy was not wrapped")
	}
}

func TestRunWrapFailure(t *testing.T) {
	f := newLinkFixture(t, "")
	f.wrapErr = errors.New("go build failed")
	if err := f.run("-o", f.buildScriptPath()); !errors.Is(err, f.wrapErr) {
		t.Errorf("Run error = %v, want the wrap error", err)
	}
}

func TestRunUnsupportedOS(t *testing.T) {
	f := newLinkFixture(t, "")
	err := Run(context.Background(), []string{"build-wrap", "-o", f.buildScriptPath()}, Options{
		Lookup: testutil.Lookup(f.env),
		Stdout: &f.stdout,
		Stderr: &f.stderr,
		GOOS:   "plan9",
		Wrap: func(context.Context, wrapper.Options) error {
			t.Error("Wrap called without a command template")
			return nil
		},
	})
	if err == nil || !strings.Contains(err.Error(), shim.CommandVar) {
		t.Errorf("Run error = %v, want a hint about %s", err, shim.CommandVar)
	}
}
