// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package wrapper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/trailofbits/build-wrap/shim"
)

// GoToolVar names the variable that selects the Go tool used to
// compile wrappers.
const GoToolVar = "BUILD_WRAP_GO"

// ErrRecursion is returned when compiling a wrapper would run
// build-wrap itself.
var ErrRecursion = errors.New("wrapper build would invoke build-wrap recursively")

// strippedEnv lists variables removed from the inner build's
// environment. Wrappers run on the host, so cross-compilation settings
// go too.
var strippedEnv = []string{
	"RUSTC_WRAPPER",
	"RUSTC_WORKSPACE_WRAPPER",
	"CC",
	"CXX",
	"CGO_LDFLAGS",
	"GOOS",
	"GOARCH",
}

// buildEnv is appended to the inner build's environment.
var buildEnv = []string{
	"CGO_ENABLED=0",
	"GOWORK=off",
	"GOFLAGS=",
	"GOTOOLCHAIN=local",
	"GOPROXY=off",
	"GO111MODULE=on",
}

// BuildOptions configures [BuildCommand].
type BuildOptions struct {
	// GoTool is the go command, a name looked up in PATH or a path.
	GoTool string

	// Linker is the real linker, passed to the Go linker as -extld.
	Linker string

	// PackageDir is the wrapper module root.
	PackageDir string

	// Output is where the compiled wrapper is written.
	Output string

	// SelfPath is the build-wrap executable. Neither GoTool nor
	// Linker may resolve to it.
	SelfPath string

	// Environ is the base environment. Nil means os.Environ().
	Environ []string
}

// ResolveGoTool returns BUILD_WRAP_GO if set and non-empty, else "go".
func ResolveGoTool(lookup shim.LookupFunc) string {
	if goTool, ok := lookup(GoToolVar); ok && goTool != "" {
		return goTool
	}
	return "go"
}

// Tools are the programs a wrapper build runs, resolved to paths.
type Tools struct {
	GoTool string
	Linker string

	ldflags string
}

// ResolveTools looks up the Go tool and the linker and checks that
// neither is selfPath. It has no side effects on disk.
func ResolveTools(goTool, linker, selfPath string) (Tools, error) {
	goPath, err := exec.LookPath(goTool)
	if err != nil {
		return Tools{}, fmt.Errorf("finding Go tool %q (set %s): %w", goTool, GoToolVar, err)
	}
	linkerPath, err := exec.LookPath(linker)
	if err != nil {
		return Tools{}, fmt.Errorf("finding linker %q: %w", linker, err)
	}
	if selfPath != "" {
		if SameFile(goPath, selfPath) {
			return Tools{}, fmt.Errorf("%w: Go tool %s is %s", ErrRecursion, goPath, selfPath)
		}
		if SameFile(linkerPath, selfPath) {
			return Tools{}, fmt.Errorf("%w: linker %s is %s", ErrRecursion, linkerPath, selfPath)
		}
	}
	ldflags, err := quoteFlagValue("-extld=" + linkerPath)
	if err != nil {
		return Tools{}, fmt.Errorf("passing linker %s to the Go linker: %w", linkerPath, err)
	}
	return Tools{GoTool: goPath, Linker: linkerPath, ldflags: ldflags}, nil
}

// BuildCommand returns the command that compiles the wrapper module.
func BuildCommand(ctx context.Context, opts BuildOptions) (*exec.Cmd, error) {
	if opts.PackageDir == "" || opts.Output == "" {
		return nil, fmt.Errorf("wrapper build needs a package directory and an output path")
	}
	tools, err := ResolveTools(opts.GoTool, opts.Linker, opts.SelfPath)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, tools.GoTool,
		"build",
		"-o", opts.Output,
		"-ldflags="+tools.ldflags,
		".",
	)
	cmd.Dir = opts.PackageDir
	cmd.Env = buildEnviron(opts.Environ)
	return cmd, nil
}

func buildEnviron(base []string) []string {
	if base == nil {
		base = os.Environ()
	}
	drop := make(map[string]bool)
	for _, name := range strippedEnv {
		drop[name] = true
	}
	for _, entry := range buildEnv {
		name, _, _ := strings.Cut(entry, "=")
		drop[name] = true
	}

	environ := make([]string, 0, len(base)+len(buildEnv))
	for _, entry := range base {
		name, _, _ := strings.Cut(entry, "=")
		if !drop[name] {
			environ = append(environ, entry)
		}
	}
	return append(environ, buildEnv...)
}

// quoteFlagValue quotes value as one field for the go command's
// flag splitter, which only recognizes a quote at the start of a field
// and has no escapes. A value holding whitespace and both quote
// characters cannot be expressed.
func quoteFlagValue(value string) (string, error) {
	if !strings.ContainsAny(value, " \t\n\r") && !strings.HasPrefix(value, "'") && !strings.HasPrefix(value, `"`) {
		return value, nil
	}
	if !strings.Contains(value, "'") {
		return "'" + value + "'", nil
	}
	if !strings.Contains(value, `"`) {
		return `"` + value + `"`, nil
	}
	return "", fmt.Errorf("%q contains whitespace and both quote characters", value)
}

// SameFile reports whether a and b name the same file after following
// symlinks.
func SameFile(a, b string) bool {
	infoA, err := os.Stat(a)
	if err != nil {
		return false
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false
	}
	if os.SameFile(infoA, infoB) {
		return true
	}
	resolvedA, errA := filepath.EvalSymlinks(a)
	resolvedB, errB := filepath.EvalSymlinks(b)
	return errA == nil && errB == nil && resolvedA == resolvedB
}
