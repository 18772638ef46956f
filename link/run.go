// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package link

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/trailofbits/build-wrap/lib/process"
	"github.com/trailofbits/build-wrap/sandbox"
	"github.com/trailofbits/build-wrap/shim"
	"github.com/trailofbits/build-wrap/wrapper"
)

// wrapperVars are set by cargo when another tool wraps rustc. Clippy
// and Dylint builds are not wrapped.
var wrapperVars = []string{"RUSTC_WRAPPER", "RUSTC_WORKSPACE_WRAPPER"}

// PackageNameVar is set by cargo to the package being built.
const PackageNameVar = "CARGO_PKG_NAME"

// Policy exempts build scripts from sandboxing.
type Policy interface {
	Allowed(dir, packageName string) bool
}

// Options configures [Run]. Zero values select the process defaults.
type Options struct {
	Logger *slog.Logger
	Lookup shim.LookupFunc
	Stdout io.Writer
	Stderr io.Writer

	// Matcher recognizes build scripts. The zero Matcher means
	// [DefaultMatcher].
	Matcher Matcher

	// Policy may exempt a build script. Nil exempts nothing.
	Policy Policy

	Getwd func() (string, error)

	// SelfPath is the running build-wrap executable.
	SelfPath string

	// GOOS selects the default sandbox command.
	GOOS string

	// Wrap replaces a build script. Nil means [wrapper.Synthesize].
	Wrap func(context.Context, wrapper.Options) error
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.Lookup == nil {
		o.Lookup = os.LookupEnv
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Matcher.isZero() {
		o.Matcher = DefaultMatcher()
	}
	if o.Getwd == nil {
		o.Getwd = os.Getwd
	}
	if o.GOOS == "" {
		o.GOOS = runtime.GOOS
	}
	if o.Wrap == nil {
		o.Wrap = wrapper.Synthesize
	}
}

// Run links with the real linker and wraps the output if it is a
// build script. A failed link returns a [*process.ExitError] carrying
// the linker's exit code; the linker has already reported the failure.
func Run(ctx context.Context, args []string, opts Options) error {
	opts.setDefaults()
	logger := opts.Logger
	inv := Invocation{Args: args}

	linker, err := ResolveLinker(opts.Lookup, opts.SelfPath)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, linker, inv.LinkerArgs()...)
	cmd.Stdin = os.Stdin
	output, err := shim.ExecForwardingOutput(cmd, opts.Stdout, opts.Stderr)
	if err != nil {
		return fmt.Errorf("running linker: %w", err)
	}
	if !output.Success() {
		code := output.ExitCode
		if code <= 0 {
			code = 1
		}
		return &process.ExitError{Code: code}
	}

	for _, name := range wrapperVars {
		if _, ok := opts.Lookup(name); ok {
			logger.Debug("not wrapping: rustc wrapper in use", "variable", name)
			return nil
		}
	}

	path, ok := inv.OutputPath()
	if !ok {
		return nil
	}
	if !filepath.IsAbs(path) {
		cwd, err := opts.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}
	if !opts.Matcher.Match(path) {
		return nil
	}

	if opts.Policy != nil {
		cwd, err := opts.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		packageName, _ := opts.Lookup(PackageNameVar)
		if opts.Policy.Allowed(cwd, packageName) {
			logger.Info("build script allowed by config; not sandboxing",
				"build_script", path,
				"package", packageName,
				"dir", cwd,
			)
			return nil
		}
	}

	template, err := sandbox.ResolveTemplate(opts.Lookup, opts.GOOS)
	if err != nil {
		return err
	}

	return opts.Wrap(ctx, wrapper.Options{
		Linker:          linker,
		BuildScriptPath: path,
		Template:        template,
		GoTool:          wrapper.ResolveGoTool(opts.Lookup),
		SelfPath:        opts.SelfPath,
		Logger:          logger,
		Stdout:          opts.Stdout,
		Stderr:          opts.Stderr,
	})
}
