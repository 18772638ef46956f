// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package shim

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// Environment variables read by build-wrap and its wrappers.
const (
	// CommandVar holds the sandbox command template. Wrappers do not
	// read it: its value is captured when the wrapper is generated.
	CommandVar = "BUILD_WRAP_CMD"

	// AllowVar enables running the build script unsandboxed when the
	// sandboxed run fails. Any value other than "0" enables it.
	AllowVar = "BUILD_WRAP_ALLOW"
)

// ExitInternal is the exit code of a wrapper that could not run the
// sandbox command at all (bad template, missing sibling, and so on).
// It is EX_SOFTWARE from sysexits.h.
const ExitInternal = 70

// Runtime holds the process-level inputs of a wrapper. Tests replace
// them; generated wrappers use [DefaultRuntime] via [ExecSibling].
type Runtime struct {
	Lookup     LookupFunc
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
	Executable func() (string, error)
}

// DefaultRuntime returns a Runtime bound to the current process.
func DefaultRuntime() *Runtime {
	return &Runtime{
		Lookup:     os.LookupEnv,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Executable: os.Executable,
	}
}

// ExecSibling is the body of every generated wrapper's main function.
// It returns the exit code the wrapper should exit with.
func ExecSibling(siblingPath, template string) int {
	return DefaultRuntime().ExecSibling(siblingPath, template)
}

// ExecSibling runs the build script at siblingPath inside the sandbox
// command described by template and returns the exit code to report
// to cargo: zero on success, the failing command's code otherwise, or
// [ExitInternal] when no code is available.
func (r *Runtime) ExecSibling(siblingPath, template string) int {
	code, err := r.execSibling(siblingPath, template)
	if err != nil {
		fmt.Fprintf(r.Stderr, "build-wrap: %v\n", err)
		if code <= 0 {
			code = ExitInternal
		}
	}
	return code
}

func (r *Runtime) execSibling(siblingPath, template string) (int, error) {
	if err := r.checkSibling(siblingPath); err != nil {
		return ExitInternal, err
	}

	expander := NewExpander(r.Lookup, siblingPath)
	defer expander.Cleanup()

	args, err := SplitAndExpand(template, expander)
	if err != nil {
		return ExitInternal, fmt.Errorf("expanding `%s`: %w", CommandVar, err)
	}
	logger := slog.New(slog.NewTextHandler(r.Stderr, nil))
	logger.Info("expanded "+CommandVar, "args", args)

	sandboxed := exec.Command(args[0], args[1:]...)
	sandboxed.Stdin = r.Stdin
	output, err := ExecForwardingOutput(sandboxed, r.Stdout, r.Stderr)
	if err == nil && output.Success() {
		return 0, nil
	}

	code := ExitInternal
	if err == nil {
		err = &CommandError{Command: DescribeCommand(sandboxed), ExitCode: output.ExitCode}
		if output.ExitCode > 0 {
			code = output.ExitCode
		}
	}
	if !enabled(r.Lookup, AllowVar) {
		return code, err
	}

	fmt.Fprintf(r.Stderr, "build-wrap: %v\n", err)
	fmt.Fprintf(r.Stderr, "build-wrap: %s is enabled; running %s without a sandbox\n", AllowVar, siblingPath)

	unsandboxed := exec.Command(siblingPath)
	unsandboxed.Stdin = r.Stdin
	output, err = ExecForwardingOutput(unsandboxed, r.Stdout, r.Stderr)
	if err != nil {
		return ExitInternal, err
	}
	if !output.Success() {
		return output.ExitCode, &CommandError{Command: DescribeCommand(unsandboxed), ExitCode: output.ExitCode}
	}
	return 0, nil
}

// checkSibling asserts that the sibling sits next to the running
// wrapper, which is where the synthesis step puts it.
func (r *Runtime) checkSibling(siblingPath string) error {
	executable, err := r.Executable()
	if err != nil {
		return fmt.Errorf("locating wrapper executable: %w", err)
	}
	wrapperDir, err := filepath.EvalSymlinks(filepath.Dir(executable))
	if err != nil {
		return fmt.Errorf("resolving wrapper directory: %w", err)
	}
	siblingDir, err := filepath.EvalSymlinks(filepath.Dir(siblingPath))
	if err != nil {
		return fmt.Errorf("resolving directory of %s: %w", siblingPath, err)
	}
	if siblingDir != wrapperDir {
		return fmt.Errorf("build script %s is not in the wrapper's directory %s", siblingPath, wrapperDir)
	}
	if _, err := os.Stat(siblingPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("build script %s is missing; run `cargo clean` and rebuild", siblingPath)
		}
		return fmt.Errorf("checking build script: %w", err)
	}
	return nil
}

// enabled reports whether name is set to anything other than "0".
func enabled(lookup LookupFunc, name string) bool {
	value, ok := lookup(name)
	return ok && value != "0"
}
