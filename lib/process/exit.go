// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"os"
)

// ExitError signals a non-zero exit code without an extra error
// message. The failing command has already written its own output, so
// the entrypoint exits with Code and prints nothing.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// ExitCode reports the exit code carried by err, if err is or wraps an
// [*ExitError].
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

// Fatal writes "error: err" to stderr and exits with code 1.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// Exit terminates the process for err: silently with the carried code
// for an [*ExitError], through [Fatal] otherwise. A nil err returns.
func Exit(err error) {
	if err == nil {
		return
	}
	if code, ok := ExitCode(err); ok {
		os.Exit(code)
	}
	Fatal(err)
}
