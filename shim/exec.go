// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package shim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// Output is the result of a command run by [ExecForwardingOutput].
type Output struct {
	// ExitCode is the command's exit status, or -1 if it was
	// terminated by a signal.
	ExitCode int

	// Stdout and Stderr hold everything the command wrote, in
	// addition to what was forwarded.
	Stdout []byte
	Stderr []byte
}

// Success reports whether the command exited with status zero.
func (o *Output) Success() bool {
	return o.ExitCode == 0
}

// CommandError reports a command that ran but did not succeed.
type CommandError struct {
	Command  string
	ExitCode int
}

func (e *CommandError) Error() string {
	return "command failed: " + e.Command
}

// ExecForwardingOutput runs cmd and copies its stdout and stderr to the
// given writers as the bytes arrive, unmodified. Both streams are fully
// forwarded before ExecForwardingOutput returns.
//
// Cargo reads build script directives ("cargo:...") from stdout, so
// the forwarding must be complete and byte-exact.
//
// A non-zero exit is not an error; it is reported in the returned
// Output. The error is non-nil only if the command could not be run.
func ExecForwardingOutput(cmd *exec.Cmd, stdout, stderr io.Writer) (*Output, error) {
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = io.MultiWriter(stdout, &stdoutBuf)
	cmd.Stderr = io.MultiWriter(stderr, &stderrBuf)

	err := cmd.Run()
	output := &Output{
		Stdout: stdoutBuf.Bytes(),
		Stderr: stderrBuf.Bytes(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("running %s: %w", DescribeCommand(cmd), err)
		}
		output.ExitCode = exitErr.ExitCode()
	}
	return output, nil
}

// ExecRequiringSuccess is [ExecForwardingOutput] with a non-zero exit
// reported as a [*CommandError].
func ExecRequiringSuccess(cmd *exec.Cmd, stdout, stderr io.Writer) (*Output, error) {
	output, err := ExecForwardingOutput(cmd, stdout, stderr)
	if err != nil {
		return nil, err
	}
	if !output.Success() {
		return output, &CommandError{Command: DescribeCommand(cmd), ExitCode: output.ExitCode}
	}
	return output, nil
}

// DescribeCommand renders cmd's argument vector for diagnostics,
// quoting arguments that would otherwise be ambiguous.
func DescribeCommand(cmd *exec.Cmd) string {
	args := cmd.Args
	if len(args) == 0 {
		args = []string{cmd.Path}
	}
	quoted := make([]string, len(args))
	for i, arg := range args {
		if arg == "" || strings.ContainsAny(arg, " \t\n\"'\\") {
			quoted[i] = strconv.Quote(arg)
		} else {
			quoted[i] = arg
		}
	}
	return strings.Join(quoted, " ")
}
