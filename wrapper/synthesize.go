// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package wrapper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/trailofbits/build-wrap/lib/binhash"
	"github.com/trailofbits/build-wrap/shim"
)

// Options configures [Synthesize].
type Options struct {
	// Linker is the real linker used for the link that produced the
	// build script.
	Linker string

	// BuildScriptPath is the linked build script to replace.
	BuildScriptPath string

	// Template is the sandbox command template compiled into the
	// wrapper.
	Template string

	// GoTool compiles the wrapper. Empty means "go".
	GoTool string

	// SelfPath is the build-wrap executable, for the recursion guard.
	SelfPath string

	// Logger receives progress messages. Nil discards them.
	Logger *slog.Logger

	// Stdout and Stderr receive the Go tool's output. Nil means the
	// process's own streams.
	Stdout io.Writer
	Stderr io.Writer

	// Environ is the base environment of the Go tool. Nil means
	// os.Environ().
	Environ []string
}

// Synthesize replaces the build script at opts.BuildScriptPath with a
// wrapper that runs it under opts.Template.
func Synthesize(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	goTool := opts.GoTool
	if goTool == "" {
		goTool = "go"
	}

	if opts.BuildScriptPath == "" {
		return fmt.Errorf("build script path is empty")
	}
	buildScriptPath, err := filepath.Abs(opts.BuildScriptPath)
	if err != nil {
		return fmt.Errorf("resolving build script path: %w", err)
	}

	// Everything that can fail without touching the build script runs
	// before it is moved.
	tools, err := ResolveTools(goTool, opts.Linker, opts.SelfPath)
	if err != nil {
		return err
	}

	siblingPath, digest, err := renameAside(buildScriptPath)
	if err != nil {
		return err
	}
	logger.Debug("moved build script aside",
		"build_script", buildScriptPath,
		"sibling", siblingPath,
		"blake3", digest.String(),
	)

	pkg, err := NewPackage(siblingPath, opts.Template)
	if err != nil {
		return err
	}
	defer pkg.Remove()

	cmd, err := BuildCommand(ctx, BuildOptions{
		GoTool:     tools.GoTool,
		Linker:     tools.Linker,
		PackageDir: pkg.Dir,
		Output:     pkg.BinaryPath(),
		SelfPath:   opts.SelfPath,
		Environ:    opts.Environ,
	})
	if err != nil {
		return err
	}
	logger.Debug("building wrapper", "command", shim.DescribeCommand(cmd), "dir", cmd.Dir)
	if _, err := shim.ExecRequiringSuccess(cmd, stdout, stderr); err != nil {
		return fmt.Errorf("building wrapper for %s: %w", buildScriptPath, err)
	}

	if err := install(pkg.BinaryPath(), buildScriptPath); err != nil {
		return err
	}
	logger.Info("wrapped build script", "build_script", buildScriptPath, "template", opts.Template)
	return nil
}

// renameAside moves the file at path to a new unique name in the same
// directory and returns that name. The file's digest must survive the
// move unchanged.
func renameAside(path string) (string, binhash.Digest, error) {
	before, err := binhash.HashFile(path)
	if err != nil {
		return "", binhash.Digest{}, err
	}

	placeholder, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", binhash.Digest{}, fmt.Errorf("reserving sibling name: %w", err)
	}
	siblingPath := placeholder.Name()
	if err := placeholder.Close(); err != nil {
		os.Remove(siblingPath)
		return "", binhash.Digest{}, fmt.Errorf("closing %s: %w", siblingPath, err)
	}
	if err := os.Rename(path, siblingPath); err != nil {
		os.Remove(siblingPath)
		return "", binhash.Digest{}, fmt.Errorf("renaming build script to %s: %w", siblingPath, err)
	}

	after, err := binhash.HashFile(siblingPath)
	if err != nil {
		return "", binhash.Digest{}, err
	}
	if after != before {
		return "", binhash.Digest{}, fmt.Errorf("build script digest changed during rename: %s became %s", before, after)
	}
	return siblingPath, before, nil
}

// install copies the wrapper at source to a temporary file next to
// destination and renames it into place.
func install(source, destination string) error {
	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("opening compiled wrapper: %w", err)
	}
	defer in.Close()

	out, err := os.CreateTemp(filepath.Dir(destination), "."+filepath.Base(destination)+".wrapper-*")
	if err != nil {
		return fmt.Errorf("creating wrapper file: %w", err)
	}
	temporary := out.Name()
	cleanup := func() {
		out.Close()
		os.Remove(temporary)
	}

	if _, err := io.Copy(out, in); err != nil {
		cleanup()
		return fmt.Errorf("copying wrapper to %s: %w", temporary, err)
	}
	if err := out.Chmod(0o755); err != nil {
		cleanup()
		return fmt.Errorf("setting wrapper permissions: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(temporary)
		return fmt.Errorf("closing %s: %w", temporary, err)
	}
	if err := os.Rename(temporary, destination); err != nil {
		os.Remove(temporary)
		return fmt.Errorf("installing wrapper at %s: %w", destination, err)
	}
	return nil
}
