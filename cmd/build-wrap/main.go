// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

// build-wrap is a linker replacement that sandboxes cargo build
// scripts.
//
// Configure it as cargo's linker:
//
//	[target.'cfg(all())']
//	linker = "build-wrap"
//
// Every link is forwarded to the real linker (BUILD_WRAP_LD, default
// cc). When the output is a build script, build-wrap replaces it with
// a wrapper that runs the original under BUILD_WRAP_CMD. Run
// build-wrap with no arguments or with -h for its status.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/trailofbits/build-wrap/lib/config"
	"github.com/trailofbits/build-wrap/lib/process"
	"github.com/trailofbits/build-wrap/link"
	"github.com/trailofbits/build-wrap/sandbox"
)

// debugVar enables debug logging when non-empty.
const debugVar = "BUILD_WRAP_DEBUG"

func main() {
	process.Exit(run(os.Args))
}

func run(args []string) error {
	logger := newLogger(os.Stderr, os.Getenv(debugVar))

	self, err := executablePath()
	if err != nil {
		return err
	}

	if len(args) == 0 || helpRequested(args[1:]) {
		cwd, _ := os.Getwd()
		return printHelp(os.Stdout, helpInputs{
			Lookup:   os.LookupEnv,
			Dir:      cwd,
			SelfPath: self,
			GOOS:     runtime.GOOS,
			Detect:   sandbox.DetectCapabilities,
		})
	}

	policy := config.Load(logger)
	matcher := link.DefaultMatcher().WithPrefixes(policy.BuildScript.Prefixes...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return link.Run(ctx, args, link.Options{
		Logger:   logger,
		Matcher:  matcher,
		Policy:   policy,
		SelfPath: self,
	})
}

func newLogger(w io.Writer, debug string) *slog.Logger {
	level := slog.LevelInfo
	if debug != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// helpRequested reports whether every argument asks for help. No
// arguments at all also counts.
func helpRequested(args []string) bool {
	for _, arg := range args {
		if arg != "-h" && arg != "--help" {
			return false
		}
	}
	return true
}

func executablePath() (string, error) {
	self, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(self); err == nil {
		self = resolved
	}
	return self, nil
}
