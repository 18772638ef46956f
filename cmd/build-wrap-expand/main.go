// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

// build-wrap-expand prints the sandbox command a wrapper would run.
//
// Usage:
//
//	build-wrap-expand [--template TEMPLATE] [--build-script PATH] [--format text|json|yaml]
//
// The template defaults to BUILD_WRAP_CMD, or to the default command
// for this operating system when BUILD_WRAP_CMD is unset. Placeholders
// are expanded from the current environment, so run it with the
// variables cargo would set (OUT_DIR and so on).
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/trailofbits/build-wrap/lib/process"
	"github.com/trailofbits/build-wrap/lib/version"
	"github.com/trailofbits/build-wrap/sandbox"
	"github.com/trailofbits/build-wrap/shim"
)

func main() {
	process.Exit(run(os.Args[1:], os.Stdout, os.LookupEnv))
}

// expansion is the structured output of the json and yaml formats.
type expansion struct {
	Template    string   `json:"template" yaml:"template"`
	BuildScript string   `json:"build_script,omitempty" yaml:"build_script,omitempty"`
	Args        []string `json:"args" yaml:"args"`
}

func run(args []string, stdout io.Writer, lookup shim.LookupFunc) error {
	var template, buildScript, format string
	var keepProfile bool

	flagSet := pflag.NewFlagSet("build-wrap-expand", pflag.ContinueOnError)
	flagSet.SetOutput(stdout)
	flagSet.StringVarP(&template, "template", "t", "", "command template (default: $BUILD_WRAP_CMD or the OS default)")
	flagSet.StringVarP(&buildScript, "build-script", "b", "", "path substituted for {}")
	flagSet.StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")
	flagSet.BoolVar(&keepProfile, "keep-profile", false, "keep the sandbox profile written for {BUILD_WRAP_PROFILE_PATH}")
	flagSet.Bool("version", false, "print the version and exit")
	flagSet.Usage = func() {
		fmt.Fprintf(stdout, "Usage: build-wrap-expand [flags]\n\nPrints the sandbox command a build script wrapper would run.\n\nFlags:\n")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion, _ := flagSet.GetBool("version"); showVersion {
		fmt.Fprintln(stdout, version.Full())
		return nil
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	if !flagSet.Changed("template") {
		resolved, err := sandbox.ResolveTemplate(lookup, runtime.GOOS)
		if err != nil {
			return err
		}
		template = resolved
	}

	expander := shim.NewExpander(lookup, buildScript)
	if !keepProfile {
		defer expander.Cleanup()
	}
	expanded, err := shim.SplitAndExpand(template, expander)
	if err != nil {
		return fmt.Errorf("expanding template: %w", err)
	}

	result := expansion{Template: template, BuildScript: buildScript, Args: expanded}
	switch format {
	case "text":
		for _, arg := range expanded {
			fmt.Fprintln(stdout, arg)
		}
	case "json":
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
	case "yaml":
		encoder := yaml.NewEncoder(stdout)
		encoder.SetIndent(2)
		if err := encoder.Encode(result); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
	return nil
}
