// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os/exec"

	"github.com/charmbracelet/lipgloss"

	"github.com/trailofbits/build-wrap/lib/config"
	"github.com/trailofbits/build-wrap/lib/version"
	"github.com/trailofbits/build-wrap/link"
	"github.com/trailofbits/build-wrap/sandbox"
	"github.com/trailofbits/build-wrap/shim"
)

const description = "A linker replacement to help protect against malicious build scripts"

// helpInputs holds what the help output reports on.
type helpInputs struct {
	Lookup   shim.LookupFunc
	Dir      string
	SelfPath string
	GOOS     string
	Detect   func(goos string) *sandbox.Capabilities
	LookPath func(string) (string, error)
}

func printHelp(w io.Writer, in helpInputs) error {
	if in.LookPath == nil {
		in.LookPath = exec.LookPath
	}
	renderer := lipgloss.NewRenderer(w)
	heading := renderer.NewStyle().Bold(true)
	enabled := renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	disabled := renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	dim := renderer.NewStyle().Faint(true)
	symbols := map[string]lipgloss.Style{
		"✓": renderer.NewStyle().Foreground(lipgloss.Color("2")),
		"⚠": renderer.NewStyle().Foreground(lipgloss.Color("3")),
		"✗": renderer.NewStyle().Foreground(lipgloss.Color("1")),
	}

	fmt.Fprintf(w, "%s\n\n%s\n\n", version.Info(), description)

	status, err := link.DetectStatus(in.Dir, in.Lookup, in.SelfPath)
	if err != nil {
		return err
	}
	state := disabled.Render(status.String())
	if status.Enabled {
		state = enabled.Render(status.String())
	}
	fmt.Fprintf(w, "%s is %s\n", version.Name, state)
	switch {
	case status.ConfigPath == "":
		fmt.Fprintln(w, dim.Render(`  no cargo config sets target.'cfg(all())'.linker`))
	case status.Resolved == "":
		fmt.Fprintln(w, dim.Render(fmt.Sprintf("  %s: linker %q not found", status.ConfigPath, status.Linker)))
	default:
		fmt.Fprintln(w, dim.Render(fmt.Sprintf("  %s: linker %q (%s)", status.ConfigPath, status.Linker, status.Resolved)))
	}

	fmt.Fprintf(w, "\n%s\n", heading.Render("Sandbox ("+in.GOOS+")"))
	checker := sandbox.NewChecker()
	checker.CheckCapabilities(in.Detect(in.GOOS))
	if template, err := sandbox.ResolveTemplate(in.Lookup, in.GOOS); err != nil {
		fmt.Fprintf(w, "  %s %s\n", symbols["✗"].Render("✗"), err)
	} else {
		checker.CheckTemplate(template, in.LookPath)
		fmt.Fprintf(w, "  %s = %s\n", shim.CommandVar, template)
	}
	for _, result := range checker.Results() {
		symbol := result.Symbol()
		fmt.Fprintf(w, "  %s %s: %s\n", symbols[symbol].Render(symbol), result.Name, result.Message)
	}
	if _, ok := in.Lookup(shim.AllowVar); ok {
		fmt.Fprintf(w, "  %s is set; build scripts may run unsandboxed if the sandbox fails\n", shim.AllowVar)
	}

	fmt.Fprintf(w, "\n%s\n", heading.Render("Config"))
	if path, err := config.Find(); err == nil {
		fmt.Fprintf(w, "  %s\n", path)
	} else {
		fmt.Fprintf(w, "  %s\n", dim.Render("none (searched "+config.SearchPaths()[0]+" and others)"))
	}
	return nil
}
