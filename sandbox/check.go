// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/trailofbits/build-wrap/shim"
)

// Result holds the outcome of one check.
type Result struct {
	Name    string
	Passed  bool
	Message string
	Warning bool // True if this is a warning, not an error.
}

// Symbol returns the marker printed before the result.
func (r Result) Symbol() string {
	switch {
	case !r.Passed:
		return "✗"
	case r.Warning:
		return "⚠"
	default:
		return "✓"
	}
}

// Checker collects diagnostics about whether build scripts can be
// sandboxed on this host.
type Checker struct {
	results []Result
	errors  int
}

// NewChecker creates an empty Checker.
func NewChecker() *Checker {
	return &Checker{results: make([]Result, 0)}
}

// Results returns all results in the order they were recorded.
func (c *Checker) Results() []Result {
	return c.results
}

// HasErrors returns true if any check failed.
func (c *Checker) HasErrors() bool {
	return c.errors > 0
}

func (c *Checker) pass(name, message string) {
	c.results = append(c.results, Result{Name: name, Passed: true, Message: message})
}

func (c *Checker) warn(name, message string) {
	c.results = append(c.results, Result{Name: name, Passed: true, Message: message, Warning: true})
}

func (c *Checker) fail(name, message string) {
	c.results = append(c.results, Result{Name: name, Passed: false, Message: message})
	c.errors++
}

// CheckCapabilities records the state of the sandbox tool and, on
// Linux, of user namespaces.
func (c *Checker) CheckCapabilities(caps *Capabilities) {
	if caps.Tool == "" {
		c.fail("sandbox", fmt.Sprintf("no sandbox tool is known for %s", caps.GOOS))
		return
	}
	if !caps.ToolAvailable() {
		c.fail(caps.Tool, fmt.Sprintf("%s not found", caps.Tool))
	} else if caps.ToolVersion != "" {
		c.pass(caps.Tool, fmt.Sprintf("available: %s (%s)", caps.ToolPath, caps.ToolVersion))
	} else {
		c.pass(caps.Tool, fmt.Sprintf("available: %s", caps.ToolPath))
	}

	if caps.GOOS != "linux" {
		return
	}
	if caps.KernelRelease != "" {
		c.pass("kernel", caps.KernelRelease)
	}
	switch {
	case caps.UserNamespacesEnabled:
		c.pass("userns", "unprivileged user namespaces enabled")
	case caps.ToolAvailable():
		c.fail("userns", caps.SkipReason())
	default:
		c.warn("userns", "not checked (bwrap not found)")
	}
	if caps.AppArmorRestrictsUserNamespaces && caps.UserNamespacesEnabled {
		c.warn("apparmor", "kernel.apparmor_restrict_unprivileged_userns=1, but bwrap is permitted")
	}
}

// CheckTemplate records whether template tokenizes and whether its
// program can be found. lookPath is normally [exec.LookPath].
func (c *Checker) CheckTemplate(template string, lookPath func(string) (string, error)) {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	words, err := shim.Tokenize(template)
	if err != nil {
		c.fail("command", fmt.Sprintf("%s does not parse: %v", shim.CommandVar, err))
		return
	}
	if len(words) == 0 {
		c.fail("command", fmt.Sprintf("%s is empty or all whitespace", shim.CommandVar))
		return
	}
	program := words[0]
	if strings.ContainsAny(program, "{}") {
		c.warn("command", fmt.Sprintf("program %q is expanded when the build script runs", program))
		return
	}
	path, err := lookPath(program)
	if err != nil {
		c.fail("command", fmt.Sprintf("program %q not found", program))
		return
	}
	c.pass("command", fmt.Sprintf("program %s", path))
}
