// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Capabilities describes the sandbox tool available on this system
// and the kernel settings that affect it.
type Capabilities struct {
	// GOOS is the operating system the probe ran for.
	GOOS string

	// Tool is the sandbox program the default command uses.
	Tool string

	// ToolPath is the resolved path of Tool, or empty if it was not
	// found or is not executable.
	ToolPath string

	// ToolVersion is the output of "bwrap --version", when available.
	ToolVersion string

	// KernelRelease is the running kernel's release string.
	KernelRelease string

	// UserNamespacesEnabled is true if bwrap could create an
	// unprivileged user namespace. Always false off Linux.
	UserNamespacesEnabled bool

	// AppArmorRestrictsUserNamespaces is true if
	// kernel.apparmor_restrict_unprivileged_userns is set, as on
	// Ubuntu 24.04 and later.
	AppArmorRestrictsUserNamespaces bool
}

// prober holds the host interfaces DetectCapabilities reads.
type prober struct {
	procSys  string
	lookPath func(file string) (string, error)
	output   func(name string, args ...string) ([]byte, error)
}

func hostProber() prober {
	return prober{
		procSys:  "/proc/sys",
		lookPath: exec.LookPath,
		output: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).Output()
		},
	}
}

// DetectCapabilities probes the host for the sandbox tool used on
// goos.
func DetectCapabilities(goos string) *Capabilities {
	return hostProber().detect(goos)
}

func (p prober) detect(goos string) *Capabilities {
	caps := &Capabilities{GOOS: goos, KernelRelease: KernelRelease()}

	switch goos {
	case "linux":
		caps.Tool = "bwrap"
		if path, err := p.bwrapPath(); err == nil {
			caps.ToolPath = path
			if out, err := p.output(path, "--version"); err == nil {
				caps.ToolVersion = strings.TrimSpace(string(out))
			}
		}
		caps.AppArmorRestrictsUserNamespaces = p.readSysctl("kernel/apparmor_restrict_unprivileged_userns") == "1"
		caps.UserNamespacesEnabled = p.checkUserNamespaces(caps.ToolPath)
	case "darwin":
		caps.Tool = "sandbox-exec"
		if path, err := p.lookPath(caps.Tool); err == nil && executable(path) {
			caps.ToolPath = path
		}
	}
	return caps
}

// BwrapPath returns the path of an executable bwrap, searching PATH
// and then the standard install locations.
func BwrapPath() (string, error) {
	return hostProber().bwrapPath()
}

func (p prober) bwrapPath() (string, error) {
	if path, err := p.lookPath("bwrap"); err == nil && executable(path) {
		return path, nil
	}
	for _, path := range []string{"/usr/bin/bwrap", "/usr/local/bin/bwrap", "/bin/bwrap"} {
		if executable(path) {
			return path, nil
		}
	}
	return "", fmt.Errorf("bwrap not found in PATH or standard locations")
}

// checkUserNamespaces reports whether unprivileged user namespaces
// work. The sysctls rule them out cheaply; otherwise bwrap is asked to
// create one.
func (p prober) checkUserNamespaces(bwrap string) bool {
	if p.readSysctl("kernel/unprivileged_userns_clone") == "0" {
		return false
	}
	if p.readSysctl("user/max_user_namespaces") == "0" {
		return false
	}
	if bwrap == "" {
		return false
	}
	_, err := p.output(bwrap, "--unshare-user", "--ro-bind", "/", "/", "--", "true")
	return err == nil
}

// readSysctl returns the trimmed contents of a file under /proc/sys,
// or "" if it cannot be read.
func (p prober) readSysctl(name string) string {
	data, err := os.ReadFile(filepath.Join(p.procSys, filepath.FromSlash(name)))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func executable(path string) bool {
	return unix.Access(path, unix.X_OK) == nil
}

// KernelRelease returns the release field of uname(2), or "" on
// failure.
func KernelRelease() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return ""
	}
	return unix.ByteSliceToString(uts.Release[:])
}

// ToolAvailable reports whether the sandbox tool was found.
func (c *Capabilities) ToolAvailable() bool {
	return c.ToolPath != ""
}

// CanRunSandbox returns true if the default command should work.
func (c *Capabilities) CanRunSandbox() bool {
	switch c.GOOS {
	case "linux":
		return c.ToolAvailable() && c.UserNamespacesEnabled
	case "darwin":
		return c.ToolAvailable()
	default:
		return false
	}
}

// SkipReason returns a human-readable reason why the default command
// cannot run, or an empty string if it can.
func (c *Capabilities) SkipReason() string {
	if c.Tool == "" {
		return fmt.Sprintf("no sandbox tool is known for %s", c.GOOS)
	}
	if !c.ToolAvailable() {
		return fmt.Sprintf("%s not installed", c.Tool)
	}
	if c.GOOS != "linux" || c.UserNamespacesEnabled {
		return ""
	}
	if c.AppArmorRestrictsUserNamespaces {
		return "unprivileged user namespaces are restricted by AppArmor (kernel.apparmor_restrict_unprivileged_userns=1); see https://ubuntu.com/blog/ubuntu-23-10-restricted-unprivileged-user-namespaces"
	}
	return "unprivileged user namespaces not enabled (set kernel.unprivileged_userns_clone=1)"
}
