// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package link

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/trailofbits/build-wrap/shim"
	"github.com/trailofbits/build-wrap/wrapper"
)

// allTargets is the target table key that applies a linker to every
// target, as the installation instructions recommend.
const allTargets = "cfg(all())"

// cargoConfig is the part of a cargo config file build-wrap reads.
type cargoConfig struct {
	Target map[string]struct {
		Linker string `toml:"linker"`
	} `toml:"target"`
}

// Status describes cargo's linker configuration.
type Status struct {
	// Enabled is true if the configured linker is this build-wrap.
	Enabled bool

	// ConfigPath is the cargo config file that sets the linker, or
	// empty if none does.
	ConfigPath string

	// Linker is the configured value.
	Linker string

	// Resolved is the path Linker resolves to, if it resolves.
	Resolved string
}

func (s Status) String() string {
	if s.Enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// DetectStatus reports whether cargo, run in dir, would link with the
// executable at self. Config files are searched as cargo does: dir and
// its ancestors, then CARGO_HOME (default ~/.cargo). The nearest file
// setting target.'cfg(all())'.linker wins.
func DetectStatus(dir string, lookup shim.LookupFunc, self string) (Status, error) {
	var status Status
	for _, path := range CargoConfigPaths(dir, lookup) {
		var config cargoConfig
		if _, err := toml.DecodeFile(path, &config); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return status, fmt.Errorf("reading cargo config %s: %w", path, err)
		}
		target, ok := config.Target[allTargets]
		if !ok || target.Linker == "" {
			continue
		}
		status.ConfigPath = path
		status.Linker = target.Linker
		break
	}
	if status.Linker == "" {
		return status, nil
	}

	resolved, err := resolveConfiguredLinker(status.Linker, status.ConfigPath)
	if err != nil {
		return status, nil
	}
	status.Resolved = resolved
	status.Enabled = self != "" && wrapper.SameFile(resolved, self)
	return status, nil
}

// resolveConfiguredLinker resolves a linker value from a config file.
// Values containing a slash are relative to the directory holding the
// .cargo directory; bare names are looked up in PATH.
func resolveConfiguredLinker(linker, configPath string) (string, error) {
	if !strings.Contains(linker, "/") {
		return exec.LookPath(linker)
	}
	if !filepath.IsAbs(linker) {
		linker = filepath.Join(filepath.Dir(filepath.Dir(configPath)), linker)
	}
	if _, err := os.Stat(linker); err != nil {
		return "", err
	}
	return linker, nil
}

// CargoConfigPaths returns the cargo config files that apply in dir,
// nearest first.
func CargoConfigPaths(dir string, lookup shim.LookupFunc) []string {
	var paths []string
	seen := make(map[string]bool)
	add := func(cargoDir string) {
		for _, name := range []string{"config.toml", "config"} {
			path := filepath.Join(cargoDir, name)
			if !seen[path] {
				seen[path] = true
				paths = append(paths, path)
			}
		}
	}

	if dir != "" {
		dir = filepath.Clean(dir)
		for {
			add(filepath.Join(dir, ".cargo"))
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	if cargoHome, ok := lookup("CARGO_HOME"); ok && cargoHome != "" {
		add(cargoHome)
	} else if home, ok := lookup("HOME"); ok && home != "" {
		add(filepath.Join(home, ".cargo"))
	}
	return paths
}
