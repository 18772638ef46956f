// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the build-wrap policy.
type Config struct {
	// Allow lists directories and packages whose build scripts run
	// without a sandbox.
	Allow List `toml:"allow" yaml:"allow"`

	// Ignore lists directories and packages build-wrap leaves alone.
	Ignore List `toml:"ignore" yaml:"ignore"`

	// BuildScript tunes build script detection.
	BuildScript BuildScriptConfig `toml:"build_script" yaml:"build_script"`

	// Path is the file the configuration was read from, or empty.
	Path string `toml:"-" yaml:"-"`
}

// List is the body of an [allow] or [ignore] table.
type List struct {
	// Directories match the linker's working directory and everything
	// beneath it.
	Directories []string `toml:"directories" yaml:"directories"`

	// Packages match CARGO_PKG_NAME exactly.
	Packages []string `toml:"packages" yaml:"packages"`
}

// BuildScriptConfig is the body of the [build_script] table.
type BuildScriptConfig struct {
	// Prefixes are additional file name prefixes of build script
	// executables.
	Prefixes []string `toml:"prefixes" yaml:"prefixes"`
}

// knownTables are the top-level keys a config file may contain.
var knownTables = map[string]bool{
	"allow":        true,
	"ignore":       true,
	"build_script": true,
}

// fileNames are the names looked for in each search directory, in
// order of preference.
var fileNames = []string{"config.toml", "config.yaml", "config.yml"}

// SearchPaths returns the candidate config files, most preferred
// first: $XDG_CONFIG_HOME, the user config directory, ~/.config, then
// each of $XDG_CONFIG_DIRS (default /etc/xdg).
func SearchPaths() []string {
	var dirs []string
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		dirs = append(dirs, xdgConfig)
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, configDir)
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config"))
	}
	xdgDirs := os.Getenv("XDG_CONFIG_DIRS")
	if xdgDirs == "" {
		xdgDirs = "/etc/xdg"
	}
	for _, dir := range filepath.SplitList(xdgDirs) {
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}

	var paths []string
	seen := make(map[string]bool)
	for _, dir := range dirs {
		for _, name := range fileNames {
			path := filepath.Join(dir, "build-wrap", name)
			if !seen[path] {
				seen[path] = true
				paths = append(paths, path)
			}
		}
	}
	return paths
}

// Load reads the first config file found in [SearchPaths]. It never
// fails: a missing, unreadable or malformed file yields an empty
// Config, with a warning logged in the last two cases.
func Load(logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		config, err := LoadFile(path, logger)
		if err != nil {
			logger.Warn("ignoring build-wrap config", "path", path, "error", err)
			return &Config{}
		}
		logger.Debug("loaded build-wrap config", "path", path)
		return config
	}
	return &Config{}
}

// LoadFile reads the config file at path. The format follows the
// extension: .yaml or .yml for YAML, anything else is TOML. Unknown
// top-level tables are logged as warnings and otherwise ignored.
func LoadFile(path string, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var config *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		config, err = parseYAML(data, path, logger)
	default:
		config, err = parseTOML(data, path, logger)
	}
	if err != nil {
		return nil, err
	}
	config.Path = path
	return config, nil
}

func parseTOML(data []byte, path string, logger *slog.Logger) (*Config, error) {
	var config Config
	metadata, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&config)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	warned := make(map[string]bool)
	for _, key := range metadata.Undecoded() {
		table := key[0]
		if knownTables[table] {
			logger.Warn("unrecognized key in build-wrap config", "path", path, "key", key.String())
			continue
		}
		if !warned[table] {
			warned[table] = true
			logger.Warn("unrecognized table in build-wrap config", "path", path, "table", table)
		}
	}
	return &config, nil
}

func parseYAML(data []byte, path string, logger *slog.Logger) (*Config, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for table := range raw {
		if !knownTables[table] {
			logger.Warn("unrecognized table in build-wrap config", "path", path, "table", table)
		}
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &config, nil
}

// Directories returns the allowed and ignored directories.
func (c *Config) Directories() []string {
	return append(append([]string(nil), c.Allow.Directories...), c.Ignore.Directories...)
}

// Packages returns the allowed and ignored package names.
func (c *Config) Packages() []string {
	return append(append([]string(nil), c.Allow.Packages...), c.Ignore.Packages...)
}

// DirectoryAllowed reports whether dir is, or is beneath, a listed
// directory. Comparison is by whole path components.
func (c *Config) DirectoryAllowed(dir string) bool {
	if dir == "" {
		return false
	}
	dir = filepath.Clean(dir)
	for _, listed := range c.Directories() {
		if listed == "" {
			continue
		}
		listed = filepath.Clean(listed)
		if dir == listed || strings.HasPrefix(dir, strings.TrimSuffix(listed, string(filepath.Separator))+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// PackageAllowed reports whether name is a listed package.
func (c *Config) PackageAllowed(name string) bool {
	if name == "" {
		return false
	}
	for _, listed := range c.Packages() {
		if listed == name {
			return true
		}
	}
	return false
}

// Allowed reports whether a build script linked in dir for package
// name is exempt from sandboxing.
func (c *Config) Allowed(dir, name string) bool {
	return c.DirectoryAllowed(dir) || c.PackageAllowed(name)
}

// ErrNoConfig is returned by [Find] when no config file exists.
var ErrNoConfig = errors.New("no build-wrap config file found")

// Find returns the path [Load] would read.
func Find() (string, error) {
	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrNoConfig
}
