// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package wrapper

import (
	"bytes"
	"fmt"
	"go/format"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"

	"github.com/trailofbits/build-wrap/shim"
)

const (
	// ModulePath is the module path of every wrapper package.
	ModulePath = "build_script_wrapper"

	// BinaryName is the name of the compiled wrapper inside the
	// package directory.
	BinaryName = "build_script_wrapper"

	// goVersion is the go directive of the wrapper's go.mod: the
	// oldest release with log/slog, which the shim uses.
	goVersion = "1.21"
)

var mainTemplate = template.Must(template.New("main.go").Parse(`// Code generated by build-wrap. DO NOT EDIT.

package main

import (
	"os"

	"{{.Module}}/shim"
)

// siblingPath is the original build script.
const siblingPath = {{printf "%q" .SiblingPath}}

// commandTemplate is BUILD_WRAP_CMD as it was when this wrapper was
// generated.
const commandTemplate = {{printf "%q" .Template}}

func main() {
	os.Exit(shim.ExecSibling(siblingPath, commandTemplate))
}
`))

// GenerateMain returns the formatted source of a wrapper's main.go.
func GenerateMain(siblingPath, commandTemplate string) ([]byte, error) {
	var buf bytes.Buffer
	err := mainTemplate.Execute(&buf, struct {
		Module, SiblingPath, Template string
	}{ModulePath, siblingPath, commandTemplate})
	if err != nil {
		return nil, fmt.Errorf("generating main.go: %w", err)
	}
	source, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting main.go: %w", err)
	}
	return source, nil
}

// Package is a wrapper module on disk.
type Package struct {
	// Dir is the module root.
	Dir string
}

// NewPackage writes a wrapper module for siblingPath and
// commandTemplate into a new temporary directory. The caller removes
// it with [Package.Remove].
func NewPackage(siblingPath, commandTemplate string) (*Package, error) {
	dir, err := os.MkdirTemp("", "build-wrap-package-*")
	if err != nil {
		return nil, fmt.Errorf("creating wrapper package directory: %w", err)
	}
	pkg := &Package{Dir: dir}
	if err := pkg.write(siblingPath, commandTemplate); err != nil {
		pkg.Remove()
		return nil, err
	}
	return pkg, nil
}

func (p *Package) write(siblingPath, commandTemplate string) error {
	goMod := fmt.Sprintf("module %s\n\ngo %s\n", ModulePath, goVersion)
	if err := os.WriteFile(filepath.Join(p.Dir, "go.mod"), []byte(goMod), 0o644); err != nil {
		return fmt.Errorf("writing go.mod: %w", err)
	}

	shimDir := filepath.Join(p.Dir, "shim")
	if err := os.Mkdir(shimDir, 0o755); err != nil {
		return fmt.Errorf("creating shim directory: %w", err)
	}
	entries, err := fs.ReadDir(shim.Sources, ".")
	if err != nil {
		return fmt.Errorf("listing shim sources: %w", err)
	}
	for _, entry := range entries {
		data, err := fs.ReadFile(shim.Sources, entry.Name())
		if err != nil {
			return fmt.Errorf("reading shim source %s: %w", entry.Name(), err)
		}
		if err := os.WriteFile(filepath.Join(shimDir, entry.Name()), data, 0o644); err != nil {
			return fmt.Errorf("writing shim source %s: %w", entry.Name(), err)
		}
	}

	source, err := GenerateMain(siblingPath, commandTemplate)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(p.Dir, "main.go"), source, 0o644); err != nil {
		return fmt.Errorf("writing main.go: %w", err)
	}
	return nil
}

// BinaryPath returns where [BuildCommand] puts the compiled wrapper.
func (p *Package) BinaryPath() string {
	return filepath.Join(p.Dir, BinaryName)
}

// Remove deletes the package directory.
func (p *Package) Remove() error {
	return os.RemoveAll(p.Dir)
}
