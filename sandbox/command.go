// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"fmt"
	"strings"

	"github.com/trailofbits/build-wrap/shim"
)

// Builder assembles a command template word by word.
type Builder struct {
	words []string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Arg appends a word that may contain "{}" and "{NAME}" placeholders.
// Whitespace and backslashes are escaped so the word survives
// tokenization intact.
func (b *Builder) Arg(word string) *Builder {
	b.words = append(b.words, escapeWord(word))
	return b
}

// Args appends each word as with [Builder.Arg].
func (b *Builder) Args(words ...string) *Builder {
	for _, word := range words {
		b.Arg(word)
	}
	return b
}

// Literal appends a word that expands to exactly itself: braces are
// doubled in addition to the escaping done by [Builder.Arg].
func (b *Builder) Literal(word string) *Builder {
	word = strings.ReplaceAll(word, "{", "{{")
	word = strings.ReplaceAll(word, "}", "}}")
	return b.Arg(word)
}

// BuildScript appends the "{}" placeholder.
func (b *Builder) BuildScript() *Builder {
	b.words = append(b.words, "{}")
	return b
}

// String returns the template.
func (b *Builder) String() string {
	return strings.Join(b.words, " ")
}

func escapeWord(word string) string {
	var escaped strings.Builder
	for i := 0; i < len(word); i++ {
		switch c := word[i]; c {
		case ' ', '\t', '\n', '\f', '\r', '\\':
			escaped.WriteByte('\\')
			escaped.WriteByte(c)
		default:
			escaped.WriteByte(c)
		}
	}
	return escaped.String()
}

// BwrapOptions describes a bubblewrap sandbox for a build script.
type BwrapOptions struct {
	// Program is the bwrap executable. Empty means "bwrap" from PATH.
	Program string

	// ReadOnlyRoot bind-mounts the host root read-only.
	ReadOnlyRoot bool

	// DevBind exposes the host /dev, which build scripts use for
	// /dev/null and friends.
	DevBind bool

	// Writable lists directories bind-mounted read-write at the same
	// path. Entries may use placeholders such as "{OUT_DIR}".
	Writable []string

	// UnshareNet puts the build script in an empty network namespace.
	UnshareNet bool

	// Extra holds additional bwrap arguments, appended before the
	// build script path.
	Extra []string
}

// DefaultBwrapOptions returns the options behind the Linux default
// command: a read-only host with OUT_DIR and /tmp writable and no
// network.
func DefaultBwrapOptions() BwrapOptions {
	return BwrapOptions{
		Program:      "bwrap",
		ReadOnlyRoot: true,
		DevBind:      true,
		Writable:     []string{"{OUT_DIR}", "/tmp"},
		UnshareNet:   true,
	}
}

// BwrapTemplate returns the command template for opts.
func BwrapTemplate(opts BwrapOptions) string {
	program := opts.Program
	if program == "" {
		program = "bwrap"
	}
	b := NewBuilder().Arg(program)
	if opts.ReadOnlyRoot {
		b.Args("--ro-bind", "/", "/")
	}
	if opts.DevBind {
		b.Args("--dev-bind", "/dev", "/dev")
	}
	for _, dir := range opts.Writable {
		b.Args("--bind", dir, dir)
	}
	if opts.UnshareNet {
		b.Arg("--unshare-net")
	}
	b.Args(opts.Extra...)
	return b.BuildScript().String()
}

// SandboxExecTemplate returns the macOS command template, which runs
// the build script under the profile materialized at
// BUILD_WRAP_PROFILE_PATH.
func SandboxExecTemplate() string {
	return NewBuilder().
		Arg("sandbox-exec").
		Arg("-f").
		Arg("{" + shim.ProfilePathVar + "}").
		BuildScript().
		String()
}

// DefaultCommand returns the command template used when
// BUILD_WRAP_CMD is unset.
func DefaultCommand(goos string) (string, error) {
	switch goos {
	case "linux":
		return BwrapTemplate(DefaultBwrapOptions()), nil
	case "darwin":
		return SandboxExecTemplate(), nil
	default:
		return "", fmt.Errorf("no default sandbox command for %s; set %s", goos, shim.CommandVar)
	}
}

// ResolveTemplate returns the value of BUILD_WRAP_CMD when it is set,
// even if empty, and the default command for goos otherwise.
func ResolveTemplate(lookup shim.LookupFunc, goos string) (string, error) {
	if template, ok := lookup(shim.CommandVar); ok {
		return template, nil
	}
	return DefaultCommand(goos)
}
