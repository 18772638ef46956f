// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package shim

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Names of the variables an [Expander] computes instead of looking up.
const (
	PrivateTmpdirVar = "PRIVATE_TMPDIR"
	ProfilePathVar   = "BUILD_WRAP_PROFILE_PATH"
)

// privatePrefix is the directory macOS resolves /tmp and /var into.
const privatePrefix = "/private"

// LookupFunc returns the value of an environment-style variable and
// whether it is set. [os.LookupEnv] is the usual implementation.
type LookupFunc func(key string) (string, bool)

// Expander substitutes placeholders in template words. It holds every
// input expansion depends on, so Expand is a function of the Expander
// and its argument alone: the variable lookup, the build script path,
// the PRIVATE_TMPDIR value (resolved once by [NewExpander]), and the
// sandbox profile file (materialized at most once, on first use).
//
// An Expander is not safe for concurrent use.
type Expander struct {
	lookup          LookupFunc
	buildScriptPath string

	privateTmpdir    string
	hasPrivateTmpdir bool

	// inProfile is set on the Expander used to expand the profile
	// itself, which must not refer to its own path.
	inProfile bool

	profilePath string
	profileErr  error
	profileDone bool
}

// NewExpander returns an Expander that resolves "{NAME}" through
// lookup and "{}" to buildScriptPath. An empty buildScriptPath means no
// build script is available, and "{}" is an error.
func NewExpander(lookup LookupFunc, buildScriptPath string) *Expander {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	e := &Expander{
		lookup:          lookup,
		buildScriptPath: buildScriptPath,
	}
	e.privateTmpdir, e.hasPrivateTmpdir = resolvePrivateTmpdir(lookup)
	return e
}

// resolvePrivateTmpdir canonicalizes TMPDIR and reports it only when
// the result is under /private. Anywhere else the variable is treated
// as unset.
func resolvePrivateTmpdir(lookup LookupFunc) (string, bool) {
	value, ok := lookup("TMPDIR")
	if !ok || value == "" {
		return "", false
	}
	resolved, err := filepath.EvalSymlinks(value)
	if err != nil {
		return "", false
	}
	resolved, err = filepath.Abs(resolved)
	if err != nil {
		return "", false
	}
	if resolved != privatePrefix && !strings.HasPrefix(resolved, privatePrefix+"/") {
		return "", false
	}
	return resolved, true
}

// Tokenize splits a command template into words at unescaped ASCII
// whitespace. Runs of whitespace separate words; they never produce
// empty words. A backslash includes the next character literally,
// which must be whitespace or another backslash.
func Tokenize(template string) ([]string, error) {
	var tokens []string
	var current strings.Builder

	for i := 0; i < len(template); i++ {
		c := template[i]
		switch {
		case isASCIISpace(c):
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		case c == '\\':
			if i+1 == len(template) {
				return nil, errors.New("trailing backslash")
			}
			next := template[i+1]
			if !isASCIISpace(next) && next != '\\' {
				return nil, errors.New("illegally escaped character")
			}
			current.WriteByte(next)
			i++
		default:
			current.WriteByte(c)
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}

// isASCIISpace matches space, tab, line feed, form feed and carriage
// return.
func isASCIISpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

// Expand substitutes every placeholder in word. "{{" and "}}" are
// literal braces; "{}" is the build script path; "{NAME}" is a
// variable. A lone brace without its partner is an error, as is an
// unknown variable.
func (e *Expander) Expand(word string) (string, error) {
	var buf strings.Builder
	rest := word

	for {
		i := strings.IndexAny(rest, "{}")
		if i < 0 {
			break
		}
		c := rest[i]
		buf.WriteString(rest[:i])
		rest = rest[i+1:]

		if len(rest) > 0 && rest[0] == c {
			buf.WriteByte(c)
			rest = rest[1:]
			continue
		}

		if c == '{' {
			if j := strings.IndexByte(rest, '}'); j >= 0 {
				value, err := e.resolve(rest[:j])
				if err != nil {
					return "", err
				}
				buf.WriteString(value)
				rest = rest[j+1:]
				continue
			}
		}

		return "", fmt.Errorf("unbalanced '%c'", c)
	}

	buf.WriteString(rest)
	return buf.String(), nil
}

func (e *Expander) resolve(key string) (string, error) {
	if key == "" {
		if e.buildScriptPath == "" {
			return "", errors.New("build script path is unavailable")
		}
		return e.buildScriptPath, nil
	}

	switch key {
	case PrivateTmpdirVar:
		if e.hasPrivateTmpdir {
			return e.privateTmpdir, nil
		}
	case ProfilePathVar:
		if e.inProfile {
			return "", fmt.Errorf("sandbox profile cannot refer to `%s`", ProfilePathVar)
		}
		return e.materializeProfile()
	default:
		if value, ok := e.lookup(key); ok {
			return value, nil
		}
	}
	return "", fmt.Errorf("environment variable `%s` not found", key)
}

// SplitAndExpand tokenizes template and expands each word, producing
// the argument vector of the sandbox command.
func SplitAndExpand(template string, e *Expander) ([]string, error) {
	words, err := Tokenize(template)
	if err != nil {
		return nil, err
	}
	args := make([]string, 0, len(words))
	for _, word := range words {
		arg, err := e.Expand(word)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("expanded `%s` is empty or all whitespace", CommandVar)
	}
	return args, nil
}
