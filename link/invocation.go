// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package link

// Invocation is the argument vector build-wrap was run with.
type Invocation struct {
	// Args is the full argv, program name included.
	Args []string
}

// OutputPath returns the value following the first "-o". Later "-o"
// flags are ignored, and a trailing "-o" yields no path.
func (inv Invocation) OutputPath() (string, bool) {
	for i := 1; i < len(inv.Args); i++ {
		if inv.Args[i] != "-o" {
			continue
		}
		if i+1 < len(inv.Args) {
			return inv.Args[i+1], true
		}
		return "", false
	}
	return "", false
}

// LinkerArgs returns the arguments passed on to the real linker.
func (inv Invocation) LinkerArgs() []string {
	if len(inv.Args) == 0 {
		return nil
	}
	return inv.Args[1:]
}
