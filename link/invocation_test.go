// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package link

import (
	"reflect"
	"testing"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		want   string
		wantOK bool
	}{
		{"simple", []string{"build-wrap", "a.o", "-o", "out/bin"}, "out/bin", true},
		{"first wins", []string{"build-wrap", "-o", "first", "-o", "second"}, "first", true},
		{"trailing", []string{"build-wrap", "a.o", "-o"}, "", false},
		{"absent", []string{"build-wrap", "a.o", "-lc"}, "", false},
		{"attached value is not split", []string{"build-wrap", "-ofoo"}, "", false},
		{"program name is not an argument", []string{"-o", "x"}, "", false},
		{"empty", nil, "", false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := Invocation{Args: test.args}.OutputPath()
			if got != test.want || ok != test.wantOK {
				t.Errorf("OutputPath() = %q, %v; want %q, %v", got, ok, test.want, test.wantOK)
			}
		})
	}
}

func TestLinkerArgs(t *testing.T) {
	args := Invocation{Args: []string{"build-wrap", "-o", "x", "a.o"}}.LinkerArgs()
	if want := []string{"-o", "x", "a.o"}; !reflect.DeepEqual(args, want) {
		t.Errorf("LinkerArgs() = %q, want %q", args, want)
	}
	if args := (Invocation{}).LinkerArgs(); args != nil {
		t.Errorf("LinkerArgs() of empty invocation = %q", args)
	}
}
