// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/trailofbits/build-wrap/lib/testutil"
)

func TestExpandText(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"--template", `time -p {} {OUT_DIR}/a\ b`, "--build-script", "/tmp/x/build_script_build-abcd"},
		&out, testutil.Lookup(map[string]string{"OUT_DIR": "/out"}))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "time\n-p\n/tmp/x/build_script_build-abcd\n/out/a b\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestExpandJSON(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"-t", "sandbox {}", "-b", "/b/build_script_build-1", "--format", "json"}, &out, testutil.Lookup(nil))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var got expansion
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decoding %q: %v", out.String(), err)
	}
	if !reflect.DeepEqual(got.Args, []string{"sandbox", "/b/build_script_build-1"}) || got.Template != "sandbox {}" {
		t.Errorf("decoded = %+v", got)
	}
}

func TestExpandYAML(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"--format=yaml", "--template", "echo {{literal}}"}, &out, testutil.Lookup(nil))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var got expansion
	if err := yaml.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decoding %q: %v", out.String(), err)
	}
	if !reflect.DeepEqual(got.Args, []string{"echo", "{literal}"}) {
		t.Errorf("decoded = %+v", got)
	}
}

func TestExpandDefaultsToEnvironment(t *testing.T) {
	var out bytes.Buffer
	err := run(nil, &out, testutil.Lookup(map[string]string{"BUILD_WRAP_CMD": "env {HOME}", "HOME": "/home/u"}))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "env\n/home/u\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestExpandErrors(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--template", "{UNKNOWN}"}, "environment variable `UNKNOWN` not found"},
		{[]string{"--template", "sandbox {}"}, "build script path is unavailable"},
		{[]string{"--template", "  "}, "empty or all whitespace"},
		{[]string{"--template", "x", "--format", "toml"}, "unknown format"},
		{[]string{"extra"}, "unexpected argument"},
	}
	for _, test := range tests {
		var out bytes.Buffer
		err := run(test.args, &out, testutil.Lookup(map[string]string{"BUILD_WRAP_CMD": "x"}))
		if err == nil || !strings.Contains(err.Error(), test.want) {
			t.Errorf("run(%q) error = %v, want %q", test.args, err, test.want)
		}
	}
}

func TestExpandHelp(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"--help"}, &out, testutil.Lookup(nil)); err != nil {
		t.Fatalf("run --help: %v", err)
	}
	if !strings.Contains(out.String(), "--build-script") {
		t.Errorf("help output = %q", out.String())
	}
}
