// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package shim

import (
	"fmt"
	"os"
)

// ProfileVar names the variable that overrides [DefaultProfile].
const ProfileVar = "BUILD_WRAP_PROFILE"

// DefaultProfile is the sandbox-exec profile written to
// BUILD_WRAP_PROFILE_PATH when BUILD_WRAP_PROFILE is unset. It is
// expanded like a template word, without a build script path.
const DefaultProfile = `(version 1)
(deny default)
(allow file-read*)                               ;; Allow read-only access everywhere
(allow file-write* (subpath "/dev"))             ;; Allow write access to /dev
(allow file-write* (subpath "{OUT_DIR}"))        ;; Allow write access to ` + "`OUT_DIR`" + `
(allow file-write* (subpath "{TMPDIR}"))         ;; Allow write access to ` + "`TMPDIR`" + `
(allow file-write* (subpath "{PRIVATE_TMPDIR}")) ;; Allow write access to ` + "`PRIVATE_TMPDIR`" + ` (see below)
(allow process-exec)                             ;; Allow ` + "`exec`" + `
(allow process-fork)                             ;; Allow ` + "`fork`" + `
(allow sysctl-read)                              ;; Allow reading kernel state
(deny network*)                                  ;; Deny network access
`

// materializeProfile expands the sandbox profile and writes it to a
// new temporary file. The first call does the work; later calls
// return the same path (or the same error).
func (e *Expander) materializeProfile() (string, error) {
	if e.profileDone {
		return e.profilePath, e.profileErr
	}
	e.profileDone = true
	e.profilePath, e.profileErr = e.writeProfile()
	return e.profilePath, e.profileErr
}

func (e *Expander) writeProfile() (string, error) {
	profile, ok := e.lookup(ProfileVar)
	if !ok {
		profile = DefaultProfile
	}

	inner := &Expander{
		lookup:           e.lookup,
		privateTmpdir:    e.privateTmpdir,
		hasPrivateTmpdir: e.hasPrivateTmpdir,
		inProfile:        true,
	}
	expanded, err := inner.Expand(profile)
	if err != nil {
		return "", fmt.Errorf("expanding sandbox profile: %w", err)
	}

	file, err := os.CreateTemp("", "build-wrap-profile-*.sb")
	if err != nil {
		return "", fmt.Errorf("creating sandbox profile file: %w", err)
	}
	if _, err := file.WriteString(expanded); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", fmt.Errorf("writing sandbox profile %s: %w", file.Name(), err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("closing sandbox profile %s: %w", file.Name(), err)
	}
	return file.Name(), nil
}

// Cleanup removes the profile file, if one was written. The Expander
// must not be used to run commands afterwards.
func (e *Expander) Cleanup() {
	if e.profileDone && e.profileErr == nil && e.profilePath != "" {
		os.Remove(e.profilePath)
	}
}
