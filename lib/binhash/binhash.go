// Copyright 2026 The build-wrap Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 hash.
type Digest [32]byte

// String returns the hex encoding used in log output.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// HashFile computes the BLAKE3 digest of the file at path. The file
// is streamed through the hasher, so memory use does not depend on the
// file's size.
func HashFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}
