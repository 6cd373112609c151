// Package hashutil implements compute_file_hash/compute_string_hash from
// the original VfsCommon.h, using BLAKE2b-256 in place of the unspecified
// original algorithm (the codec itself treats the hash as opaque; see
// §4.F and SPEC_FULL.md's DOMAIN STACK entry for golang.org/x/crypto).
package hashutil

import (
	"encoding/hex"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// String returns the hex-encoded BLAKE2b-256 digest of data.
func String(data string) string {
	sum := blake2b.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// Bytes returns the hex-encoded BLAKE2b-256 digest of data.
func Bytes(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// File returns the hex-encoded BLAKE2b-256 digest of a host file's contents.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
