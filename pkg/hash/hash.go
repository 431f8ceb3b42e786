// Package hash provides hashing utilities for stable identifiers.
package hash

import (
	"crypto/md5"
	"encoding/hex"
	"io"
)

// PathHash generates an 8-character hash from a path string.
func PathHash(path string) string {
	return MD5Sum(path)[:8]
}

// MD5Sum returns the full MD5 hash of a string.
func MD5Sum(s string) string {
	hasher := md5.New()
	_, _ = io.WriteString(hasher, s)
	return hex.EncodeToString(hasher.Sum(nil))
}

// Fingerprint returns a 16-character digest of data, used to tell whether
// a scenario definition changed between runs.
func Fingerprint(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])[:16]
}
