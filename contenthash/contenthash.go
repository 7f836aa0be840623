// Package contenthash derives the stable 32-hex-character identities the
// content tree assigns to folders and items, grounded on
// original_source/src/cds.c's use of an MD5 digest of a node's physical
// path as its object id.
package contenthash

import (
	"crypto/md5"
	"encoding/hex"
	"path/filepath"
)

// ID hashes an arbitrary string (a canonicalized file path) to the
// lowercase 32-hex-character identity spec.md §3 requires.
func ID(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// PathID canonicalizes path via filepath.Abs before hashing, so that two
// references to the same file via different relative paths collapse to
// the same identity (spec.md §9's resolved collision note).
func PathID(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return ID(abs)
}
