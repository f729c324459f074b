package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Fingerprint derives a stable identity hash for a source item from
// its name, modification time, content length and path. Identical
// inputs always yield the identical digest; any change to one of the
// four fields changes the digest with overwhelming probability.
//
// The four fields are serialised in a canonical key-sorted form before
// hashing, so the digest does not depend on struct layout. Missing
// fields serialise as empty strings rather than failing: a partially
// described item still gets a stable, if weaker, fingerprint.
func Fingerprint(item *SourceItem) string {
	if item == nil {
		return fingerprintOf("", "", 0, "")
	}
	var modified string
	if !item.Modified.IsZero() {
		modified = item.Modified.UTC().Format(time.RFC3339Nano)
	}
	return fingerprintOf(item.Name, modified, len(item.Content), item.Path)
}

// fingerprintOf hashes the canonical serialisation. Keys are written
// in sorted order: length, modified, name, path.
func fingerprintOf(name, modified string, length int, path string) string {
	canonical := fmt.Sprintf("length=%d|modified=%s|name=%s|path=%s",
		length, modified, name, path)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
