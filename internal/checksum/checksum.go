// Package checksum fingerprints migration SQL so that post-application
// edits can be detected against the ledger.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256 returns the lowercase hex digest of b.
func SHA256(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Short truncates a hex digest for display. Full digests are stored;
// operators only ever need the prefix.
func Short(digest string) string {
	if len(digest) <= 12 {
		return digest
	}
	return digest[:12]
}
