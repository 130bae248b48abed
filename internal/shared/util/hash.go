package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashUserKey derives a filesystem-safe directory name from a user ID.
// The first 16 bytes of the digest keep storage keys short while
// staying collision-resistant at this scale.
func HashUserKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:16])
}
