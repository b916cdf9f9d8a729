package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashOwnerKey returns a filesystem-safe identifier for an owner ID.
func HashOwnerKey(s string) string {
	return SHA256Hex([]byte(s))
}

// SHA256Hex returns the hex-encoded SHA-256 of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
