// Package token generates the single-use secrets handed to callers and the
// content hashes that are the only form ever persisted.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Generate returns 32 bytes of entropy encoded as unpadded base64url.
// The raw value is returned to the caller exactly once and never stored.
func Generate() (string, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf[:]), nil
}

// Hash returns the unpadded base64url sha256 digest of key. Challenge keys,
// reset keys, and API keys are all looked up by this hash.
func Hash(key string) string {
	sum := sha256.Sum256([]byte(key))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
