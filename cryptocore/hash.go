package cryptocore

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
)

// RandomBytes returns n cryptographically secure random bytes. Never mock
// this in production code paths — tests that need determinism should
// inject a fixed ephemeral secret instead of stubbing this function.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("cryptocore: random bytes: %w", err)
	}
	return buf, nil
}

// HashSHA256 is a thin convenience wrapper kept for callers that need a
// plain 32-byte digest without allocating an array literal.
func HashSHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}
