package cryptocore

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// HKDF derives length bytes of key material from ikm using HKDF-SHA256 with
// an empty salt.
func HKDF(ikm, info []byte, length int) ([]byte, error) {
	h := hkdf.New(sha256.New, ikm, nil, info)
	out := make([]byte, length)
	if _, err := io.ReadFull(h, out); err != nil {
		return nil, fmt.Errorf("cryptocore: hkdf: %w", err)
	}
	return out, nil
}

// PasswordDerive applies iterated SHA-256 over (salt‖password) for at least
// 10,000 rounds, used only by external collaborators for at-rest key
// storage; it is not invoked anywhere in the stealth-payment core itself.
func PasswordDerive(password, salt []byte) [32]byte {
	const rounds = 10_000

	buf := append(append([]byte{}, salt...), password...)
	digest := sha256.Sum256(buf)
	for i := 1; i < rounds; i++ {
		digest = sha256.Sum256(digest[:])
	}
	return digest
}
