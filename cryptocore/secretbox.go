// XChaCha20-Poly1305 AEAD over a single-blob `nonce‖ciphertext‖tag` wire
// layout. Decrypt failure is reported as (nil, false) instead of an error:
// callers that scan untrusted ciphertexts for ones addressed to them treat
// a failed open as "not mine", never as a hard fault.
package cryptocore

import (
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// EncryptSecretbox seals plaintext under a 32-byte symmetric key, returning
// nonce(24B) ‖ ciphertext ‖ tag(16B).
func EncryptSecretbox(plaintext, key []byte) ([]byte, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("cryptocore: secretbox key must be 32 bytes")
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("cryptocore: secretbox cipher: %w", err)
	}
	nonce, err := RandomBytes(chacha20poly1305.NonceSizeX)
	if err != nil {
		return nil, err
	}
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	return append(nonce, sealed...), nil
}

// DecryptSecretbox opens a blob produced by EncryptSecretbox. It never
// returns an error for a bad key or tampered ciphertext — only ok=false.
func DecryptSecretbox(ciphertext, key []byte) ([]byte, bool) {
	if len(key) != 32 || len(ciphertext) < chacha20poly1305.NonceSizeX {
		return nil, false
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, false
	}
	nonce := ciphertext[:chacha20poly1305.NonceSizeX]
	sealed := ciphertext[chacha20poly1305.NonceSizeX:]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, false
	}
	return plaintext, true
}
