// box_seal/box_open implement an authenticated X25519+AEAD construction: a
// NaCl-box-style sender/recipient pair, not an anonymous sealed box — both
// parties' static X25519 keys are supplied as parameters. ECDH -> HKDF ->
// AEAD, using the same symmetric secretbox wire layout as secretbox.go
// rather than an ephemeral-key-prefixed packet, since both public keys are
// already known out of band.
package cryptocore

import "fmt"

const boxInfo = "stealthcore-box-v1"

// BoxSeal encrypts plaintext for recipientXPub, authenticated as having come
// from the holder of senderXSecret.
func BoxSeal(plaintext []byte, recipientXPub, senderXSecret [32]byte) ([]byte, error) {
	shared, err := DeriveSharedSecret(senderXSecret, recipientXPub)
	if err != nil {
		return nil, fmt.Errorf("cryptocore: box_seal: %w", err)
	}
	defer SecureClear(shared[:])

	key, err := HKDF(shared[:], []byte(boxInfo), 32)
	if err != nil {
		return nil, fmt.Errorf("cryptocore: box_seal: %w", err)
	}
	defer SecureClear(key)

	return EncryptSecretbox(plaintext, key)
}

// BoxOpen decrypts a blob produced by BoxSeal. Like DecryptSecretbox, it
// never errors on a bad key or tampered ciphertext — only ok=false.
func BoxOpen(ciphertext []byte, senderXPub, recipientXSecret [32]byte) ([]byte, bool) {
	shared, err := DeriveSharedSecret(recipientXSecret, senderXPub)
	if err != nil {
		return nil, false
	}
	defer SecureClear(shared[:])

	key, err := HKDF(shared[:], []byte(boxInfo), 32)
	if err != nil {
		return nil, false
	}
	defer SecureClear(key)

	return DecryptSecretbox(ciphertext, key)
}
