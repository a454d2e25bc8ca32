// Ed25519<->X25519 birational-map helpers, for wallet layers that only hold
// one Ed25519 seed and want to derive an X25519 keypair from it. DERIVE and
// SCAN never call these internally: the viewing key V is always a dedicated
// X25519 keypair, not derived from the spending key K.
package cryptocore

import (
	"crypto/ed25519"
	"crypto/sha512"
	"fmt"

	"filippo.io/edwards25519"
)

// Ed25519ToX25519PrivateKey converts an Ed25519 private key's seed into the
// corresponding X25519 private scalar via RFC 8032 §5.1.5 clamping.
func Ed25519ToX25519PrivateKey(sk ed25519.PrivateKey) ([32]byte, error) {
	if len(sk) != ed25519.PrivateKeySize {
		return [32]byte{}, fmt.Errorf("cryptocore: bad Ed25519 private key length: %d", len(sk))
	}
	seed := sk.Seed()
	h := sha512.Sum512(seed)
	h[0] &= 248
	h[31] &= 127
	h[31] |= 64

	var out [32]byte
	copy(out[:], h[:32])
	return out, nil
}

// Ed25519ToX25519PublicKey converts an Ed25519 public key to its X25519
// Montgomery-form equivalent.
func Ed25519ToX25519PublicKey(pk ed25519.PublicKey) ([32]byte, error) {
	if len(pk) != ed25519.PublicKeySize {
		return [32]byte{}, fmt.Errorf("cryptocore: bad Ed25519 public key length: %d", len(pk))
	}
	p, err := new(edwards25519.Point).SetBytes(pk)
	if err != nil {
		return [32]byte{}, fmt.Errorf("cryptocore: invalid Ed25519 public key: %w", err)
	}
	var out [32]byte
	copy(out[:], p.BytesMontgomery())
	return out, nil
}
