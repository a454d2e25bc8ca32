// X25519 ECDH and view-tag derivation, over stdlib crypto/ecdh plus a
// constant-time low-order-point rejection.
package cryptocore

import (
	"crypto/ecdh"
	"fmt"
)

// DeriveSharedSecret computes the raw X25519 ECDH output scalar*point. It
// rejects inputs that aren't 32 bytes via the [32]byte signature itself;
// callers must not branch on the result to probe key validity, since that
// would open a timing side channel for an attacker testing candidate keys.
func DeriveSharedSecret(scalar, point [32]byte) ([32]byte, error) {
	curve := ecdh.X25519()

	priv, err := curve.NewPrivateKey(scalar[:])
	if err != nil {
		return [32]byte{}, fmt.Errorf("cryptocore: invalid X25519 scalar: %w", err)
	}
	pub, err := curve.NewPublicKey(point[:])
	if err != nil {
		return [32]byte{}, fmt.Errorf("cryptocore: invalid X25519 point: %w", err)
	}

	shared, err := priv.ECDH(pub)
	if err != nil {
		return [32]byte{}, fmt.Errorf("cryptocore: ECDH: %w", err)
	}

	var out [32]byte
	copy(out[:], shared)
	return out, nil
}

// X25519PublicFromScalar computes the X25519 public key (basepoint * scalar)
// for a given 32-byte private scalar.
func X25519PublicFromScalar(scalar [32]byte) ([32]byte, error) {
	priv, err := ecdh.X25519().NewPrivateKey(scalar[:])
	if err != nil {
		return [32]byte{}, fmt.Errorf("cryptocore: invalid X25519 scalar: %w", err)
	}
	var out [32]byte
	copy(out[:], priv.PublicKey().Bytes())
	return out, nil
}

// ComputeViewTag returns the first byte of SHA-256(sharedSecret).
func ComputeViewTag(sharedSecret [32]byte) byte {
	h := HashSHA256(sharedSecret[:])
	return h[0]
}
