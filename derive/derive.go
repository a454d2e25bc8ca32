// Package derive implements DERIVE: the sender-side stealth address
// generation and the recipient-side private-key recovery/ownership check
// that together realize the ECDH agreement at the core of this protocol.
//
// Built over cryptocore's Ed25519/X25519 primitives and scalar/point
// arithmetic.
package derive

import (
	"crypto/ed25519"

	"github.com/stealthpay/stealthcore/cryptocore"
	"github.com/stealthpay/stealthcore/metaaddr"
	"github.com/stealthpay/stealthcore/stealtherr"
)

// StealthPublic is the sender-side derivation. Given the recipient's
// meta-address and a fresh ephemeral scalar r, it computes the one-time
// stealth address P, the X25519 ephemeral public key R = r times the
// X25519 base point (published
// alongside P in the announcement), and the view tag for fast recipient
// filtering.
func StealthPublic(meta metaaddr.MetaAddress, r [32]byte) (p, R [32]byte, viewTag byte, err error) {
	sharedSecret, err := cryptocore.DeriveSharedSecret(r, meta.ViewingKey)
	if err != nil {
		return [32]byte{}, [32]byte{}, 0, stealtherr.Wrap(stealtherr.DerivationFailed, "derive: ECDH with viewing key failed", err)
	}
	defer cryptocore.SecureClear(sharedSecret[:])

	hash := cryptocore.HashSHA256(sharedSecret[:])
	p, err = cryptocore.DeriveStealthPublicPoint(meta.SpendingKey, hash)
	if err != nil {
		return [32]byte{}, [32]byte{}, 0, stealtherr.Wrap(stealtherr.DerivationFailed, "derive: stealth point derivation failed", err)
	}

	R, err = cryptocore.X25519PublicFromScalar(r)
	if err != nil {
		return [32]byte{}, [32]byte{}, 0, stealtherr.Wrap(stealtherr.DerivationFailed, "derive: ephemeral public key derivation failed", err)
	}

	return p, R, cryptocore.ComputeViewTag(sharedSecret), nil
}

// StealthPrivate is the recipient-side derivation: recovers the one-time
// Ed25519 private key that corresponds to a stealth address built for the
// recipient's (kSeed, vSecret) pair and a published ephemeral public key R.
func StealthPrivate(kSeed, vSecret, R [32]byte) (ed25519.PrivateKey, error) {
	sharedSecret, err := cryptocore.DeriveSharedSecret(vSecret, R)
	if err != nil {
		return nil, stealtherr.Wrap(stealtherr.DerivationFailed, "derive: ECDH with ephemeral key failed", err)
	}
	defer cryptocore.SecureClear(sharedSecret[:])

	scalar, err := cryptocore.DeriveStealthPrivateScalar(kSeed, sharedSecret)
	if err != nil {
		return nil, stealtherr.Wrap(stealtherr.DerivationFailed, "derive: private scalar derivation failed", err)
	}
	defer cryptocore.SecureClear(scalar[:])

	pub, err := cryptocore.PublicFromScalar(scalar)
	if err != nil {
		return nil, stealtherr.Wrap(stealtherr.DerivationFailed, "derive: public key derivation failed", err)
	}

	// ed25519.PrivateKey's wire format is seed(32)||pub(32); here the first
	// half holds the raw scalar rather than an RFC 8032 seed, so this key
	// must only ever be consumed by cryptocore.SignWithScalar, never by
	// stdlib ed25519.Sign (which would re-hash it as if it were a seed).
	sk := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
	copy(sk[:32], scalar[:])
	copy(sk[32:], pub[:])
	return sk, nil
}

// VerifyOwnership reports whether the recipient with spending public key k
// and viewing secret vSecret owns the stealth address p announced alongside
// ephemeral public key R. If viewTag is non-nil, the view-tag fast path is
// checked first and a mismatch short-circuits to false without computing
// the full point derivation.
func VerifyOwnership(p, R, vSecret, k [32]byte, viewTag *byte) bool {
	sharedSecret, err := cryptocore.DeriveSharedSecret(vSecret, R)
	if err != nil {
		return false
	}
	defer cryptocore.SecureClear(sharedSecret[:])

	if viewTag != nil && cryptocore.ComputeViewTag(sharedSecret) != *viewTag {
		return false
	}

	hash := cryptocore.HashSHA256(sharedSecret[:])
	expected, err := cryptocore.DeriveStealthPublicPoint(k, hash)
	if err != nil {
		return false
	}

	return cryptocore.ConstantTimeEqual(expected[:], p[:])
}
