// Package metaaddr implements the META-ADDR codec: lossless textual
// interchange of a recipient's (spending, viewing) public key pair.
//
// Wire format is "st" + base58(version‖K‖V) over Ed25519/X25519 keys, with
// no chain field: the stealth core is chain-agnostic, and chain selection
// belongs to the external ledger collaborator, not the meta-address itself.
package metaaddr

import (
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/stealthpay/stealthcore/stealtherr"
)

const (
	prefix       = "st"
	version byte = 1
	// payloadLen is version(1) + K(32) + V(32).
	payloadLen = 65
)

// MetaAddress is the recipient's long-lived public identity: a spending
// Ed25519 public key K and a viewing X25519 public key V.
type MetaAddress struct {
	SpendingKey [32]byte
	ViewingKey  [32]byte
}

// Equal compares two meta-addresses by their key material.
func (m MetaAddress) Equal(other MetaAddress) bool {
	return m.SpendingKey == other.SpendingKey && m.ViewingKey == other.ViewingKey
}

// Encode renders a meta-address as "st" + base58(version‖K‖V).
func Encode(m MetaAddress) string {
	payload := make([]byte, 0, payloadLen)
	payload = append(payload, version)
	payload = append(payload, m.SpendingKey[:]...)
	payload = append(payload, m.ViewingKey[:]...)
	return prefix + base58.Encode(payload)
}

// Decode parses a meta-address string produced by Encode.
func Decode(s string) (MetaAddress, error) {
	if len(s) < len(prefix) || s[:len(prefix)] != prefix {
		return MetaAddress{}, stealtherr.New(stealtherr.InvalidInput, "meta-address: invalid prefix")
	}

	payload, err := base58.Decode(s[len(prefix):])
	if err != nil {
		return MetaAddress{}, stealtherr.Wrap(stealtherr.InvalidInput, "meta-address: invalid base58", err)
	}
	if len(payload) != payloadLen {
		return MetaAddress{}, stealtherr.New(stealtherr.InvalidInput, fmt.Sprintf("meta-address: expected %d bytes, got %d", payloadLen, len(payload)))
	}
	if payload[0] != version {
		return MetaAddress{}, stealtherr.New(stealtherr.InvalidInput, "meta-address: unsupported version")
	}

	var m MetaAddress
	copy(m.SpendingKey[:], payload[1:33])
	copy(m.ViewingKey[:], payload[33:65])
	return m, nil
}

// IsValid reports whether s decodes without error; it never panics or
// otherwise surfaces the underlying failure.
func IsValid(s string) bool {
	_, err := Decode(s)
	return err == nil
}
