// Package announce implements the fixed 65-byte on-wire announcement record
// [view_tag(1) || ephemeral_pub_key(32) || stealth_address(32)] that lets
// recipients find their own payments in a public announcement stream.
//
// The layout is fixed-width and order-sensitive: view tag first so a
// scanner can reject most records with a single byte compare before
// touching the rest of the record.
package announce

import (
	"fmt"

	"github.com/stealthpay/stealthcore/stealtherr"
)

// Size is the fixed encoded record length in bytes.
const Size = 65

// Record is a decoded announcement entry.
type Record struct {
	ViewTag         byte
	EphemeralPubKey [32]byte
	StealthAddress  [32]byte
}

// Encode renders r into the fixed 65-byte wire layout.
func Encode(r Record) [Size]byte {
	var out [Size]byte
	out[0] = r.ViewTag
	copy(out[1:33], r.EphemeralPubKey[:])
	copy(out[33:65], r.StealthAddress[:])
	return out
}

// Decode parses a wire-format announcement record. Any deviation from the
// fixed 65-byte layout is a decode error.
func Decode(b []byte) (Record, error) {
	if len(b) != Size {
		return Record{}, stealtherr.New(stealtherr.InvalidInput, fmt.Sprintf("announce: expected %d bytes, got %d", Size, len(b)))
	}

	var r Record
	r.ViewTag = b[0]
	copy(r.EphemeralPubKey[:], b[1:33])
	copy(r.StealthAddress[:], b[33:65])
	return r, nil
}
