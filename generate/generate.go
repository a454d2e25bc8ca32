// Package generate implements GENERATE: the sender-facing façade over
// DERIVE and ANNOUNCE — allocate a fresh ephemeral secret, call DERIVE, and
// bundle the result into the shapes a wallet or POLICY layer actually wants
// to hand off to the ledger.
//
// Built over the derive/announce packages.
package generate

import (
	"time"

	"github.com/stealthpay/stealthcore/announce"
	"github.com/stealthpay/stealthcore/cryptocore"
	"github.com/stealthpay/stealthcore/derive"
	"github.com/stealthpay/stealthcore/metaaddr"
	"github.com/stealthpay/stealthcore/stealtherr"
)

// maxBatch is the upper bound on a single MultipleStealthAddresses call,
// "1 <= n <= 100".
const maxBatch = 100

// Address is a freshly generated one-time receiving address, bundled with
// the ephemeral secret that produced it so a relayer flow can later prove
// sender-side linkage.
type Address struct {
	StealthAddress  [32]byte
	EphemeralPubKey [32]byte
	ViewTag         byte
	EphemeralSecret [32]byte
	CreatedAt       time.Time
}

// TransferData bundles everything a sender needs to build a ledger
// transfer plus its attached announcement.
type TransferData struct {
	StealthAddress    [32]byte
	EphemeralPubKey   [32]byte
	ViewTag           byte
	AnnouncementBytes [announce.Size]byte
	Amount            uint64
}

// StealthAddress allocates a fresh ephemeral secret and derives a one-time
// stealth address for meta. Distinct invocations yield distinct addresses
// with overwhelming probability since r is drawn fresh from a CSPRNG each
// call.
func StealthAddress(meta metaaddr.MetaAddress) (Address, error) {
	r, err := freshScalar()
	if err != nil {
		return Address{}, err
	}

	p, R, viewTag, err := derive.StealthPublic(meta, r)
	if err != nil {
		return Address{}, err
	}

	return Address{
		StealthAddress:  p,
		EphemeralPubKey: R,
		ViewTag:         viewTag,
		EphemeralSecret: r,
		CreatedAt:       time.Now(),
	}, nil
}

// MultipleStealthAddresses generates n pairwise-distinct stealth addresses
// for meta. n must satisfy 1 <= n <= 100.
func MultipleStealthAddresses(meta metaaddr.MetaAddress, n int) ([]Address, error) {
	if n < 1 || n > maxBatch {
		return nil, stealtherr.New(stealtherr.InvalidInput, "generate: n must be between 1 and 100")
	}

	out := make([]Address, 0, n)
	for i := 0; i < n; i++ {
		addr, err := StealthAddress(meta)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// TransferDataFor produces a fresh stealth address plus the encoded
// announcement bytes a ledger transfer should carry as an attached payload.
func TransferDataFor(meta metaaddr.MetaAddress, amount uint64) (TransferData, error) {
	addr, err := StealthAddress(meta)
	if err != nil {
		return TransferData{}, err
	}

	wire := announce.Encode(announce.Record{
		ViewTag:         addr.ViewTag,
		EphemeralPubKey: addr.EphemeralPubKey,
		StealthAddress:  addr.StealthAddress,
	})

	return TransferData{
		StealthAddress:    addr.StealthAddress,
		EphemeralPubKey:   addr.EphemeralPubKey,
		ViewTag:           addr.ViewTag,
		AnnouncementBytes: wire,
		Amount:            amount,
	}, nil
}

func freshScalar() ([32]byte, error) {
	b, err := cryptocore.RandomBytes(32)
	if err != nil {
		return [32]byte{}, stealtherr.Wrap(stealtherr.DerivationFailed, "generate: failed to draw ephemeral scalar", err)
	}
	var out [32]byte
	copy(out[:], b)
	return out, nil
}
