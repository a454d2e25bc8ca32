// Package external defines the ledger/chain, announcement source, and
// relayer transport boundaries this core depends on but never implements.
// Fakes for these interfaces live only in _test.go files across the repo.
//
// DTO shapes (32-byte addresses, Lamports-style balances, associated-
// token-account fields) are sized to match the Solana account model.
package external

import (
	"context"
	"crypto/ed25519"
)

// AnnouncementRecord is one decoded on-chain announcement plus its ledger
// metadata, as returned by an AnnouncementSource.
type AnnouncementRecord struct {
	ViewTag         byte
	EphemeralPubKey [32]byte
	StealthAddress  [32]byte
	Amount          uint64
	TokenMint       *[32]byte
	Signature       string
	BlockTime       int64
}

// AnnouncementSource fetches a page of announcements from the underlying
// ledger/indexer. fromSlot is inclusive; toSlot, if non-nil, is exclusive
// of the upper bound.
type AnnouncementSource interface {
	Fetch(ctx context.Context, fromSlot uint64, toSlot *uint64, limit int) ([]AnnouncementRecord, error)
}

// AccountInfo is the minimal on-ledger account shape CLAIM and SCAN need to
// reason about rent exemption and ownership.
type AccountInfo struct {
	Owner    [32]byte
	Lamports uint64
	Exists   bool
}

// LedgerReader is the read-only ledger/chain surface.
type LedgerReader interface {
	GetBalance(ctx context.Context, address [32]byte) (uint64, error)
	GetTokenBalance(ctx context.Context, address, mint [32]byte) (uint64, error)
	GetMinimumRentExemption(ctx context.Context, accountSize int) (uint64, error)
	GetAccountInfo(ctx context.Context, address [32]byte) (*AccountInfo, error)
}

// TransferSpec describes a single native-or-token transfer, with an
// optional attached payload (a 65-byte announcement, followed by any memo
// bytes the sender supplied) and an optional associated-token-account
// creation prepended.
type TransferSpec struct {
	From, To     [32]byte
	Amount       uint64
	TokenMint    *[32]byte
	Payload      []byte
	CreateATAFor *[32]byte
}

// LedgerWriter builds, signs, submits, and confirms a transfer.
type LedgerWriter interface {
	BuildAndSubmit(ctx context.Context, spec TransferSpec, signer ed25519.PrivateKey) (signature string, err error)
}

// RelayRequest carries a shielded-pool submission's public material only —
// no sender identity, since the whole point of relaying is to decouple the
// submitter from the transaction the relayer broadcasts on their behalf.
type RelayRequest struct {
	ID                string
	Proof             []byte
	PublicInputs      [7][32]byte
	Nullifiers        [][32]byte
	OutputCommitments [][32]byte
	MerkleRoot        [32]byte
}

// RelayResponse is a relayer's acknowledgement of a submitted request.
type RelayResponse struct {
	Signature string
	BlockTime *int64
}

// RelayerClient submits a RelayRequest to a specific relayer.
type RelayerClient interface {
	Submit(ctx context.Context, relayer RelayerInfo, req RelayRequest) (RelayResponse, error)
}

// RelayerInfo is the minimal relayer identity RelayerClient needs to address
// a submission; the full relayer.Info (with health/scoring fields) embeds
// this shape so relayer.Selector results satisfy RelayerClient.Submit
// directly.
type RelayerInfo struct {
	ID       string
	Endpoint string
	Region   string
	FeeBps   uint32
}
