// Package claim implements CLAIM: given an owned payment, re-derive its
// private key, build a transfer to a destination, honor the rent floor,
// and surface structured failures.
//
// Built over the derive package's private-key recovery and the external
// ledger collaborator interfaces.
package claim

import (
	"context"
	"fmt"

	"github.com/stealthpay/stealthcore/cryptocore"
	"github.com/stealthpay/stealthcore/derive"
	"github.com/stealthpay/stealthcore/external"
	"github.com/stealthpay/stealthcore/log"
	"github.com/stealthpay/stealthcore/scan"
	"github.com/stealthpay/stealthcore/stealtherr"
)

const claimedAccountBytes = 0

// Result is the outcome of a successful claim.
type Result struct {
	Signature   string
	Amount      uint64
	Destination [32]byte
	Confirmed   bool
}

// Claim re-derives payment's signing keypair, verifies it against the
// announced stealth address, and submits a transfer of the claimable
// balance to destination (or to the derived keypair's own address when
// destination is nil).
func Claim(ctx context.Context, reader external.LedgerReader, writer external.LedgerWriter,
	payment scan.Payment, kSeed, vSecret [32]byte, destination *[32]byte) (Result, error) {

	if payment.Claimed {
		return Result{}, stealtherr.New(stealtherr.ClaimFailed, "already claimed")
	}

	sk, err := derive.StealthPrivate(kSeed, vSecret, payment.EphemeralPubKey)
	if err != nil {
		return Result{}, stealtherr.Wrap(stealtherr.ClaimFailed, "failed to derive stealth private key", err)
	}
	defer cryptocore.SecureClear(sk)

	var derivedPub [32]byte
	copy(derivedPub[:], sk[32:])
	if !cryptocore.ConstantTimeEqual(derivedPub[:], payment.StealthAddress[:]) {
		return Result{}, stealtherr.New(stealtherr.ClaimFailed, "derived key mismatch")
	}

	dest := derivedPub
	if destination != nil {
		dest = *destination
	}

	var amount uint64
	var createATAFor *[32]byte

	if payment.TokenMint == nil {
		balance, err := reader.GetBalance(ctx, payment.StealthAddress)
		if err != nil {
			return Result{}, stealtherr.Wrap(stealtherr.ClaimFailed, "failed to query balance", err)
		}
		if balance == 0 {
			return Result{}, stealtherr.New(stealtherr.ClaimFailed, "no balance")
		}

		rentFloor, err := reader.GetMinimumRentExemption(ctx, claimedAccountBytes)
		if err != nil {
			return Result{}, stealtherr.Wrap(stealtherr.ClaimFailed, "failed to query rent exemption", err)
		}
		if balance <= rentFloor {
			return Result{}, stealtherr.New(stealtherr.ClaimFailed, "below rent exemption")
		}
		amount = balance - rentFloor
	} else {
		tokenBalance, err := reader.GetTokenBalance(ctx, payment.StealthAddress, *payment.TokenMint)
		if err != nil {
			return Result{}, stealtherr.Wrap(stealtherr.ClaimFailed, "failed to query token balance", err)
		}
		if tokenBalance == 0 {
			return Result{}, stealtherr.New(stealtherr.ClaimFailed, "no balance")
		}
		amount = tokenBalance

		info, err := reader.GetAccountInfo(ctx, dest)
		if err != nil {
			return Result{}, stealtherr.Wrap(stealtherr.ClaimFailed, "failed to query destination account", err)
		}
		if info == nil || !info.Exists {
			createATAFor = &dest
		}
	}

	spec := external.TransferSpec{
		From:         payment.StealthAddress,
		To:           dest,
		Amount:       amount,
		TokenMint:    payment.TokenMint,
		CreateATAFor: createATAFor,
	}

	sig, err := writer.BuildAndSubmit(ctx, spec, sk)
	if err != nil {
		return Result{}, stealtherr.Wrap(stealtherr.ConfirmationFailed, "failed to submit claim transfer", err)
	}

	log.Default().Infow("claim: submitted", "signature", sig, "amount", amount, "destination", fmt.Sprintf("%x", dest))

	return Result{Signature: sig, Amount: amount, Destination: dest, Confirmed: true}, nil
}

// EstimateFee returns base_fee, plus a rent-exemption term when a token
// account would need to be created at destination.
func EstimateFee(ctx context.Context, reader external.LedgerReader, payment scan.Payment, destination *[32]byte) (uint64, error) {
	const baseFee = 5000

	if payment.TokenMint == nil || destination == nil {
		return baseFee, nil
	}

	info, err := reader.GetAccountInfo(ctx, *destination)
	if err != nil {
		return 0, stealtherr.Wrap(stealtherr.ClaimFailed, "estimate_fee: failed to query destination account", err)
	}
	if info != nil && info.Exists {
		return baseFee, nil
	}

	rent, err := reader.GetMinimumRentExemption(ctx, tokenAccountBytes)
	if err != nil {
		return 0, stealtherr.Wrap(stealtherr.ClaimFailed, "estimate_fee: failed to query rent exemption", err)
	}
	return baseFee + rent, nil
}

// tokenAccountBytes is the account size used to size rent exemption for a
// newly created associated token account.
const tokenAccountBytes = 165
