// Package policy implements POLICY: composing a single logical transfer
// into Standard / Enhanced / Maximum privacy flows — split, pace, and (for
// Maximum) route each part over several independent hops, optionally
// relaying the final hop. Intermediate hop destinations are one-off
// Ed25519 keypairs the sender generates, not stealth addresses; only the
// final hop pays to a stealth address for the recipient.
//
// Each tier is a preset bundle of split/delay/relayer/multi-hop knobs that
// a caller can override individually via Options.
package policy

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/stealthpay/stealthcore/external"
	"github.com/stealthpay/stealthcore/generate"
	"github.com/stealthpay/stealthcore/log"
	"github.com/stealthpay/stealthcore/metaaddr"
	"github.com/stealthpay/stealthcore/relayer"
	"github.com/stealthpay/stealthcore/stealtherr"
)

// Tier is one of the three privacy presets POLICY composes.
type Tier string

const (
	Standard Tier = "standard"
	Enhanced Tier = "enhanced"
	Maximum  Tier = "maximum"
)

// baseFeeMinorUnits is the flat per-transfer fee charged in the ledger's
// native minor unit.
const baseFeeMinorUnits = 5000

// minSplitAmount is the threshold below which a would-be split collapses
// into a single transfer rather than failing outright.
const minSplitAmount = 1_000_000

type tierDefaults struct {
	splitCount uint8
	delay      time.Duration
	useRelayer bool
	multiHop   bool
}

var defaultsByTier = map[Tier]tierDefaults{
	Standard: {splitCount: 1, delay: 0, useRelayer: false, multiHop: false},
	Enhanced: {splitCount: 3, delay: 10 * time.Second, useRelayer: false, multiHop: false},
	Maximum:  {splitCount: 5, delay: 30 * time.Second, useRelayer: true, multiHop: true},
}

// hopCountForMaximum is the number of independent stealth-transfer hops a
// Maximum-tier part is routed through.
const hopCountForMaximum = 3

// RelayProof is the opaque zero-knowledge material needed to route a
// Maximum-tier part's final hop through a relayer: the proof, its public
// inputs, and the shielded-pool nullifiers/commitments/root it spends
// against. Proof generation is a shielded-pool prover's concern, external
// to this core; POLICY only composes the material into a RelayRequest and
// picks who broadcasts it.
type RelayProof struct {
	Proof             []byte
	PublicInputs      [7][32]byte
	Nullifiers        [][32]byte
	OutputCommitments [][32]byte
	MerkleRoot        [32]byte
}

// Options lets a caller override any tier default explicitly.
type Options struct {
	Level      Tier
	SplitCount *uint8
	SplitDelay *time.Duration
	UseRelayer *bool
	Memo       []byte
	RelayProof *RelayProof
}

// TransferResult is the outcome of SendPrivate: one signature per part (for
// a multi-hop part, the signature of its final hop), and the total fee
// across every part and hop.
type TransferResult struct {
	Signatures []string
	TotalFee   uint64
}

// retryAttempts is the number of submission attempts POLICY makes per part
// before surfacing TransferFailed.
const retryAttempts = 3

// retryBackoffBase is the base of the exponential backoff between retry
// attempts: attempt N waits retryBackoffBase * 2^(N-1).
const retryBackoffBase = 1000 * time.Millisecond

// SendPrivate composes and submits a single logical transfer under the
// given privacy options. relayerClient may be nil; if it is, or if
// opts.RelayProof is unset, a Maximum-tier transfer falls back to
// submitting every hop directly through writer instead of relaying the
// final hop.
func SendPrivate(ctx context.Context, sender ed25519.PrivateKey, writer external.LedgerWriter,
	relayers *relayer.Selector, relayerClient external.RelayerClient, recipient string, amount uint64, opts Options) (TransferResult, error) {

	meta, err := metaaddr.Decode(recipient)
	if err != nil {
		return TransferResult{}, stealtherr.New(stealtherr.InvalidRecipient, "send_private: recipient must be a valid meta-address")
	}

	defaults, ok := defaultsByTier[opts.Level]
	if !ok {
		defaults = defaultsByTier[Standard]
	}

	splitCount := defaults.splitCount
	if opts.SplitCount != nil {
		splitCount = *opts.SplitCount
	}
	delay := defaults.delay
	if opts.SplitDelay != nil {
		delay = *opts.SplitDelay
	}
	useRelayer := defaults.useRelayer
	if opts.UseRelayer != nil {
		useRelayer = *opts.UseRelayer
	}

	if splitCount == 0 {
		return TransferResult{}, stealtherr.New(stealtherr.InvalidInput, "send_private: split_count must be >= 1")
	}

	if uint64(splitCount)*minSplitAmount > amount {
		splitCount = 1
	}

	parts := SplitAmount(amount, splitCount)

	result := TransferResult{Signatures: make([]string, 0, len(parts))}

	senderPub := make([]byte, ed25519.PublicKeySize)
	copy(senderPub, sender.Public().(ed25519.PublicKey))

	for i, part := range parts {
		var sig string
		var fee uint64
		var err error

		if useRelayer && defaults.multiHop {
			sig, fee, err = submitMultiHopPart(ctx, meta, part, senderPub, sender, writer, relayers, relayerClient, opts.RelayProof, opts.Memo)
		} else {
			sig, fee, err = submitDirectPart(ctx, meta, part, sender, writer, opts.Memo)
		}
		if err != nil {
			return TransferResult{}, err
		}

		result.Signatures = append(result.Signatures, sig)
		result.TotalFee += fee

		if i < len(parts)-1 && delay > 0 {
			if err := sleepCancellable(ctx, delay); err != nil {
				return result, stealtherr.Wrap(stealtherr.Timeout, "send_private: cancelled between splits", err)
			}
		}
	}

	return result, nil
}

func submitDirectPart(ctx context.Context, meta metaaddr.MetaAddress, amount uint64,
	sender ed25519.PrivateKey, writer external.LedgerWriter, memo []byte) (string, uint64, error) {

	td, err := generate.TransferDataFor(meta, amount)
	if err != nil {
		return "", 0, stealtherr.Wrap(stealtherr.TransferFailed, "send_private: failed to generate stealth address", err)
	}

	var senderAddr [32]byte
	copy(senderAddr[:], sender.Public().(ed25519.PublicKey))

	spec := external.TransferSpec{
		From:    senderAddr,
		To:      td.StealthAddress,
		Amount:  td.Amount,
		Payload: append(append([]byte{}, td.AnnouncementBytes[:]...), memo...),
	}

	sig, err := submitWithRetry(ctx, writer, spec, sender)
	if err != nil {
		return "", 0, stealtherr.Wrap(stealtherr.TransferFailed, "send_private: part submission failed", err)
	}
	return sig, baseFeeMinorUnits, nil
}

// submitMultiHopPart routes one split part through hopCountForMaximum
// independent hops, each one signed by the previous hop's own key and
// terminating at a fresh stealth address for meta. When relayers,
// relayerClient, and proof are all supplied, the final hop is broadcast by
// a selected relayer instead of submitted directly to writer; otherwise
// every hop, including the final one, goes straight through writer.
func submitMultiHopPart(ctx context.Context, meta metaaddr.MetaAddress, amount uint64,
	senderPub []byte, sender ed25519.PrivateKey, writer external.LedgerWriter,
	relayers *relayer.Selector, relayerClient external.RelayerClient, proof *RelayProof, memo []byte) (string, uint64, error) {

	// Intermediate hops are disposable ordinary Ed25519 keypairs the sender
	// itself generates and fully controls — they are routing relays, not
	// claimable stealth addresses, so they hold no meta-address and need no
	// DERIVE-side recovery. Only the final hop's destination is the
	// recipient's real one-time stealth address.
	hopKeys := make([]ed25519.PrivateKey, hopCountForMaximum-1)
	destinations := make([][32]byte, 0, hopCountForMaximum)
	for i := range hopKeys {
		pub, priv, err := ed25519.GenerateKey(nil)
		if err != nil {
			return "", 0, stealtherr.Wrap(stealtherr.TransferFailed, "send_private: failed to generate hop keypair", err)
		}
		hopKeys[i] = priv
		var addr [32]byte
		copy(addr[:], pub)
		destinations = append(destinations, addr)
	}

	finalTD, err := generate.TransferDataFor(meta, amount)
	if err != nil {
		return "", 0, stealtherr.Wrap(stealtherr.TransferFailed, "send_private: failed to generate final hop address", err)
	}
	destinations = append(destinations, finalTD.StealthAddress)

	canRelay := relayers != nil && relayerClient != nil && proof != nil

	var totalFee uint64
	currentSigner := sender
	var currentFrom [32]byte
	copy(currentFrom[:], senderPub)

	var lastSig string
	for i, dest := range destinations {
		isFinalHop := i == len(destinations)-1

		if isFinalHop && canRelay {
			sig, fee, err := submitViaRelayer(ctx, relayers, relayerClient, *proof)
			if err != nil {
				return "", 0, err
			}
			lastSig = sig
			totalFee += fee
			break
		}

		var payload []byte
		if isFinalHop {
			payload = append(append([]byte{}, finalTD.AnnouncementBytes[:]...), memo...)
		}

		spec := external.TransferSpec{From: currentFrom, To: dest, Amount: amount, Payload: payload}

		sig, err := submitWithRetry(ctx, writer, spec, currentSigner)
		if err != nil {
			return "", 0, stealtherr.Wrap(stealtherr.TransferFailed, "send_private: hop submission failed", err)
		}
		lastSig = sig
		totalFee += baseFeeMinorUnits

		if i < len(hopKeys) {
			currentSigner = hopKeys[i]
			currentFrom = dest
		}
	}

	return lastSig, totalFee, nil
}

// submitViaRelayer selects the best-scoring relayer for the pool's default
// criteria, composes a RelayRequest from proof, and submits it. The
// selected relayer's ID and fee both flow into the result: a different
// relayer choice yields a different signature and a different total fee.
func submitViaRelayer(ctx context.Context, relayers *relayer.Selector, relayerClient external.RelayerClient, proof RelayProof) (string, uint64, error) {
	selected, err := relayers.SelectBest(relayer.Criteria{})
	if err != nil {
		return "", 0, stealtherr.Wrap(stealtherr.TransferFailed, "send_private: no relayer available for final hop", err)
	}

	req := external.RelayRequest{
		ID:                relayer.NewCorrelationID(),
		Proof:             proof.Proof,
		PublicInputs:      proof.PublicInputs,
		Nullifiers:        proof.Nullifiers,
		OutputCommitments: proof.OutputCommitments,
		MerkleRoot:        proof.MerkleRoot,
	}

	log.Default().Infow("send_private: submitting final hop via relayer", "relayer_id", selected.ID, "request_id", req.ID)

	resp, err := relayerClient.Submit(ctx, selected.RelayerInfo, req)
	if err != nil {
		return "", 0, stealtherr.Wrap(stealtherr.TransferFailed, "send_private: relayer submission failed", err)
	}

	return resp.Signature, baseFeeMinorUnits + uint64(selected.FeeBps), nil
}

func submitWithRetry(ctx context.Context, writer external.LedgerWriter, spec external.TransferSpec, signer ed25519.PrivateKey) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		sig, err := writer.BuildAndSubmit(ctx, spec, signer)
		if err == nil {
			return sig, nil
		}
		lastErr = err
		log.Default().Warnw("send_private: transient submission failure", "attempt", attempt, "error", err)
		if attempt < retryAttempts {
			backoff := time.Duration(1<<uint(attempt-1)) * retryBackoffBase
			if err := sleepCancellable(ctx, backoff); err != nil {
				return "", err
			}
		}
	}
	return "", lastErr
}

func sleepCancellable(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EstimateTransferFee returns base_fee * split_count, using the tier's
// default split_count. No account-rent term is added for newly created
// accounts, and multi-hop and relayer fees are not included.
func EstimateTransferFee(tier Tier) uint64 {
	defaults, ok := defaultsByTier[tier]
	if !ok {
		defaults = defaultsByTier[Standard]
	}
	return baseFeeMinorUnits * uint64(defaults.splitCount)
}

// SplitAmount divides total into count parts such that they sum exactly to
// total; the last part absorbs the rounding remainder.
func SplitAmount(total uint64, count uint8) []uint64 {
	if count == 0 {
		return nil
	}
	parts := make([]uint64, count)
	per := total / uint64(count)
	var sum uint64
	for i := 0; i < int(count)-1; i++ {
		parts[i] = per
		sum += per
	}
	parts[count-1] = total - sum
	return parts
}
