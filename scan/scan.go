// Package scan implements SCAN: converting an external stream of
// announcements into a stream of owned StealthPayment values, with a
// view-tag fast path, full ownership verification, optional token-mint
// filtering, a balance-based claimed probe, and a polling subscription.
//
// Built over the derive package's VerifyOwnership and the external
// collaborator interfaces.
package scan

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stealthpay/stealthcore/announce"
	"github.com/stealthpay/stealthcore/cryptocore"
	"github.com/stealthpay/stealthcore/derive"
	"github.com/stealthpay/stealthcore/external"
	"github.com/stealthpay/stealthcore/log"
	"github.com/stealthpay/stealthcore/stealtherr"
)

const (
	defaultLimit        = 100
	subscriptionLimit   = 10
	subscriptionPoll    = 5 * time.Second
	claimedAccountBytes = 0
)

// Options configures a single Scan call.
type Options struct {
	FromSlot       *uint64
	ToSlot         *uint64
	Limit          int
	TokenMints     [][32]byte
	IncludeClaimed bool
}

// Payment is a detected incoming payment, enriched with the announcement's
// ledger metadata and a claimed heuristic (see Claimed's doc comment).
type Payment struct {
	StealthAddress, EphemeralPubKey [32]byte
	ViewTag                         byte
	Amount                          uint64
	TokenMint                       *[32]byte
	Signature                       string
	BlockTime                       int64
	// Claimed is a heuristic, not a protocol guarantee: it is inferred from
	// balance <= rent floor at scan time. A later reorg or partial transfer
	// could make this stale between scans.
	Claimed bool
}

// Scanner holds the recipient's secret viewing material and its scan
// cursor for the scanner's lifetime.
type Scanner struct {
	source external.AnnouncementSource
	reader external.LedgerReader

	vSecret [32]byte
	k       [32]byte

	mu              sync.Mutex
	lastScannedSlot uint64
}

// New builds a Scanner bound to a recipient's (vSecret, k) and an
// announcement/ledger source pair.
func New(source external.AnnouncementSource, reader external.LedgerReader, vSecret, k [32]byte) *Scanner {
	return &Scanner{source: source, reader: reader, vSecret: vSecret, k: k}
}

// LastScannedSlot returns the scanner's current cursor.
func (s *Scanner) LastScannedSlot() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastScannedSlot
}

// Scan fetches one batch of announcements and returns the owned payments
// among them, in source order. A single malformed or unowned record never
// aborts the batch; a failure of the announcement source, or of the ledger
// reader during the claimed probe, surfaces as ScanFailed.
func (s *Scanner) Scan(ctx context.Context, opts Options) ([]Payment, error) {
	limit := opts.Limit
	if limit == 0 {
		limit = defaultLimit
	}

	fromSlot := s.LastScannedSlot()
	if opts.FromSlot != nil {
		fromSlot = *opts.FromSlot
	}

	records, err := s.source.Fetch(ctx, fromSlot, opts.ToSlot, limit)
	if err != nil {
		return nil, stealtherr.Wrap(stealtherr.ScanFailed, "scan: fetch failed", err)
	}

	payments := make([]Payment, 0, len(records))
	var maxBlockTime int64 = -1
	dropped := 0

	for _, rec := range records {
		// Re-encode/decode to enforce the same fixed-layout validation a
		// wire-level announcement would go through, enforcing the
		// "decode; on decode error, drop and count".
		wire := announce.Encode(announce.Record{
			ViewTag:         rec.ViewTag,
			EphemeralPubKey: rec.EphemeralPubKey,
			StealthAddress:  rec.StealthAddress,
		})
		decoded, err := announce.Decode(wire[:])
		if err != nil {
			log.Default().Warnw("scan: dropped malformed announcement", "signature", rec.Signature)
			dropped++
			continue
		}

		sharedSecret, err := cryptocore.DeriveSharedSecret(s.vSecret, decoded.EphemeralPubKey)
		if err != nil {
			log.Default().Warnw("scan: dropped announcement with invalid ephemeral key", "signature", rec.Signature)
			dropped++
			continue
		}
		tag := cryptocore.ComputeViewTag(sharedSecret)
		cryptocore.SecureClear(sharedSecret[:])

		if tag != decoded.ViewTag {
			log.Default().Debugw("scan: view_tag_miss", "signature", rec.Signature)
			continue
		}

		if !derive.VerifyOwnership(decoded.StealthAddress, decoded.EphemeralPubKey, s.vSecret, s.k, &decoded.ViewTag) {
			continue
		}

		if len(opts.TokenMints) > 0 && !mintAllowed(rec.TokenMint, opts.TokenMints) {
			continue
		}

		claimed, err := s.isClaimed(ctx, decoded.StealthAddress)
		if err != nil {
			return nil, stealtherr.Wrap(stealtherr.ScanFailed, "scan: claimed probe failed", err)
		}
		if claimed && !opts.IncludeClaimed {
			continue
		}

		if rec.BlockTime > maxBlockTime {
			maxBlockTime = rec.BlockTime
		}

		payments = append(payments, Payment{
			StealthAddress:  decoded.StealthAddress,
			EphemeralPubKey: decoded.EphemeralPubKey,
			ViewTag:         decoded.ViewTag,
			Amount:          rec.Amount,
			TokenMint:       rec.TokenMint,
			Signature:       rec.Signature,
			BlockTime:       rec.BlockTime,
			Claimed:         claimed,
		})
	}

	if maxBlockTime >= 0 {
		s.advanceCursor(uint64(maxBlockTime))
	}

	log.Default().Infow("scan: batch complete", "fetched", len(records), "kept", len(payments), "dropped", dropped)
	return payments, nil
}

func (s *Scanner) advanceCursor(candidate uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if candidate > s.lastScannedSlot {
		s.lastScannedSlot = candidate
	}
}

func (s *Scanner) isClaimed(ctx context.Context, address [32]byte) (bool, error) {
	balance, err := s.reader.GetBalance(ctx, address)
	if err != nil {
		return false, err
	}
	rentFloor, err := s.reader.GetMinimumRentExemption(ctx, claimedAccountBytes)
	if err != nil {
		return false, err
	}
	return balance <= rentFloor, nil
}

func mintAllowed(mint *[32]byte, allowed [][32]byte) bool {
	for _, m := range allowed {
		if mint == nil {
			continue
		}
		if *mint == m {
			return true
		}
	}
	return false
}

// Unsubscribe stops a subscription's polling loop and waits for any
// in-flight iteration to settle. Calling it more than once is a no-op.
type Unsubscribe func()

// Subscribe spawns a cooperative polling task that scans every ~5 seconds
// and delivers each new payment to callback in arrival order. Errors from
// callback are caught and logged, never propagated. Multiple subscribers
// may coexist; each gets its own task.
func (s *Scanner) Subscribe(ctx context.Context, callback func(Payment)) Unsubscribe {
	ctx, cancel := context.WithCancel(ctx)
	var once sync.Once
	var wg sync.WaitGroup

	// Each poll refetches from the cursor inclusively, so a payment already
	// delivered can come back; deliver each signature only once.
	delivered := make(map[string]bool)
	onPayment := func(p Payment) {
		if delivered[p.Signature] {
			return
		}
		delivered[p.Signature] = true
		callback(p)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			ticker := time.NewTicker(subscriptionPoll)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					s.pollOnce(gctx, onPayment)
				}
			}
		})
		_ = g.Wait()
	}()

	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}

func (s *Scanner) pollOnce(ctx context.Context, callback func(Payment)) {
	payments, err := s.Scan(ctx, Options{Limit: subscriptionLimit})
	if err != nil {
		log.Default().Warnw("scan: subscription poll failed", "error", err)
		return
	}
	for _, p := range payments {
		deliver(callback, p)
	}
}

func deliver(callback func(Payment), p Payment) {
	defer func() {
		if r := recover(); r != nil {
			log.Default().Errorw("scan: subscription callback panicked", "recovered", r)
		}
	}()
	callback(p)
}
