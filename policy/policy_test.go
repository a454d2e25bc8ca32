package policy

import (
	"context"
	"crypto/ed25519"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stealthpay/stealthcore/cryptocore"
	"github.com/stealthpay/stealthcore/external"
	"github.com/stealthpay/stealthcore/metaaddr"
	"github.com/stealthpay/stealthcore/relayer"
)

type recordingWriter struct {
	mu        sync.Mutex
	submitted []external.TransferSpec
	failFirst int
	calls     int
}

func (w *recordingWriter) BuildAndSubmit(ctx context.Context, spec external.TransferSpec, signer ed25519.PrivateKey) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.calls <= w.failFirst {
		return "", assertTransientErr{}
	}
	w.submitted = append(w.submitted, spec)
	return "sig", nil
}

type assertTransientErr struct{}

func (assertTransientErr) Error() string { return "transient ledger failure" }

func sampleRecipientMeta(t *testing.T) string {
	t.Helper()
	kSeedBytes, err := cryptocore.RandomBytes(32)
	require.NoError(t, err)
	vSecretBytes, err := cryptocore.RandomBytes(32)
	require.NoError(t, err)
	var kSeed, vSecret [32]byte
	copy(kSeed[:], kSeedBytes)
	copy(vSecret[:], vSecretBytes)

	K := cryptocore.SpendingPublicKeyFromSeed(kSeed)
	V, err := cryptocore.X25519PublicFromScalar(vSecret)
	require.NoError(t, err)

	return metaaddr.Encode(metaaddr.MetaAddress{SpendingKey: K, ViewingKey: V})
}

func TestSplitAmountAccountingInvariant(t *testing.T) {
	parts := SplitAmount(10_000_000_000, 3)
	require.Len(t, parts, 3)
	assert.Equal(t, []uint64{3_333_333_333, 3_333_333_333, 3_333_333_334}, parts)

	var sum uint64
	for _, p := range parts {
		sum += p
	}
	assert.Equal(t, uint64(10_000_000_000), sum)
}

func TestSendPrivateRejectsPlainPublicKey(t *testing.T) {
	_, sender, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	writer := &recordingWriter{}

	plainPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	_, err = SendPrivate(context.Background(), sender, writer, nil, nil, string(plainPub), 1000, Options{Level: Standard})
	require.Error(t, err)
}

func TestSendPrivateStandardTierSingleTransfer(t *testing.T) {
	_, sender, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	writer := &recordingWriter{}
	recipient := sampleRecipientMeta(t)

	result, err := SendPrivate(context.Background(), sender, writer, nil, nil, recipient, 5_000_000, Options{Level: Standard})
	require.NoError(t, err)
	assert.Len(t, result.Signatures, 1)
	assert.Equal(t, uint64(baseFeeMinorUnits), result.TotalFee)
}

func TestSendPrivateEnhancedTierSplitsIntoThree(t *testing.T) {
	_, sender, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	writer := &recordingWriter{}
	recipient := sampleRecipientMeta(t)

	noDelay := time.Duration(0)
	result, err := SendPrivate(context.Background(), sender, writer, nil, nil, recipient, 9_000_000, Options{
		Level:      Enhanced,
		SplitDelay: &noDelay,
	})
	require.NoError(t, err)
	assert.Len(t, result.Signatures, 3)
	assert.Equal(t, uint64(baseFeeMinorUnits*3), result.TotalFee)
}

func TestSendPrivateCollapsesSmallAmountToSingleTransfer(t *testing.T) {
	_, sender, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	writer := &recordingWriter{}
	recipient := sampleRecipientMeta(t)

	// Enhanced defaults to split_count=3, but 3*minSplitAmount > amount here,
	// so the split collapses to a single transfer instead of failing.
	result, err := SendPrivate(context.Background(), sender, writer, nil, nil, recipient, 1_000_000, Options{Level: Enhanced})
	require.NoError(t, err)
	assert.Len(t, result.Signatures, 1)
}

func TestSendPrivateRetriesTransientFailures(t *testing.T) {
	_, sender, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	writer := &recordingWriter{failFirst: 2}
	recipient := sampleRecipientMeta(t)

	result, err := SendPrivate(context.Background(), sender, writer, nil, nil, recipient, 5_000_000, Options{Level: Standard})
	require.NoError(t, err)
	assert.Len(t, result.Signatures, 1)
	assert.Equal(t, 3, writer.calls)
}

func TestSendPrivateMaximumTierRoutesThroughHops(t *testing.T) {
	_, sender, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	writer := &recordingWriter{}
	recipient := sampleRecipientMeta(t)

	noDelay := time.Duration(0)
	// No relayers/relayerClient/proof supplied: every hop, including the
	// final one, falls back to a direct ledger transfer.
	result, err := SendPrivate(context.Background(), sender, writer, nil, nil, recipient, 25_000_000, Options{
		Level:      Maximum,
		SplitDelay: &noDelay,
	})
	require.NoError(t, err)
	// Maximum defaults to split_count=5; each part routes through
	// hopCountForMaximum (3) independent transfers.
	assert.Len(t, result.Signatures, 5)
	assert.Equal(t, 5*hopCountForMaximum, len(writer.submitted))
}

type recordingRelayerClient struct {
	mu        sync.Mutex
	submitted []external.RelayRequest
	relayers  []external.RelayerInfo
}

func (c *recordingRelayerClient) Submit(ctx context.Context, r external.RelayerInfo, req external.RelayRequest) (external.RelayResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitted = append(c.submitted, req)
	c.relayers = append(c.relayers, r)
	return external.RelayResponse{Signature: "relayed-" + req.ID}, nil
}

func TestSendPrivateMaximumTierRelaysFinalHop(t *testing.T) {
	_, sender, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	writer := &recordingWriter{}
	recipient := sampleRecipientMeta(t)
	relayerClient := &recordingRelayerClient{}

	pool := relayer.NewSelector([]relayer.Info{
		{
			RelayerInfo: external.RelayerInfo{ID: "fast-low-fee", Endpoint: "https://relay.example/a", FeeBps: 10},
			Health:      relayer.Health{SuccessRate: 0.99, LatencyMs: 50, Online: true},
		},
		{
			RelayerInfo: external.RelayerInfo{ID: "slow-high-fee", Endpoint: "https://relay.example/b", FeeBps: 50},
			Health:      relayer.Health{SuccessRate: 0.80, LatencyMs: 400, Online: true},
		},
	})

	noDelay := time.Duration(0)
	proof := &RelayProof{Proof: []byte("zk-proof"), MerkleRoot: [32]byte{1, 2, 3}}

	result, err := SendPrivate(context.Background(), sender, writer, pool, relayerClient, recipient, 25_000_000, Options{
		Level:      Maximum,
		SplitDelay: &noDelay,
		RelayProof: proof,
	})
	require.NoError(t, err)

	// Each of the 5 split parts relays only its final hop; the other
	// hopCountForMaximum-1 hops still go through the ledger writer.
	assert.Len(t, result.Signatures, 5)
	assert.Equal(t, 5*(hopCountForMaximum-1), len(writer.submitted))
	require.Len(t, relayerClient.submitted, 5)

	// The highest-scoring relayer ("fast-low-fee") is the one selected and
	// actually addressed, and its fee is reflected in the total.
	for _, r := range relayerClient.relayers {
		assert.Equal(t, "fast-low-fee", r.ID)
	}
	for i, sig := range result.Signatures {
		assert.Equal(t, "relayed-"+relayerClient.submitted[i].ID, sig)
	}
	assert.Equal(t, uint64(5*(hopCountForMaximum-1)*baseFeeMinorUnits+5*(baseFeeMinorUnits+10)), result.TotalFee)

	// Every relayed part minted its own correlation ID via
	// relayer.NewCorrelationID, and the proof material made it through.
	seenIDs := map[string]bool{}
	for _, req := range relayerClient.submitted {
		assert.NotEmpty(t, req.ID)
		assert.False(t, seenIDs[req.ID], "correlation IDs must be unique per relayed hop")
		seenIDs[req.ID] = true
		assert.Equal(t, proof.Proof, req.Proof)
		assert.Equal(t, proof.MerkleRoot, req.MerkleRoot)
	}
}

func TestSendPrivateMaximumTierWithoutRelayClientFallsBack(t *testing.T) {
	_, sender, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	writer := &recordingWriter{}
	recipient := sampleRecipientMeta(t)

	pool := relayer.NewSelector([]relayer.Info{
		{RelayerInfo: external.RelayerInfo{ID: "only-one", FeeBps: 10}, Health: relayer.Health{SuccessRate: 0.9, Online: true}},
	})

	noDelay := time.Duration(0)
	singleSplit := uint8(1)
	// relayers is supplied but relayerClient and RelayProof are not: the
	// selected relayer must have no effect, and every hop goes to writer.
	result, err := SendPrivate(context.Background(), sender, writer, pool, nil, recipient, 5_000_000, Options{
		Level:      Maximum,
		SplitDelay: &noDelay,
		SplitCount: &singleSplit,
	})
	require.NoError(t, err)
	assert.Len(t, result.Signatures, 1)
	assert.Equal(t, hopCountForMaximum, len(writer.submitted))
}
