package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stealthpay/stealthcore/announce"
	"github.com/stealthpay/stealthcore/cryptocore"
	"github.com/stealthpay/stealthcore/derive"
	"github.com/stealthpay/stealthcore/metaaddr"
	"github.com/stealthpay/stealthcore/stealtherr"
)

func sampleMeta(t *testing.T) metaaddr.MetaAddress {
	meta, _, _ := sampleRecipient(t)
	return meta
}

func sampleRecipient(t *testing.T) (meta metaaddr.MetaAddress, kSeed, vSecret [32]byte) {
	t.Helper()
	kSeedBytes, err := cryptocore.RandomBytes(32)
	require.NoError(t, err)
	vSecretBytes, err := cryptocore.RandomBytes(32)
	require.NoError(t, err)

	copy(kSeed[:], kSeedBytes)
	copy(vSecret[:], vSecretBytes)

	K := cryptocore.SpendingPublicKeyFromSeed(kSeed)
	V, err := cryptocore.X25519PublicFromScalar(vSecret)
	require.NoError(t, err)

	return metaaddr.MetaAddress{SpendingKey: K, ViewingKey: V}, kSeed, vSecret
}

func TestStealthAddressIsPopulated(t *testing.T) {
	meta := sampleMeta(t)
	addr, err := StealthAddress(meta)
	require.NoError(t, err)

	assert.NotEqual(t, [32]byte{}, addr.StealthAddress)
	assert.NotZero(t, addr.CreatedAt)
}

func TestMultipleStealthAddressesAreDistinct(t *testing.T) {
	meta := sampleMeta(t)
	addrs, err := MultipleStealthAddresses(meta, 10)
	require.NoError(t, err)
	require.Len(t, addrs, 10)

	seen := make(map[[32]byte]bool)
	for _, a := range addrs {
		assert.False(t, seen[a.StealthAddress], "stealth addresses must be pairwise distinct")
		seen[a.StealthAddress] = true
	}
}

func TestMultipleStealthAddressesRejectsOutOfRange(t *testing.T) {
	meta := sampleMeta(t)

	_, err := MultipleStealthAddresses(meta, 0)
	require.Error(t, err)
	assert.True(t, stealtherr.Is(err, stealtherr.InvalidInput))

	_, err = MultipleStealthAddresses(meta, 101)
	require.Error(t, err)
	assert.True(t, stealtherr.Is(err, stealtherr.InvalidInput))
}

func TestTransferDataForEncodesAnnouncement(t *testing.T) {
	meta := sampleMeta(t)
	td, err := TransferDataFor(meta, 1_000_000)
	require.NoError(t, err)

	decoded, err := announce.Decode(td.AnnouncementBytes[:])
	require.NoError(t, err)
	assert.Equal(t, td.ViewTag, decoded.ViewTag)
	assert.Equal(t, td.EphemeralPubKey, decoded.EphemeralPubKey)
	assert.Equal(t, td.StealthAddress, decoded.StealthAddress)
	assert.Equal(t, uint64(1_000_000), td.Amount)
}

func TestGeneratedAddressVerifiesForRecipient(t *testing.T) {
	meta, _, vSecret := sampleRecipient(t)
	addr, err := StealthAddress(meta)
	require.NoError(t, err)

	assert.True(t, derive.VerifyOwnership(addr.StealthAddress, addr.EphemeralPubKey, vSecret, meta.SpendingKey, &addr.ViewTag))
}
