package derive

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stealthpay/stealthcore/cryptocore"
	"github.com/stealthpay/stealthcore/metaaddr"
)

func randomScalar(t *testing.T) [32]byte {
	t.Helper()
	b, err := cryptocore.RandomBytes(32)
	require.NoError(t, err)
	var out [32]byte
	copy(out[:], b)
	return out
}

func newRecipient(t *testing.T) (meta metaaddr.MetaAddress, kSeed, vSecret [32]byte) {
	t.Helper()
	kSeed = randomScalar(t)
	vSecret = randomScalar(t)

	K := cryptocore.SpendingPublicKeyFromSeed(kSeed)
	V, err := cryptocore.X25519PublicFromScalar(vSecret)
	require.NoError(t, err)

	return metaaddr.MetaAddress{SpendingKey: K, ViewingKey: V}, kSeed, vSecret
}

func TestStealthPublicPrivateAgree(t *testing.T) {
	meta, kSeed, vSecret := newRecipient(t)
	r := randomScalar(t)

	p, R, viewTag, err := StealthPublic(meta, r)
	require.NoError(t, err)

	sk, err := StealthPrivate(kSeed, vSecret, R)
	require.NoError(t, err)

	var scalar [32]byte
	copy(scalar[:], sk[:32])
	recoveredPub, err := cryptocore.PublicFromScalar(scalar)
	require.NoError(t, err)
	assert.Equal(t, p, recoveredPub)

	assert.True(t, VerifyOwnership(p, R, vSecret, meta.SpendingKey, &viewTag))
	assert.True(t, VerifyOwnership(p, R, vSecret, meta.SpendingKey, nil))
}

func TestVerifyOwnershipRejectsWrongViewTag(t *testing.T) {
	meta, _, vSecret := newRecipient(t)
	r := randomScalar(t)

	p, R, viewTag, err := StealthPublic(meta, r)
	require.NoError(t, err)

	wrongTag := viewTag + 1
	assert.False(t, VerifyOwnership(p, R, vSecret, meta.SpendingKey, &wrongTag))
}

func TestVerifyOwnershipRejectsForeignRecipient(t *testing.T) {
	meta, _, _ := newRecipient(t)
	otherMeta, _, otherVSecret := newRecipient(t)
	r := randomScalar(t)

	p, R, _, err := StealthPublic(meta, r)
	require.NoError(t, err)

	assert.False(t, VerifyOwnership(p, R, otherVSecret, otherMeta.SpendingKey, nil))
}

func TestSignaturesFromRecoveredKeyVerify(t *testing.T) {
	meta, kSeed, vSecret := newRecipient(t)
	r := randomScalar(t)

	p, R, _, err := StealthPublic(meta, r)
	require.NoError(t, err)

	sk, err := StealthPrivate(kSeed, vSecret, R)
	require.NoError(t, err)

	var scalar [32]byte
	copy(scalar[:], sk[:32])

	msg := []byte("claim this stealth payment")
	sig, err := cryptocore.SignWithScalar(msg, scalar)
	require.NoError(t, err)

	assert.True(t, cryptocore.Verify(msg, sig, ed25519.PublicKey(p[:])))
}
