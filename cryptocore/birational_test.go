package cryptocore

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEd25519ToX25519RoundTripsToValidECDH(t *testing.T) {
	edPub, edPriv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	xPriv, err := Ed25519ToX25519PrivateKey(edPriv)
	require.NoError(t, err)
	xPub, err := Ed25519ToX25519PublicKey(edPub)
	require.NoError(t, err)

	derivedPub, err := X25519PublicFromScalar(xPriv)
	require.NoError(t, err)
	require.Equal(t, xPub, derivedPub)
}
