package announce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stealthpay/stealthcore/stealtherr"
)

func sampleRecord() Record {
	var r Record
	r.ViewTag = 0x42
	for i := range r.EphemeralPubKey {
		r.EphemeralPubKey[i] = byte(i)
	}
	for i := range r.StealthAddress {
		r.StealthAddress[i] = byte(255 - i)
	}
	return r
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	r := sampleRecord()
	wire := Encode(r)
	assert.Len(t, wire, Size)

	decoded, err := Decode(wire[:])
	require.NoError(t, err)
	assert.Equal(t, r, decoded)
}

func TestEncodeLayout(t *testing.T) {
	r := sampleRecord()
	wire := Encode(r)

	assert.Equal(t, r.ViewTag, wire[0])
	assert.Equal(t, r.EphemeralPubKey[:], wire[1:33])
	assert.Equal(t, r.StealthAddress[:], wire[33:65])
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	_, err := Decode(make([]byte, Size-1))
	require.Error(t, err)
	assert.True(t, stealtherr.Is(err, stealtherr.InvalidInput))

	_, err = Decode(make([]byte, Size+1))
	require.Error(t, err)
	assert.True(t, stealtherr.Is(err, stealtherr.InvalidInput))
}
