package stealtherr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ScanFailed, "fetch failed", cause)

	require.ErrorIs(t, err, cause)
	assert.True(t, Is(err, ScanFailed))
	assert.False(t, Is(err, Timeout))
	assert.Contains(t, err.Error(), "fetch failed")
	assert.Contains(t, err.Error(), "boom")
}

func TestNewHasNoCause(t *testing.T) {
	err := New(InvalidInput, "bad length")
	assert.Nil(t, err.Unwrap())
	assert.True(t, Is(err, InvalidInput))
}
