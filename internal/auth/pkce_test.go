package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePKCE(t *testing.T) {
	pair, err := GeneratePKCE()
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(pair.Verifier), 43)
	assert.Regexp(t, "^[A-Za-z0-9_-]+$", pair.Verifier)
	assert.NotContains(t, pair.Challenge, "=")

	// The challenge must be the unpadded base64url SHA-256 of the verifier.
	sum := sha256.Sum256([]byte(pair.Verifier))
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), pair.Challenge)

	// Decoding and rehashing round-trips.
	decoded, err := base64.RawURLEncoding.DecodeString(pair.Challenge)
	require.NoError(t, err)
	assert.Equal(t, sum[:], decoded)
}

func TestGeneratePKCE_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		pair, err := GeneratePKCE()
		require.NoError(t, err)
		assert.False(t, seen[pair.Verifier], "verifier repeated")
		seen[pair.Verifier] = true
	}
}

func TestVerifyChallenge(t *testing.T) {
	pair, err := GeneratePKCE()
	require.NoError(t, err)

	assert.True(t, VerifyChallenge(pair.Challenge, pair.Verifier))
	assert.False(t, VerifyChallenge(pair.Challenge, "some-other-verifier"))
	assert.False(t, VerifyChallenge("bogus", pair.Verifier))
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	require.NoError(t, err)
	b, err := GenerateState()
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, "^[A-Za-z0-9_-]+$", a)
}
