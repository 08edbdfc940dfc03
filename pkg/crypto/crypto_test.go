package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery staple", hash)

	require.True(t, VerifyPassword(hash, "correct horse battery staple"))
	require.False(t, VerifyPassword(hash, "wrong password"))
}

func TestHashTokenIsDeterministic(t *testing.T) {
	// Refresh tokens are far longer than bcrypt's 72-byte input limit, so
	// they get a SHA-256 digest instead.
	token := strings.Repeat("header.payload.signature", 10)

	first := HashToken(token)
	second := HashToken(token)
	require.Equal(t, first, second)
	require.Len(t, first, 64)
	require.NotEqual(t, first, HashToken(token+"x"))
}

func TestTokensEqual(t *testing.T) {
	a := HashToken("token-a")
	require.True(t, TokensEqual(a, HashToken("token-a")))
	require.False(t, TokensEqual(a, HashToken("token-b")))
	require.False(t, TokensEqual(a, ""))
}

func TestGenerateTokens(t *testing.T) {
	token, err := GenerateToken(32)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	other, err := GenerateToken(32)
	require.NoError(t, err)
	require.NotEqual(t, token, other)

	hexToken, err := GenerateHexToken(32)
	require.NoError(t, err)
	require.Len(t, hexToken, 64)
}
