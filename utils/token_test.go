package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensRoundTrip(t *testing.T) {
	t.Setenv("JWT_ACCESS_KEY", "access-secret")
	t.Setenv("JWT_REFRESH_KEY", "refresh-secret")
	t.Setenv("JWT_ACCESS_EXPIRE", "15")

	tokens, err := GenerateTokens("42", true)
	require.NoError(t, err)

	claims, err := CheckAndExtractTokenMetadata(tokens.Access, "JWT_ACCESS_KEY")
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Id)
	assert.True(t, claims.Otp)
	assert.NotZero(t, claims.Exp)

	_, err = CheckAndExtractTokenMetadata(tokens.Access, "JWT_REFRESH_KEY")
	assert.Error(t, err, "access token must not verify with the refresh key")

	_, err = CheckAndExtractTokenMetadata("garbage", "JWT_ACCESS_KEY")
	assert.Error(t, err)
}
