package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueAndValidateJWT(t *testing.T) {
	token, err := IssueJWT("secret", "u1", true, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT(token, "secret")
	require.NoError(t, err)
	require.Equal(t, "u1", claims.Subject)
	require.True(t, claims.Admin)
}

func TestValidateJWTWrongSecret(t *testing.T) {
	token, err := IssueJWT("secret", "u1", false, time.Hour)
	require.NoError(t, err)

	_, err = ValidateJWT(token, "other-secret")
	require.Error(t, err)
}

func TestValidateJWTExpired(t *testing.T) {
	token, err := IssueJWT("secret", "u1", false, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateJWT(token, "secret")
	require.Error(t, err)
}
