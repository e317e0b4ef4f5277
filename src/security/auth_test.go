package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/cryptotax/src/config"
)

func testAuthService(t *testing.T) *AuthService {
	t.Helper()
	prev := config.Cfg
	config.Cfg = &config.AppConfig{AccessTokenExpiry: time.Minute}
	t.Cleanup(func() { config.Cfg = prev })
	return NewAuthService("test-secret-that-is-long-enough-for-hs256")
}

func TestPasswordHashing(t *testing.T) {
	svc := testAuthService(t)

	hash, err := svc.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, svc.CompareHashAndPassword(hash, "correct horse battery staple"))
	assert.Error(t, svc.CompareHashAndPassword(hash, "wrong password"))
}

func TestTokenRoundTrip(t *testing.T) {
	svc := testAuthService(t)

	token, err := svc.GenerateToken("42")
	require.NoError(t, err)

	sub, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", sub)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := testAuthService(t)

	token, err := svc.GenerateToken("42")
	require.NoError(t, err)

	other := NewAuthService("a-different-secret-also-long-enough-here")
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestGenerateRefreshToken(t *testing.T) {
	svc := testAuthService(t)

	a, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	b, err := svc.GenerateRefreshToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.GreaterOrEqual(t, len(a), 43, "32 random bytes base64-encoded")
}
