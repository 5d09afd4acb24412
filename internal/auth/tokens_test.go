package auth

import (
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabstash/tabstash-server/internal/domain"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService(testKeyHex, 15*time.Minute, 720*time.Hour)
	require.NoError(t, err)
	return svc
}

func testUser() *domain.User {
	return &domain.User{
		Entity:   domain.Entity{ID: "user-abc"},
		Username: "alice",
	}
}

func TestNewTokenService_InvalidKey(t *testing.T) {
	_, err := NewTokenService("too-short", time.Minute, time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService(strings.Repeat("z", 64), time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestGenerateAndVerifyAccessToken(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v4.local."))

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-abc", claims.UserID)
	assert.Equal(t, "user-abc", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.True(t, strings.HasPrefix(claims.TokenID, "token-"))
}

func TestVerifyAccessToken_Expired(t *testing.T) {
	svc, err := NewTokenService(testKeyHex, -time.Minute, time.Hour)
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestVerifyAccessToken_WrongKey(t *testing.T) {
	svc := newTestTokenService(t)
	token, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)

	otherKey := strings.Repeat("ff", 32)
	other, err := NewTokenService(otherKey, time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = other.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestVerifyAccessToken_Garbage(t *testing.T) {
	svc := newTestTokenService(t)

	_, err := svc.VerifyAccessToken("v4.local.garbage")
	assert.Error(t, err)
}

func TestGenerateRefreshToken(t *testing.T) {
	svc := newTestTokenService(t)

	t1, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	t2, err := svc.GenerateRefreshToken()
	require.NoError(t, err)

	assert.NotEqual(t, t1, t2)
}

func TestHashRefreshToken(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.GenerateRefreshToken()
	require.NoError(t, err)

	hash := HashRefreshToken(token)
	// Deterministic and hex-encoded.
	assert.Equal(t, hash, HashRefreshToken(token))
	_, err = hex.DecodeString(hash)
	assert.NoError(t, err)

	// Tokens that aren't valid base64 still hash deterministically.
	assert.Equal(t, HashRefreshToken("not base64 !!"), HashRefreshToken("not base64 !!"))
}
