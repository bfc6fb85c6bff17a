package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	svc, err := NewService(privPEM, pubPEM, 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)
	return svc
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	svc := newTestService(t)

	pair, err := svc.GenerateTokenPair("user-1", true)
	require.NoError(t, err)

	access, err := svc.ValidateTokenOfType(pair.AccessToken, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", access.UserID)
	assert.True(t, access.MustChangePassword)

	refresh, err := svc.ValidateTokenOfType(pair.RefreshToken, TokenTypeRefresh)
	require.NoError(t, err)
	assert.NotEmpty(t, refresh.ID)
	assert.False(t, refresh.MustChangePassword)
}

func TestValidateTokenRejectsWrongType(t *testing.T) {
	svc := newTestService(t)
	pair, err := svc.GenerateTokenPair("user-1", false)
	require.NoError(t, err)

	_, err = svc.ValidateTokenOfType(pair.RefreshToken, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestValidateTokenRejectsExpiredAndForeign(t *testing.T) {
	svc := newTestService(t)
	pair, err := svc.GenerateTokenPair("user-1", false)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = svc.ValidateToken(pair.AccessToken)
	assert.Error(t, err)

	other := newTestService(t)
	_, err = other.ValidateToken(pair.RefreshToken)
	assert.Error(t, err)

	_, err = svc.ValidateToken("")
	assert.Error(t, err)
}

func TestPasswordHelpers(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))

	assert.ErrorIs(t, ValidateNewPassword("short"), ErrWeakPassword)
	assert.NoError(t, ValidateNewPassword("long enough"))

	pw, err := GenerateRandomPassword(16)
	require.NoError(t, err)
	assert.Len(t, pw, 16)
	_, err = GenerateRandomPassword(4)
	assert.Error(t, err)
}
