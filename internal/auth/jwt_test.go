package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paytungan/paytungan/internal/apperr"
)

func newManager(t *testing.T, cfg JWTConfig) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(cfg)
	require.NoError(t, err)
	return m
}

func TestGenerateAndDecode(t *testing.T) {
	m := newManager(t, JWTConfig{Secret: "test-secret", Issuer: "paytungan", Audience: "paytungan-app"})

	token, err := m.Generate("firebase-uid-1", "+628111")
	require.NoError(t, err)

	decoded, err := m.DecodeToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "firebase-uid-1", decoded.UID)
	assert.Equal(t, "+628111", decoded.PhoneNumber)
}

func TestDecodeTokenRejects(t *testing.T) {
	m := newManager(t, JWTConfig{Secret: "test-secret", Issuer: "paytungan"})
	other := newManager(t, JWTConfig{Secret: "other-secret", Issuer: "paytungan"})
	wrongIssuer := newManager(t, JWTConfig{Secret: "test-secret", Issuer: "someone-else"})
	expired := newManager(t, JWTConfig{Secret: "test-secret", Issuer: "paytungan", TokenDuration: -time.Minute})

	foreign, err := other.Generate("uid", "")
	require.NoError(t, err)
	misissued, err := wrongIssuer.Generate("uid", "")
	require.NoError(t, err)
	stale, err := expired.Generate("uid", "")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"wrong secret", foreign},
		{"wrong issuer", misissued},
		{"expired", stale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.DecodeToken(context.Background(), tt.token)
			assert.True(t, apperr.Is(err, apperr.KindUnauthenticated), "got %v", err)
		})
	}
}

func TestValidateFallsBackToSubject(t *testing.T) {
	m := newManager(t, JWTConfig{Secret: "test-secret"})
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "sub-uid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "sub-uid", claims.UserID)
}

func TestRS256Tokens(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	m := newManager(t, JWTConfig{PublicKeyPEM: string(publicPEM), Audience: "paytungan-app"})

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, &Claims{
		UserID:      "firebase-uid-2",
		PhoneNumber: "+628222",
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{"paytungan-app"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(key)
	require.NoError(t, err)

	decoded, err := m.DecodeToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "firebase-uid-2", decoded.UID)

	t.Run("HS256 is not accepted without a secret", func(t *testing.T) {
		hs, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: "x"}).SignedString(publicPEM)
		require.NoError(t, err)
		_, err = m.Validate(hs)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("Generate needs a secret", func(t *testing.T) {
		_, err := m.Generate("uid", "")
		assert.Error(t, err)
	})
}

func TestNewJWTManagerRequiresKey(t *testing.T) {
	_, err := NewJWTManager(JWTConfig{})
	assert.Error(t, err)

	_, err = NewJWTManager(JWTConfig{PublicKeyPEM: "not a pem"})
	assert.Error(t, err)
}
