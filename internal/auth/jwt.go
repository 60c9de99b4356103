package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/paytungan/paytungan/internal/apperr"
	"github.com/paytungan/paytungan/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// IdentityProvider decodes tokens issued by the external identity provider.
// Failures are apperr Unauthenticated errors.
type IdentityProvider interface {
	DecodeToken(ctx context.Context, token string) (*models.DecodedToken, error)
}

// Claims are the identity-token claims the backend relies on. Firebase ID
// tokens carry the uid both in "user_id" and in "sub".
type Claims struct {
	UserID      string `json:"user_id"`
	PhoneNumber string `json:"phone_number,omitempty"`
	jwt.RegisteredClaims
}

// JWTConfig configures token verification. At least one of Secret and
// PublicKeyPEM must be set.
type JWTConfig struct {
	// Secret verifies (and signs) HS256 tokens.
	Secret string

	// PublicKeyPEM verifies RS256 tokens, the shape of provider-issued ID tokens.
	PublicKeyPEM string

	// Issuer and Audience are checked when set.
	Issuer   string
	Audience string

	// TokenDuration is the lifetime of tokens minted by Generate.
	TokenDuration time.Duration
}

// JWTManager verifies identity tokens and mints development tokens.
type JWTManager struct {
	secretKey     []byte
	publicKey     *rsa.PublicKey
	issuer        string
	audience      string
	tokenDuration time.Duration
	methods       []string
}

// Ensure JWTManager implements IdentityProvider
var _ IdentityProvider = (*JWTManager)(nil)

// NewJWTManager creates a JWT manager from cfg.
func NewJWTManager(cfg JWTConfig) (*JWTManager, error) {
	m := &JWTManager{
		issuer:        cfg.Issuer,
		audience:      cfg.Audience,
		tokenDuration: cfg.TokenDuration,
	}
	if m.tokenDuration == 0 {
		m.tokenDuration = time.Hour
	}
	if cfg.Secret != "" {
		m.secretKey = []byte(cfg.Secret)
		m.methods = append(m.methods, jwt.SigningMethodHS256.Alg())
	}
	if cfg.PublicKeyPEM != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("failed to parse token public key: %w", err)
		}
		m.publicKey = key
		m.methods = append(m.methods, jwt.SigningMethodRS256.Alg())
	}
	if len(m.methods) == 0 {
		return nil, errors.New("either a token secret or a public key is required")
	}
	return m, nil
}

// Generate mints an HS256 token for uid. Intended for development and tests;
// production tokens come from the identity provider.
func (m *JWTManager) Generate(uid, phoneNumber string) (string, error) {
	if m.secretKey == nil {
		return "", errors.New("token secret not configured")
	}
	now := time.Now()
	claims := &Claims{
		UserID:      uid,
		PhoneNumber: phoneNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if m.audience != "" {
		claims.Audience = jwt.ClaimStrings{m.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate parses and validates a JWT token, returning the claims if valid.
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods(m.methods), jwt.WithExpirationRequired()}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, m.key, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}

	return claims, nil
}

func (m *JWTManager) key(token *jwt.Token) (any, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if m.secretKey != nil {
			return m.secretKey, nil
		}
	case *jwt.SigningMethodRSA:
		if m.publicKey != nil {
			return m.publicKey, nil
		}
	}
	return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
}

// DecodeToken validates token and returns the identity it carries.
func (m *JWTManager) DecodeToken(_ context.Context, token string) (*models.DecodedToken, error) {
	if token == "" {
		return nil, apperr.Unauthenticated(ErrMissingToken)
	}
	claims, err := m.Validate(token)
	if err != nil {
		return nil, apperr.Unauthenticated(err)
	}
	return &models.DecodedToken{UID: claims.UserID, PhoneNumber: claims.PhoneNumber}, nil
}
