package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCallbackToken = errors.New("invalid callback token")

// CallbackVerifier checks the verification token the payment gateway sends
// with every callback. Only a bcrypt hash of the token is configured.
type CallbackVerifier struct {
	hash []byte
}

// NewCallbackVerifier creates a verifier for a bcrypt hash.
func NewCallbackVerifier(hash string) (*CallbackVerifier, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid callback token hash: %w", err)
	}
	return &CallbackVerifier{hash: []byte(hash)}, nil
}

// HashCallbackToken hashes a callback token for configuration.
// bcrypt only considers tokens of at most 72 bytes.
func HashCallbackToken(token string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash callback token: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether token matches the configured hash.
func (v *CallbackVerifier) Verify(token string) error {
	if token == "" {
		return ErrInvalidCallbackToken
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(token)); err != nil {
		return ErrInvalidCallbackToken
	}
	return nil
}
