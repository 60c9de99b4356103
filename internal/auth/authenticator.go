package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/paytungan/paytungan/internal/apperr"
	"github.com/paytungan/paytungan/internal/models"
	"github.com/paytungan/paytungan/internal/storage"
)

// UserStorage defines the interface for user persistence operations.
// This allows the auth service to be independent of the storage implementation.
type UserStorage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
}

// Service signs users in with identity-provider tokens. Users are keyed on
// the provider uid and registered on first sight.
type Service struct {
	idp     IdentityProvider
	storage UserStorage
	logger  *slog.Logger
}

// NewService creates an auth service.
func NewService(idp IdentityProvider, storage UserStorage, logger *slog.Logger) *Service {
	return &Service{
		idp:     idp,
		storage: storage,
		logger:  logger,
	}
}

// DecodeToken verifies a token without touching storage.
func (s *Service) DecodeToken(ctx context.Context, token string) (*models.DecodedToken, error) {
	return s.idp.DecodeToken(ctx, token)
}

// Login returns the user behind token, creating it from the token's uid and
// phone number if this is its first sign-in.
func (s *Service) Login(ctx context.Context, token string) (*models.User, error) {
	decoded, err := s.idp.DecodeToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.storage.GetUserByFirebaseUID(ctx, decoded.UID)
	if err != nil {
		return nil, apperr.Dependency("load user", err)
	}
	if user != nil {
		return user, nil
	}

	user = &models.User{FirebaseUID: decoded.UID, PhoneNumber: decoded.PhoneNumber}
	if err := s.storage.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, storage.ErrConflict) {
			return nil, apperr.Dependency("create user", err)
		}
		// A concurrent first login registered the user.
		user, err = s.storage.GetUserByFirebaseUID(ctx, decoded.UID)
		if err != nil {
			return nil, apperr.Dependency("load user", err)
		}
		if user == nil {
			return nil, errors.New("user conflicted but cannot be found")
		}
		return user, nil
	}

	s.logger.Info("User registered", "user_id", user.ID, "firebase_uid", user.FirebaseUID)
	return user, nil
}

// UserFromToken returns the registered user behind token, or nil if the
// token is valid but its user has never logged in.
func (s *Service) UserFromToken(ctx context.Context, token string) (*models.User, error) {
	decoded, err := s.idp.DecodeToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.UserFor(ctx, decoded)
}

// UserFor returns the registered user for an already decoded token, or nil.
func (s *Service) UserFor(ctx context.Context, decoded *models.DecodedToken) (*models.User, error) {
	user, err := s.storage.GetUserByFirebaseUID(ctx, decoded.UID)
	if err != nil {
		return nil, apperr.Dependency("load user", err)
	}
	return user, nil
}
