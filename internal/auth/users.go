package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/paytungan/paytungan/internal/apperr"
	"github.com/paytungan/paytungan/internal/models"
	"github.com/paytungan/paytungan/internal/storage"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_.]{3,30}$`)

// Users manages user profiles.
type Users struct {
	store storage.UserStore
}

// NewUsers creates a Users service.
func NewUsers(store storage.UserStore) *Users {
	return &Users{store: store}
}

// Get returns a user by id.
func (u *Users) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := u.store.GetUser(ctx, id)
	return found(user, err, "user", id)
}

// GetByUsername returns a user by username.
func (u *Users) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := u.store.GetUserByUsername(ctx, strings.ToLower(username))
	return found(user, err, "user", username)
}

// GetByFirebaseUID returns a user by provider uid.
func (u *Users) GetByFirebaseUID(ctx context.Context, uid string) (*models.User, error) {
	user, err := u.store.GetUserByFirebaseUID(ctx, uid)
	return found(user, err, "user", uid)
}

// List returns users matching any of the filters in spec.
func (u *Users) List(ctx context.Context, spec models.GetUserListSpec) ([]*models.User, error) {
	users, err := u.store.ListUsers(ctx, spec)
	if err != nil {
		return nil, apperr.Dependency("list users", err)
	}
	return users, nil
}

// Create registers a user.
func (u *Users) Create(ctx context.Context, spec models.CreateUserSpec) (*models.User, error) {
	if spec.FirebaseUID == "" {
		return nil, apperr.Validation("firebase uid is required")
	}
	username, err := normalizeUsername(spec.Username)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirebaseUID:  spec.FirebaseUID,
		PhoneNumber:  spec.PhoneNumber,
		Username:     username,
		Name:         spec.Name,
		Email:        spec.Email,
		ProfileImage: spec.ProfileImage,
	}
	if err := u.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, apperr.Validation("user already exists")
		}
		return nil, apperr.Dependency("create user", err)
	}
	return user, nil
}

// Update changes the profile of the user identified by spec.FirebaseUID.
// Empty fields are left unchanged.
func (u *Users) Update(ctx context.Context, spec models.UpdateUserSpec) (*models.User, error) {
	user, err := u.GetByFirebaseUID(ctx, spec.FirebaseUID)
	if err != nil {
		return nil, err
	}

	if spec.Username != "" {
		username, err := normalizeUsername(spec.Username)
		if err != nil {
			return nil, err
		}
		user.Username = username
	}
	if spec.Name != "" {
		user.Name = spec.Name
	}
	if spec.Email != "" {
		if !strings.Contains(spec.Email, "@") {
			return nil, apperr.Validation("invalid email %q", spec.Email)
		}
		user.Email = spec.Email
	}
	if spec.ProfileImage != "" {
		user.ProfileImage = spec.ProfileImage
	}

	if err := u.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, apperr.Validation("username %q is taken", user.Username)
		}
		return nil, apperr.Dependency("update user", err)
	}
	return user, nil
}

func normalizeUsername(username string) (string, error) {
	if username == "" {
		return "", nil
	}
	username = strings.ToLower(username)
	if !usernamePattern.MatchString(username) {
		return "", apperr.Validation("username must be 3-30 characters of a-z, 0-9, '_' or '.'")
	}
	return username, nil
}

func found(user *models.User, err error, resource string, key any) (*models.User, error) {
	if err != nil {
		return nil, apperr.Dependency("load "+resource, err)
	}
	if user == nil {
		return nil, apperr.NotFound(resource, key)
	}
	return user, nil
}
