package middleware

import (
	"context"
	"errors"
	"strings"

	"connectrpc.com/connect"

	"github.com/paytungan/paytungan/internal/apperr"
	"github.com/paytungan/paytungan/internal/auth"
	"github.com/paytungan/paytungan/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserKey is the context key for the registered *models.User.
	UserKey contextKey = "user"
	// TokenKey is the context key for the caller's *models.DecodedToken.
	TokenKey contextKey = "token"
)

// GetUser extracts the registered user from the context.
// Returns nil if the procedure did not require one.
func GetUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserKey).(*models.User)
	return user
}

// GetToken extracts the decoded identity token from the context.
// Returns nil if not found.
func GetToken(ctx context.Context) *models.DecodedToken {
	token, _ := ctx.Value(TokenKey).(*models.DecodedToken)
	return token
}

// Level is the authentication a procedure requires.
type Level int

const (
	// LevelToken requires a valid identity token. It is the default.
	LevelToken Level = iota
	// LevelNone accepts anonymous callers. A valid token is still attached.
	LevelNone
	// LevelUser requires a valid token whose user has logged in before.
	LevelUser
)

// Policy maps procedures to their level. Procedures not listed get LevelToken.
type Policy map[string]Level

func (p Policy) level(procedure string) Level {
	return p[procedure]
}

// Authenticator decodes identity tokens and resolves their users.
type Authenticator interface {
	DecodeToken(ctx context.Context, token string) (*models.DecodedToken, error)
	UserFor(ctx context.Context, decoded *models.DecodedToken) (*models.User, error)
}

var errUnregistered = errors.New("user is not registered, please login first")

// RequireAuth returns an interceptor that authenticates callers according to
// policy. It extracts the token from the Authorization header and adds the
// decoded token, and for LevelUser the user, to the request context.
func RequireAuth(authn Authenticator, policy Policy) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			level := policy.level(req.Spec().Procedure)

			token, err := bearerToken(req.Header().Get("Authorization"))
			if err != nil {
				if level == LevelNone {
					return next(ctx, req)
				}
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			decoded, err := authn.DecodeToken(ctx, token)
			if err != nil {
				if level == LevelNone {
					return next(ctx, req)
				}
				return nil, apperr.ToConnect(err)
			}
			ctx = context.WithValue(ctx, TokenKey, decoded)
			setCaller(ctx, decoded.UID)

			if level == LevelUser {
				user, err := authn.UserFor(ctx, decoded)
				if err != nil {
					return nil, apperr.ToConnect(err)
				}
				if user == nil {
					return nil, connect.NewError(connect.CodeUnauthenticated, errUnregistered)
				}
				ctx = context.WithValue(ctx, UserKey, user)
			}

			return next(ctx, req)
		}
	}
}

// bearerToken parses an Authorization header of the form "Bearer <token>".
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", auth.ErrMissingToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", auth.ErrInvalidToken
	}
	return parts[1], nil
}
