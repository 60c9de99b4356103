package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/paytungan/paytungan/internal/auth"
	"github.com/paytungan/paytungan/internal/middleware"
	"github.com/paytungan/paytungan/pkg/api"
	"github.com/paytungan/paytungan/pkg/api/apiconnect"
)

// AuthPolicy lists the procedures that do not use the default token level.
func AuthPolicy() middleware.Policy {
	return middleware.Policy{
		apiconnect.PaymentServiceGetPaymentProcedure:        middleware.LevelNone,
		apiconnect.AuthServiceLoginProcedure:                middleware.LevelNone,
		apiconnect.PaymentServiceCreatePaymentProcedure:     middleware.LevelUser,
		apiconnect.SplitBillServiceCreateSplitBillProcedure: middleware.LevelUser,
		apiconnect.AuthServiceGetCurrentUserProcedure:       middleware.LevelUser,
		apiconnect.UserServiceUpdateUserProcedure:           middleware.LevelUser,
	}
}

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	auth   *auth.Service
	logger *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authService *auth.Service, logger *slog.Logger) *AuthService {
	return &AuthService{
		auth:   authService,
		logger: logger,
	}
}

// Login signs a user in with an identity-provider token, registering the
// user on first sign-in.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, err
	}

	user, err := s.auth.Login(ctx, req.Msg.Token)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "Login failed", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID, "firebase_uid", user.FirebaseUID)
	return connect.NewResponse(&api.LoginResponse{User: toUser(user)}), nil
}

// GetCurrentUser returns the authenticated user's profile.
func (s *AuthService) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	user := middleware.GetUser(ctx)
	return connect.NewResponse(&api.GetCurrentUserResponse{User: toUser(user)}), nil
}
