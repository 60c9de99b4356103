package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/paytungan/paytungan/internal/auth"
	"github.com/paytungan/paytungan/internal/middleware"
	"github.com/paytungan/paytungan/internal/models"
	"github.com/paytungan/paytungan/pkg/api"
)

// UserService implements the Connect UserService
type UserService struct {
	users  *auth.Users
	logger *slog.Logger
}

func NewUserService(users *auth.Users) *UserService {
	return &UserService{users: users, logger: slog.Default()}
}

func (s *UserService) GetUser(ctx context.Context, req *connect.Request[api.GetUserRequest]) (*connect.Response[api.GetUserResponse], error) {
	if err := validate(req.Msg); err != nil {
		return nil, err
	}

	var (
		user *models.User
		err  error
	)
	if req.Msg.ID > 0 {
		user, err = s.users.Get(ctx, req.Msg.ID)
	} else {
		user, err = s.users.GetByUsername(ctx, req.Msg.Username)
	}
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "GetUser failed", err, "id", req.Msg.ID, "username", req.Msg.Username)
	}
	return connect.NewResponse(&api.GetUserResponse{User: toUser(user)}), nil
}

func (s *UserService) GetUserList(ctx context.Context, req *connect.Request[api.GetUserListRequest]) (*connect.Response[api.GetUserListResponse], error) {
	users, err := s.users.List(ctx, models.GetUserListSpec{
		UserIDs:      req.Msg.UserIDs,
		Usernames:    req.Msg.Usernames,
		FirebaseUIDs: req.Msg.FirebaseUIDs,
	})
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "GetUserList failed", err)
	}
	return connect.NewResponse(&api.GetUserListResponse{Users: toUsers(users)}), nil
}

// UpdateUser updates the calling user's own profile.
func (s *UserService) UpdateUser(ctx context.Context, req *connect.Request[api.UpdateUserRequest]) (*connect.Response[api.UpdateUserResponse], error) {
	caller := middleware.GetUser(ctx)
	user, err := s.users.Update(ctx, models.UpdateUserSpec{
		FirebaseUID:  caller.FirebaseUID,
		Username:     req.Msg.Username,
		Name:         req.Msg.Name,
		Email:        req.Msg.Email,
		ProfileImage: req.Msg.ProfileImage,
	})
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "UpdateUser failed", err, "user_id", caller.ID)
	}
	slog.Info("User updated", "user_id", user.ID)
	return connect.NewResponse(&api.UpdateUserResponse{User: toUser(user)}), nil
}
