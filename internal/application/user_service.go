package application

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// UserService keeps the local user table in step with the identity provider.
type UserService struct {
	users  UserRepository
	logger *zap.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository) *UserService {
	return NewUserServiceWithLogger(users, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a specified logger.
func NewUserServiceWithLogger(users UserRepository, logger *zap.Logger) *UserService {
	return &UserService{users: users, logger: defaultLogger(logger)}
}

// EnsureUser records the viewer so that its answers can reference it. The
// username is refreshed on every call. User ID 0 is an ordinary identity.
func (s *UserService) EnsureUser(ctx context.Context, viewer Viewer) (err error) {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}

	logger := serviceLogger(ctx, s.logger, "UserService", "EnsureUser", zap.Int64("user_id", viewer.UserID))
	defer func() {
		if err != nil {
			logger.Error("failed to ensure user", zap.Error(err), zap.String("error_kind", ErrorKind(err)))
		}
	}()

	if viewer.UserID < 0 {
		vErr := &ValidationError{}
		vErr.add("user_id", "user id must not be negative")
		err = vErr
		return
	}
	if strings.TrimSpace(viewer.Username) == "" {
		vErr := &ValidationError{}
		vErr.add("username", "username is required")
		err = vErr
		return
	}
	if s.users == nil {
		return nil
	}

	if err = s.users.UpsertUser(ctx, User{ID: viewer.UserID, Username: viewer.Username}); err != nil {
		err = mapRepoError(err, "user_id")
	}
	return
}
