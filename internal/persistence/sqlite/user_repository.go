package sqlite

import (
	"context"

	"github.com/example/attendance-scheduler/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite
type UserRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository
func NewUserRepository(helper *QueryHelper) *UserRepository {
	return &UserRepository{helper: helper, mapper: NewErrorMapper()}
}

// UpsertUser inserts the user or refreshes its username.
func (r *UserRepository) UpsertUser(ctx context.Context, user persistence.User) error {
	query := `
		INSERT INTO users (user_id, username)
		VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET username = excluded.username
	`

	if _, err := r.helper.Exec(ctx, query, user.ID, user.Username); err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id int64) (persistence.User, error) {
	var user persistence.User
	err := r.helper.QueryRow(ctx, "SELECT user_id, username FROM users WHERE user_id = ?", id).
		Scan(&user.ID, &user.Username)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}
	return user, nil
}
