package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/paytungan/paytungan/internal/models"
	"github.com/paytungan/paytungan/internal/storage"
)

const userColumns = `id, firebase_uid, phone_number, username, name, email, profile_image, created_at, updated_at, deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var (
		username             sql.NullString
		createdAt, updatedAt int64
		deletedAt            sql.NullInt64
	)
	if err := row.Scan(
		&user.ID,
		&user.FirebaseUID,
		&user.PhoneNumber,
		&username,
		&user.Name,
		&user.Email,
		&user.ProfileImage,
		&createdAt,
		&updatedAt,
		&deletedAt,
	); err != nil {
		return nil, err
	}
	user.Username = username.String
	user.CreatedAt = fromUnix(createdAt)
	user.UpdatedAt = fromUnix(updatedAt)
	user.DeletedAt = fromNullUnix(deletedAt)
	return user, nil
}

// CreateUser inserts a new user into the database.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now

	err := s.queryRow(ctx, `
		INSERT INTO users (firebase_uid, phone_number, username, name, email, profile_image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		user.FirebaseUID,
		user.PhoneNumber,
		nullString(user.Username),
		user.Name,
		user.Email,
		user.ProfileImage,
		unix(user.CreatedAt),
		unix(user.UpdatedAt),
	).Scan(&user.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("failed to create user: %w", storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdateUser writes the user's profile fields.
func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = s.now()
	res, err := s.exec(ctx, `
		UPDATE users
		SET phone_number = ?, username = ?, name = ?, email = ?, profile_image = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		user.PhoneNumber,
		nullString(user.Username),
		user.Name,
		user.Email,
		user.ProfileImage,
		unix(user.UpdatedAt),
		user.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("failed to update user: %w", storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user not found: %d", user.ID)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.getUserBy(ctx, "id", id)
}

// GetUserByUsername retrieves a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUserBy(ctx, "username", username)
}

// GetUserByFirebaseUID retrieves a user by identity-provider uid.
func (s *Store) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	return s.getUserBy(ctx, "firebase_uid", firebaseUID)
}

func (s *Store) getUserBy(ctx context.Context, column string, value any) (*models.User, error) {
	user, err := scanUser(s.queryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ? AND deleted_at IS NULL`,
		value,
	))
	if err == sql.ErrNoRows {
		return nil, nil // User not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return user, nil
}

// ListUsers retrieves users matching any of the given ids, usernames or uids.
// An empty spec lists every user.
func (s *Store) ListUsers(ctx context.Context, spec models.GetUserListSpec) ([]*models.User, error) {
	var (
		ors  []string
		args []any
	)
	if len(spec.UserIDs) > 0 {
		ors = append(ors, "id IN ("+repeatPlaceholder(len(spec.UserIDs))+")")
		for _, id := range spec.UserIDs {
			args = append(args, id)
		}
	}
	if len(spec.Usernames) > 0 {
		ors = append(ors, "username IN ("+repeatPlaceholder(len(spec.Usernames))+")")
		for _, u := range spec.Usernames {
			args = append(args, u)
		}
	}
	if len(spec.FirebaseUIDs) > 0 {
		ors = append(ors, "firebase_uid IN ("+repeatPlaceholder(len(spec.FirebaseUIDs))+")")
		for _, uid := range spec.FirebaseUIDs {
			args = append(args, uid)
		}
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL`
	if len(ors) > 0 {
		query += " AND (" + strings.Join(ors, " OR ") + ")"
	}
	query += " ORDER BY id"

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
