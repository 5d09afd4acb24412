package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tabstash/tabstash-server/internal/domain"
	"github.com/tabstash/tabstash-server/internal/store"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `id, created_at, updated_at, username, display_name, avatar_url,
	auth_id, password_hash, last_login_at`

// scanUser scans a sql.Row (or sql.Rows via its Scan method) into a domain.User.
func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var u domain.User

	var (
		createdAt    string
		updatedAt    string
		authID       sql.NullString
		passwordHash sql.NullString
		lastLoginAt  string
	)

	err := scanner.Scan(
		&u.ID,
		&createdAt,
		&updatedAt,
		&u.Username,
		&u.DisplayName,
		&u.AvatarURL,
		&authID,
		&passwordHash,
		&lastLoginAt,
	)
	if err != nil {
		return nil, err
	}

	// Parse timestamps.
	u.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	u.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	u.LastLoginAt, err = parseTime(lastLoginAt)
	if err != nil {
		return nil, err
	}

	// Optional fields.
	if authID.Valid {
		u.AuthID = authID.String
	}
	if passwordHash.Valid {
		u.PasswordHash = passwordHash.String
	}

	return &u, nil
}

// CreateUser inserts a new user into the database.
// Returns store.ErrAlreadyExists if the username or auth ID is taken.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	usernameLower := strings.ToLower(strings.TrimSpace(user.Username))

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (
			id, created_at, updated_at, username, username_lower,
			display_name, avatar_url, auth_id, password_hash, last_login_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
		user.Username,
		usernameLower,
		user.DisplayName,
		user.AvatarURL,
		nullString(user.AuthID),
		nullString(user.PasswordHash),
		formatTime(user.LastLoginAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetUser retrieves a user by ID.
// Returns store.ErrUserNotFound if the user does not exist.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByUsername retrieves a user by username, case-insensitively.
// Returns store.ErrUserNotFound if the user does not exist.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	lower := strings.ToLower(strings.TrimSpace(username))
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username_lower = ?`, lower)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByAuthID retrieves a user by OAuth provider subject.
// Returns store.ErrUserNotFound if no account is linked to the subject.
func (s *Store) GetUserByAuthID(ctx context.Context, authID string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE auth_id = ?`, authID)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateUser updates mutable user fields.
// Returns store.ErrUserNotFound if the user does not exist.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	usernameLower := strings.ToLower(strings.TrimSpace(user.Username))

	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			updated_at = ?, username = ?, username_lower = ?,
			display_name = ?, avatar_url = ?, auth_id = ?,
			password_hash = ?, last_login_at = ?
		WHERE id = ?`,
		formatTime(user.UpdatedAt),
		user.Username,
		usernameLower,
		user.DisplayName,
		user.AvatarURL,
		nullString(user.AuthID),
		nullString(user.PasswordHash),
		formatTime(user.LastLoginAt),
		user.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

// ListUsers returns all users ordered by creation time.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
