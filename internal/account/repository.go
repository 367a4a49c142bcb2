package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserRepository defines the interface for account storage.
type UserRepository interface {
	// Create inserts a new account. ID, Token, and CreatedAt are generated
	// if empty. Returns ErrEmailExists if the email is already registered.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves an account by its unique ID.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail retrieves an account by email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByToken retrieves the account owning a session token.
	GetByToken(ctx context.Context, token string) (*User, error)

	// GetByCredentials retrieves the account matching email and password
	// exactly. Returns ErrInvalidCredentials when nothing matches.
	GetByCredentials(ctx context.Context, email, password string) (*User, error)

	// UpdateProfile applies the non-empty fields of upd and returns the
	// updated account. Empty fields keep their stored values.
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*User, error)

	// UpdateAvatar sets the avatar path, or clears it when avatar is empty,
	// and returns the updated account.
	UpdateAvatar(ctx context.Context, id, avatar string) (*User, error)

	// Count returns the total number of accounts.
	Count(ctx context.Context) (int, error)
}

// SQLiteUserRepository implements UserRepository using SQLite.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed user repository.
func NewUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

const userColumns = "id, first_name, last_name, gender, email, password, token, avatar, time_zone, created_at"

// Create inserts a new account, issuing an ID and session token if absent.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = "usr-" + uuid.NewString()[:8]
	}
	if user.Token == "" {
		user.Token = NewToken()
	}

	now := time.Now().UTC().Truncate(time.Second)
	user.CreatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, first_name, last_name, gender, email, password, token, avatar, time_zone, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.FirstName, user.LastName, user.Gender, user.Email,
		user.Password, user.Token,
		nullString(user.Avatar), nullString(user.TimeZone),
		now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("creating user: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its unique ID.
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

// GetByEmail retrieves an account by email.
func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
}

// GetByToken retrieves the account owning a session token.
func (r *SQLiteUserRepository) GetByToken(ctx context.Context, token string) (*User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE token = ?", token)
}

// GetByCredentials retrieves the account matching email and password exactly.
// Tokens are not rotated on login: the stored token is returned as-is.
func (r *SQLiteUserRepository) GetByCredentials(ctx context.Context, email, password string) (*User, error) {
	user, err := r.getUser(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ? AND password = ?",
		email, password,
	)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	return user, err
}

// UpdateProfile applies the non-empty fields of upd.
// COALESCE(NULLIF(?, ''), column) keeps the stored value for empty inputs,
// so the whole update is a single statement.
func (r *SQLiteUserRepository) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*User, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET
			first_name = COALESCE(NULLIF(?, ''), first_name),
			last_name  = COALESCE(NULLIF(?, ''), last_name),
			gender     = COALESCE(NULLIF(?, ''), gender),
			time_zone  = COALESCE(NULLIF(?, ''), time_zone)
		 WHERE id = ?`,
		upd.FirstName, upd.LastName, upd.Gender, upd.TimeZone, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return nil, ErrUserNotFound
	}

	return r.GetByID(ctx, id)
}

// UpdateAvatar sets or clears the avatar path.
func (r *SQLiteUserRepository) UpdateAvatar(ctx context.Context, id, avatar string) (*User, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE users SET avatar = ? WHERE id = ?",
		nullString(avatar), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating avatar: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return nil, ErrUserNotFound
	}

	return r.GetByID(ctx, id)
}

// Count returns the total number of accounts.
func (r *SQLiteUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// getUser runs a single-row user query and maps sql.ErrNoRows to ErrUserNotFound.
func (r *SQLiteUserRepository) getUser(ctx context.Context, query string, args ...any) (*User, error) {
	var u User
	var avatar, timeZone sql.NullString
	var createdAt string

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Gender, &u.Email,
		&u.Password, &u.Token, &avatar, &timeZone, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}

	if avatar.Valid {
		u.Avatar = avatar.String
	}
	if timeZone.Valid {
		u.TimeZone = timeZone.String
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled

	return &u, nil
}

// nullString converts an empty string to a SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// isUniqueViolation reports whether err is a SQLite unique constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
