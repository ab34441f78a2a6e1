package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/passcode-login/internal/apperror"
	"github.com/sakif/passcode-login/internal/model"
	"github.com/sakif/passcode-login/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, email, first_name, last_name, is_active, secret_hash, code_created_at, created_at, updated_at`

// Create inserts a new user row. The ID (xid) and timestamps are assigned
// here and written back into the passed struct.
//
// The UNIQUE constraint on email makes a duplicate insert fail; callers
// that want get-or-create semantics do GetByEmail first and fall back to
// Create (last-write-wins on the rare race, acceptable for this flow).
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.IsActive,
		user.SecretHash,
		nullableTime(user.CodeCreatedAt),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetByEmail retrieves a user by email.
// Returns apperror.ErrNotFound (wrapped) if no user exists with that email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound (wrapped) if no user exists with that ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (db *DB) getUser(ctx context.Context, query, key string) (*model.User, error) {
	var (
		u             model.User
		codeCreatedAt sql.NullTime
	)

	err := db.conn.QueryRowContext(ctx, query, key).Scan(
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.IsActive,
		&u.SecretHash,
		&codeCreatedAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", key)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", key, err)
	}

	if codeCreatedAt.Valid {
		t := codeCreatedAt.Time
		u.CodeCreatedAt = &t
	}

	return &u, nil
}

// Update persists every mutable column of the given row by ID.
// UpdatedAt is refreshed here and written back into the passed struct.
func (db *DB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET email = ?, first_name = ?, last_name = ?, is_active = ?,
		     secret_hash = ?, code_created_at = ?, updated_at = ?
		 WHERE id = ?`,
		user.Email,
		user.FirstName,
		user.LastName,
		user.IsActive,
		user.SecretHash,
		nullableTime(user.CodeCreatedAt),
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update of user %s: %w", user.ID, err)
	}
	if rows == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// nullableTime maps a *time.Time to the driver's NULL representation.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
