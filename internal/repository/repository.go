package repository

import (
	"context"

	"github.com/sakif/passcode-login/internal/model"
)

// UserRepository is the persistence boundary for user rows.
//
// GetByEmail returns apperror.ErrNotFound (wrapped) when no row matches.
// Create assigns ID/CreatedAt/UpdatedAt on the passed struct. Update
// persists every mutable column of the given row; callers re-fetch first,
// so concurrent writers race last-write-wins (accepted for a login flow).
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}
