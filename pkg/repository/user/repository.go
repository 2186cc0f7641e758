package user

import (
	"context"

	"github.com/amirasaad/backoffice/pkg/domain/user"
	"github.com/google/uuid"
)

// Repository defines data access for identities.
type Repository interface {
	// Create inserts a new identity. A duplicate username fails with domain.ErrConflict.
	Create(ctx context.Context, u *user.Identity) error

	// Get retrieves an identity by its ID.
	Get(ctx context.Context, id uuid.UUID) (*user.Identity, error)

	// GetByUsername retrieves an identity by exact username.
	GetByUsername(ctx context.Context, username string) (*user.Identity, error)

	// Search lists identities whose username contains query, optionally
	// restricted to one role.
	Search(ctx context.Context, query string, role *user.Role) ([]*user.Identity, error)

	// CountByRole counts identities holding role.
	CountByRole(ctx context.Context, role user.Role) (int64, error)

	// UpdateRole sets an identity's role.
	UpdateRole(ctx context.Context, id uuid.UUID, role user.Role) error

	// UpdatePasswordHash overwrites the stored credential.
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// LoginStateRepository defines data access for login state, one row per identity.
type LoginStateRepository interface {
	// Get returns the state of an identity, or domain.ErrNotFound when no row exists.
	Get(ctx context.Context, identityID uuid.UUID) (*user.LoginState, error)

	// GetForUpdate creates the row if missing and locks it until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, identityID uuid.UUID) (*user.LoginState, error)

	// Save writes the whole state.
	Save(ctx context.Context, s *user.LoginState) error
}
