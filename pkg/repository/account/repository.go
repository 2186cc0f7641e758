package account

import (
	"context"

	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/google/uuid"
)

// Repository defines data access for account records.
type Repository interface {
	// Create inserts a new account. A second Checking account for the same
	// owner fails with domain.ErrConflict.
	Create(ctx context.Context, acc *account.Account) error

	// Get retrieves an account by its ID.
	Get(ctx context.Context, id uuid.UUID) (*account.Account, error)

	// GetByNumber retrieves an account by its account number.
	GetByNumber(ctx context.Context, number string) (*account.Account, error)

	// GetForUpdate retrieves an account and locks its row until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error)

	// ListByOwner lists every account held by an owner, oldest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*account.Account, error)

	// List lists every account ordered by account number.
	List(ctx context.Context) ([]*account.Account, error)

	// Search matches query against account numbers and owner names.
	Search(ctx context.Context, query string, page, limit int) ([]*account.Account, int64, error)

	// UpdateBalance stores the incrementally maintained balance.
	UpdateBalance(ctx context.Context, id uuid.UUID, balance, lastSeq int64) error

	// Delete removes an account record.
	Delete(ctx context.Context, id uuid.UUID) error

	// NextNumber atomically advances the account number counter and returns
	// the new value.
	NextNumber(ctx context.Context) (int64, error)
}
