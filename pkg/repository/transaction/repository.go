package transaction

import (
	"context"

	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/google/uuid"
)

// Repository defines data access for ledger entries. Entries are never updated.
type Repository interface {
	// Create appends a ledger entry.
	Create(ctx context.Context, tx *account.Transaction) error

	// ListByAccount returns the entries of an account matching filter, most
	// recent first.
	ListByAccount(ctx context.Context, accountID uuid.UUID, filter account.Filter) ([]*account.Transaction, error)

	// DeleteByAccount removes the history of a closed account.
	DeleteByAccount(ctx context.Context, accountID uuid.UUID) error
}
