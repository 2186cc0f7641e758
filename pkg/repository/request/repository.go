package request

import (
	"context"

	"github.com/amirasaad/backoffice/pkg/domain/request"
	"github.com/google/uuid"
)

// Repository defines data access for workflow requests.
type Repository interface {
	// Create inserts a new Pending request.
	Create(ctx context.Context, r *request.Request) error

	// Get retrieves a request by its ID.
	Get(ctx context.Context, id uuid.UUID) (*request.Request, error)

	// GetPendingForUpdate retrieves a Pending request and locks its row. A
	// missing or resolved request fails with domain.ErrNotFound.
	GetPendingForUpdate(ctx context.Context, id uuid.UUID) (*request.Request, error)

	// ListPending lists Pending requests of kind, most recently requested first.
	ListPending(ctx context.Context, kind request.Kind) ([]*request.Request, error)

	// ListByRequester lists every request submitted for an identity, newest first.
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*request.Request, error)

	// MarkResolved persists the resolution only if the row is still Pending.
	// It fails with request.ErrAlreadyResolved otherwise.
	MarkResolved(ctx context.Context, r *request.Request) error
}
