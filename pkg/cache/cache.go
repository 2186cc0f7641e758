// Package cache defines the read-through balance cache used by the ledger.
package cache

import (
	"context"

	"github.com/google/uuid"
)

// Balance is a cached incremental balance tagged with the sequence of the last
// ledger entry folded into it.
type Balance struct {
	Cents int64 `json:"cents"`
	Seq   int64 `json:"seq"`
}

// BalanceCache stores balances per account. It is never authoritative: the
// store decides, the cache only shortcuts reads.
type BalanceCache interface {
	// Get returns the cached balance and whether it was present.
	Get(ctx context.Context, accountID uuid.UUID) (Balance, bool, error)
	// Set stores b unless an entry with a higher or equal Seq is already cached.
	Set(ctx context.Context, accountID uuid.UUID, b Balance) error
	// Delete drops the entry of an account.
	Delete(ctx context.Context, accountID uuid.UUID) error
}

// Nop is a BalanceCache that never holds anything.
type Nop struct{}

func (Nop) Get(context.Context, uuid.UUID) (Balance, bool, error) { return Balance{}, false, nil }
func (Nop) Set(context.Context, uuid.UUID, Balance) error         { return nil }
func (Nop) Delete(context.Context, uuid.UUID) error               { return nil }
