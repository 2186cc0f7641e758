package account

import (
	"math"
	"strings"
	"time"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction is the side of a ledger entry.
type Direction string

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

// Valid reports whether d is credit or debit.
func (d Direction) Valid() bool {
	return d == Credit || d == Debit
}

// ParseDirection accepts the direction names as well as the operation names
// used by front-office clients (deposit, withdrawal, payment).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "credit", "deposit":
		return Credit, nil
	case "debit", "withdrawal", "payment":
		return Debit, nil
	default:
		return "", domain.Validationf("unknown transaction type %q", s)
	}
}

// Transaction is one immutable ledger entry. Amount is a non-negative magnitude
// in minor units; Direction carries the sign.
type Transaction struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	Seq         int64
	Amount      int64
	Direction   Direction
	Description string
	CreatedAt   time.Time
}

// AmountDecimal returns the entry magnitude as a decimal amount.
func (t *Transaction) AmountDecimal() decimal.Decimal {
	return money.FromCents(t.Amount)
}

// Signed returns the amount with the direction applied.
func (t *Transaction) Signed() int64 {
	if t.Direction == Debit {
		return -t.Amount
	}
	return t.Amount
}

// NewTransaction validates and creates a ledger entry for the given account.
func NewTransaction(
	accountID uuid.UUID,
	seq int64,
	amount int64,
	direction Direction,
	description string,
	at time.Time,
) (*Transaction, error) {
	if amount <= 0 {
		return nil, domain.Validationf("amount must be positive")
	}
	if !direction.Valid() {
		return nil, domain.Validationf("unknown direction %q", direction)
	}
	return &Transaction{
		ID:          uuid.New(),
		AccountID:   accountID,
		Seq:         seq,
		Amount:      amount,
		Direction:   direction,
		Description: description,
		CreatedAt:   at,
	}, nil
}

// Apply returns balance with t applied. A result outside the int64 range of
// cents is rejected with domain.ErrValidation.
func Apply(balance int64, t *Transaction) (int64, error) {
	delta := t.Signed()
	if (delta > 0 && balance > math.MaxInt64-delta) || (delta < 0 && balance < math.MinInt64-delta) {
		return 0, domain.Validationf("entry of %d cents would overflow balance %d", delta, balance)
	}
	return balance + delta, nil
}

// Fold computes a balance from a sequence of entries: start at zero, add credits,
// subtract debits. Order does not affect the result.
func Fold(entries []*Transaction) int64 {
	var balance int64
	for _, e := range entries {
		balance += e.Signed()
	}
	return balance
}

// Filter narrows a ledger search. Nil fields match everything.
type Filter struct {
	Direction *Direction
	Amount    *int64
}

// Match reports whether t satisfies the filter.
func (f Filter) Match(t *Transaction) bool {
	if f.Direction != nil && t.Direction != *f.Direction {
		return false
	}
	if f.Amount != nil && t.Amount != *f.Amount {
		return false
	}
	return true
}
