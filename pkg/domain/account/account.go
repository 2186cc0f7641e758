package account

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type tags an account. Behavioural differences between types are limited to
// the data in the Types table.
type Type string

const (
	TypeChecking Type = "Checking"
	TypeSavings  Type = "Savings"
	TypeCard     Type = "Card"
)

// TypeInfo is the per-type display and behaviour data.
type TypeInfo struct {
	Label string
	// Repeatable reports whether an owner may hold more than one account of this type.
	Repeatable bool
}

// Types is the lookup table for every supported account type.
var Types = map[Type]TypeInfo{
	TypeChecking: {Label: "Checking account", Repeatable: false},
	TypeSavings:  {Label: "Savings account", Repeatable: true},
	TypeCard:     {Label: "Card account", Repeatable: true},
}

// Valid reports whether t is a supported account type.
func (t Type) Valid() bool {
	_, ok := Types[t]
	return ok
}

// Label returns the display label of t.
func (t Type) Label() string {
	return Types[t].Label
}

// ParseType accepts a type name in any letter case.
func ParseType(s string) (Type, error) {
	for t := range Types {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", domain.Validationf("unknown account type %q", s)
}

// Account number layout: constant prefix followed by a zero padded sequence.
const (
	NumberPrefix = "ACCT-"
	NumberDigits = 10
)

// MaxSequence is the largest sequence value that still fits NumberDigits.
const MaxSequence int64 = 9_999_999_999

// FormatNumber renders a sequence value as an account number. Because the width
// is fixed, lexical order of numbers equals numeric order of sequences.
func FormatNumber(seq int64) (string, error) {
	if seq <= 0 || seq > MaxSequence {
		return "", fmt.Errorf("account number sequence %d out of range", seq)
	}
	return fmt.Sprintf("%s%0*d", NumberPrefix, NumberDigits, seq), nil
}

// ParseNumber returns the sequence value encoded in an account number.
func ParseNumber(number string) (int64, error) {
	digits, ok := strings.CutPrefix(number, NumberPrefix)
	if !ok || len(digits) != NumberDigits {
		return 0, domain.Validationf("malformed account number %q", number)
	}
	seq, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || seq <= 0 {
		return 0, domain.Validationf("malformed account number %q", number)
	}
	return seq, nil
}

// Account is a single account record. Balance is the incrementally maintained
// value of the ledger fold; the ledger entries remain the source of truth.
type Account struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Type      Type
	Number    string
	Balance   int64 // minor units
	LastSeq   int64 // sequence of the last ledger entry applied to Balance
	CreatedAt time.Time
}

// BalanceDecimal returns the balance as a decimal amount.
func (a *Account) BalanceDecimal() decimal.Decimal {
	return money.FromCents(a.Balance)
}

// IsChecking reports whether a is the owner's default checking account.
func (a *Account) IsChecking() bool {
	return a.Type == TypeChecking
}

// Builder provides a fluent API for constructing Account instances.
type Builder struct {
	id        uuid.UUID
	ownerID   uuid.UUID
	typ       Type
	number    string
	balance   int64
	lastSeq   int64
	createdAt time.Time
}

// New creates a Builder with a fresh ID and the current time.
func New() *Builder {
	return &Builder{
		id:        uuid.New(),
		typ:       TypeChecking,
		createdAt: time.Now().UTC(),
	}
}

// WithID sets the account ID.
func (b *Builder) WithID(id uuid.UUID) *Builder {
	b.id = id
	return b
}

// WithOwnerID sets the owning identity. This is a mandatory field.
func (b *Builder) WithOwnerID(ownerID uuid.UUID) *Builder {
	b.ownerID = ownerID
	return b
}

// WithType sets the account type. Defaults to Checking.
func (b *Builder) WithType(t Type) *Builder {
	b.typ = t
	return b
}

// WithNumber sets the allocated account number. This is a mandatory field.
func (b *Builder) WithNumber(number string) *Builder {
	b.number = number
	return b
}

// WithBalance sets the balance in minor units. Used when hydrating from storage.
func (b *Builder) WithBalance(cents, lastSeq int64) *Builder {
	b.balance = cents
	b.lastSeq = lastSeq
	return b
}

// WithCreatedAt sets the creation timestamp.
func (b *Builder) WithCreatedAt(t time.Time) *Builder {
	b.createdAt = t
	return b
}

// Build validates the invariants and returns the Account.
func (b *Builder) Build() (*Account, error) {
	if b.ownerID == uuid.Nil {
		return nil, domain.Validationf("owner is required")
	}
	if !b.typ.Valid() {
		return nil, domain.Validationf("unknown account type %q", b.typ)
	}
	if _, err := ParseNumber(b.number); err != nil {
		return nil, err
	}
	return &Account{
		ID:        b.id,
		OwnerID:   b.ownerID,
		Type:      b.typ,
		Number:    b.number,
		Balance:   b.balance,
		LastSeq:   b.lastSeq,
		CreatedAt: b.createdAt,
	}, nil
}
