package account

import (
	"time"

	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountResponse is the wire form of an account.
type AccountResponse struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	Number    string          `json:"number"`
	Type      account.Type    `json:"type"`
	TypeLabel string          `json:"type_label"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewAccountResponse converts an account for the wire. It returns nil for a nil account.
func NewAccountResponse(a *account.Account) *AccountResponse {
	if a == nil {
		return nil
	}
	return &AccountResponse{
		ID:        a.ID,
		OwnerID:   a.OwnerID,
		Number:    a.Number,
		Type:      a.Type,
		TypeLabel: a.Type.Label(),
		Balance:   a.BalanceDecimal(),
		CreatedAt: a.CreatedAt,
	}
}

// NewAccountList converts a slice of accounts.
func NewAccountList(accounts []*account.Account) []*AccountResponse {
	out := make([]*AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, NewAccountResponse(a))
	}
	return out
}

// AccountPage is one page of a search.
type AccountPage struct {
	Items []*AccountResponse `json:"items"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// BalanceResponse reports the current balance of an account.
type BalanceResponse struct {
	Number  string          `json:"number"`
	Balance decimal.Decimal `json:"balance"`
}

// TransactionInput represents the request body for posting a ledger entry.
// Type is credit or debit, or one of deposit, withdrawal and payment.
type TransactionInput struct {
	Type        string          `json:"type" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=255"`
}

// TransactionResponse is the wire form of a ledger entry.
type TransactionResponse struct {
	ID          uuid.UUID         `json:"id"`
	Seq         int64             `json:"seq"`
	Direction   account.Direction `json:"direction"`
	Amount      decimal.Decimal   `json:"amount"`
	Description string            `json:"description"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewTransactionResponse converts a ledger entry for the wire.
func NewTransactionResponse(t *account.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:          t.ID,
		Seq:         t.Seq,
		Direction:   t.Direction,
		Amount:      t.AmountDecimal(),
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
}

// PostedResponse is returned after a ledger entry was appended.
type PostedResponse struct {
	Transaction *TransactionResponse `json:"transaction"`
	Balance     decimal.Decimal      `json:"balance"`
}
