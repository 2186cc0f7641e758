// Package money converts between decimal amounts used at the service
// boundary and the int64 minor units persisted in the ledger.
package money

import (
	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/shopspring/decimal"
)

// Scale is the number of fraction digits carried by every amount.
const Scale = 2

// ToCents converts a strictly positive decimal amount with at most two fraction
// digits into minor units.
func ToCents(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, domain.Validationf("amount must be positive, got %s", amount.String())
	}
	shifted := amount.Shift(Scale)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, domain.Validationf("amount %s has more than %d fraction digits", amount.String(), Scale)
	}
	if !shifted.BigInt().IsInt64() {
		return 0, domain.Validationf("amount %s is out of range", amount.String())
	}
	return shifted.IntPart(), nil
}

// FromCents converts minor units back into a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -Scale)
}

// Parse reads a decimal string such as "100.00" into minor units.
func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, domain.Validationf("invalid amount %q", s)
	}
	return ToCents(d)
}
