package account

import (
	"math"
	"testing"
	"time"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAndParseNumber(t *testing.T) {
	t.Parallel()
	n, err := FormatNumber(42)
	require.NoError(t, err)
	assert.Equal(t, "ACCT-0000000042", n)

	seq, err := ParseNumber(n)
	require.NoError(t, err)
	assert.Equal(t, int64(42), seq)

	_, err = FormatNumber(0)
	assert.Error(t, err)
	_, err = FormatNumber(MaxSequence + 1)
	assert.Error(t, err)

	for _, bad := range []string{"", "ACCT-42", "ACC-0000000042", "ACCT-00000000x2", "ACCT-0000000000"} {
		_, err := ParseNumber(bad)
		assert.ErrorIs(t, err, domain.ErrValidation, bad)
	}
}

func TestNumberOrderMatchesSequenceOrder(t *testing.T) {
	t.Parallel()
	a, _ := FormatNumber(9)
	b, _ := FormatNumber(10)
	assert.Less(t, a, b)
}

func TestParseType(t *testing.T) {
	t.Parallel()
	typ, err := ParseType("savings")
	require.NoError(t, err)
	assert.Equal(t, TypeSavings, typ)

	_, err = ParseType("credit")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.False(t, Types[TypeChecking].Repeatable)
	assert.True(t, Types[TypeCard].Repeatable)
	assert.Equal(t, "Checking account", TypeChecking.Label())
	assert.Equal(t, "Savings account", TypeSavings.Label())
}

func TestBuilder(t *testing.T) {
	t.Parallel()
	owner := uuid.New()
	acc, err := New().WithOwnerID(owner).WithType(TypeSavings).WithNumber("ACCT-0000000001").Build()
	require.NoError(t, err)
	assert.Equal(t, owner, acc.OwnerID)
	assert.False(t, acc.IsChecking())
	assert.Equal(t, "0", acc.BalanceDecimal().String())

	_, err = New().WithNumber("ACCT-0000000001").Build()
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = New().WithOwnerID(owner).WithType("Gold").WithNumber("ACCT-0000000001").Build()
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = New().WithOwnerID(owner).Build()
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFold(t *testing.T) {
	t.Parallel()
	id := uuid.New()
	now := time.Now()
	credit, err := NewTransaction(id, 1, 10000, Credit, "deposit", now)
	require.NoError(t, err)
	debit, err := NewTransaction(id, 2, 3000, Debit, "withdrawal", now)
	require.NoError(t, err)
	overdraw, err := NewTransaction(id, 3, 9000, Debit, "payment", now)
	require.NoError(t, err)

	assert.Equal(t, int64(7000), Fold([]*Transaction{credit, debit}))
	assert.Equal(t, int64(7000), Fold([]*Transaction{debit, credit}))
	assert.Equal(t, int64(-2000), Fold([]*Transaction{credit, debit, overdraw}))
	assert.Equal(t, int64(0), Fold(nil))
}

func TestApply(t *testing.T) {
	id := uuid.New()
	now := time.Now()
	credit, err := NewTransaction(id, 1, 500, Credit, "", now)
	require.NoError(t, err)
	debit, err := NewTransaction(id, 2, 500, Debit, "", now)
	require.NoError(t, err)

	got, err := Apply(100, credit)
	require.NoError(t, err)
	assert.Equal(t, int64(600), got)
	got, err = Apply(100, debit)
	require.NoError(t, err)
	assert.Equal(t, int64(-400), got)

	got, err = Apply(math.MaxInt64-500, credit)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), got)
	_, err = Apply(math.MaxInt64-499, credit)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = Apply(math.MinInt64+499, debit)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNewTransactionValidation(t *testing.T) {
	t.Parallel()
	_, err := NewTransaction(uuid.New(), 1, 0, Credit, "", time.Now())
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = NewTransaction(uuid.New(), 1, 100, Direction("sideways"), "", time.Now())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestParseDirection(t *testing.T) {
	t.Parallel()
	tests := map[string]Direction{
		"credit":     Credit,
		"Deposit":    Credit,
		"debit":      Debit,
		"withdrawal": Debit,
		"payment":    Debit,
	}
	for in, want := range tests {
		got, err := ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDirection("transfer")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFilterMatch(t *testing.T) {
	t.Parallel()
	tx := &Transaction{Amount: 500, Direction: Debit}
	credit := Credit
	debit := Debit
	amt := int64(500)
	other := int64(501)

	assert.True(t, Filter{}.Match(tx))
	assert.True(t, Filter{Direction: &debit}.Match(tx))
	assert.False(t, Filter{Direction: &credit}.Match(tx))
	assert.True(t, Filter{Direction: &debit, Amount: &amt}.Match(tx))
	assert.False(t, Filter{Amount: &other}.Match(tx))
}
