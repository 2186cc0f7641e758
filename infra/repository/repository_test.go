package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	infrarepo "github.com/amirasaad/backoffice/infra/repository"
	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/domain/request"
	"github.com/amirasaad/backoffice/pkg/domain/user"
	"github.com/amirasaad/backoffice/pkg/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func createIdentity(t *testing.T, uow *infrarepo.UoW, username string) *user.Identity {
	t.Helper()
	u, err := user.New(username, "First", "Last", "password", user.RoleCustomer, bcrypt.MinCost)
	require.NoError(t, err)
	repo, err := uow.UserRepository()
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func newAccount(t *testing.T, owner uuid.UUID, typ account.Type, seq int64) *account.Account {
	t.Helper()
	number, err := account.FormatNumber(seq)
	require.NoError(t, err)
	a, err := account.New().WithOwnerID(owner).WithType(typ).WithNumber(number).Build()
	require.NoError(t, err)
	return a
}

func TestAccountRepository_CheckingUniqueness(t *testing.T) {
	ctx := context.Background()
	uow, _ := testutils.NewTestUoW(t)
	owner := createIdentity(t, uow, "alice")
	repo, err := uow.AccountRepository()
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, newAccount(t, owner.ID, account.TypeChecking, 1)))
	require.NoError(t, repo.Create(ctx, newAccount(t, owner.ID, account.TypeSavings, 2)))
	require.NoError(t, repo.Create(ctx, newAccount(t, owner.ID, account.TypeSavings, 3)))

	err = repo.Create(ctx, newAccount(t, owner.ID, account.TypeChecking, 4))
	assert.ErrorIs(t, err, domain.ErrConflict)

	accounts, err := repo.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, accounts, 3)
}

func TestAccountRepository_DuplicateNumber(t *testing.T) {
	ctx := context.Background()
	uow, _ := testutils.NewTestUoW(t)
	owner := createIdentity(t, uow, "bob")
	repo, err := uow.AccountRepository()
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, newAccount(t, owner.ID, account.TypeSavings, 7)))
	assert.ErrorIs(t, repo.Create(ctx, newAccount(t, owner.ID, account.TypeCard, 7)), domain.ErrConflict)
}

func TestAccountRepository_NextNumberIsStrictlyIncreasing(t *testing.T) {
	ctx := context.Background()
	uow, _ := testutils.NewTestUoW(t)
	repo, err := uow.AccountRepository()
	require.NoError(t, err)

	const n = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool, n)
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := repo.NextNumber(ctx)
			assert.NoError(t, err)
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i], "missing %d", i)
	}

	next, err := repo.NextNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(n+1), next)
}

func TestAccountRepository_SearchAndDelete(t *testing.T) {
	ctx := context.Background()
	uow, _ := testutils.NewTestUoW(t)
	alice := createIdentity(t, uow, "alice")
	bob := createIdentity(t, uow, "bob")
	repo, err := uow.AccountRepository()
	require.NoError(t, err)

	a1 := newAccount(t, alice.ID, account.TypeChecking, 1)
	require.NoError(t, repo.Create(ctx, a1))
	require.NoError(t, repo.Create(ctx, newAccount(t, bob.ID, account.TypeChecking, 2)))

	found, total, err := repo.Search(ctx, "ALI", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, found, 1)
	assert.Equal(t, a1.Number, found[0].Number)

	found, total, err = repo.Search(ctx, "acct-00", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, found, 1)

	require.NoError(t, repo.Delete(ctx, a1.ID))
	_, err = repo.GetByNumber(ctx, a1.Number)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, a1.ID), domain.ErrNotFound)
}

func TestTransactionRepository_OrderAndFilter(t *testing.T) {
	ctx := context.Background()
	uow, _ := testutils.NewTestUoW(t)
	owner := createIdentity(t, uow, "carol")
	accounts, err := uow.AccountRepository()
	require.NoError(t, err)
	acc := newAccount(t, owner.ID, account.TypeChecking, 1)
	require.NoError(t, accounts.Create(ctx, acc))

	txs, err := uow.TransactionRepository()
	require.NoError(t, err)
	now := time.Now().UTC()
	for i, e := range []struct {
		amount int64
		dir    account.Direction
	}{{10000, account.Credit}, {3000, account.Debit}, {3000, account.Credit}} {
		entry, err := account.NewTransaction(acc.ID, int64(i+1), e.amount, e.dir, "", now)
		require.NoError(t, err)
		require.NoError(t, txs.Create(ctx, entry))
	}

	all, err := txs.ListByAccount(ctx, acc.ID, account.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{all[0].Seq, all[1].Seq, all[2].Seq})

	debit := account.Debit
	amount := int64(3000)
	filtered, err := txs.ListByAccount(ctx, acc.ID, account.Filter{Direction: &debit, Amount: &amount})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, int64(2), filtered[0].Seq)

	require.NoError(t, txs.DeleteByAccount(ctx, acc.ID))
	all, err = txs.ListByAccount(ctx, acc.ID, account.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	uow, _ := testutils.NewTestUoW(t)
	alice := createIdentity(t, uow, "alice")
	repo, err := uow.UserRepository()
	require.NoError(t, err)

	dup, err := user.New("alice", "", "", "password", user.RoleCustomer, bcrypt.MinCost)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrConflict)

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.True(t, got.CheckPassword("password"))

	_, err = repo.GetByUsername(ctx, "Alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.UpdateRole(ctx, alice.ID, user.RoleTeller))
	tellers := user.RoleTeller
	found, err := repo.Search(ctx, "LIC", &tellers)
	require.NoError(t, err)
	require.Len(t, found, 1)

	n, err := repo.CountByRole(ctx, user.RoleTeller)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.ErrorIs(t, repo.UpdatePasswordHash(ctx, uuid.New(), "x"), domain.ErrNotFound)
}

func TestLoginStateRepository(t *testing.T) {
	ctx := context.Background()
	uow, _ := testutils.NewTestUoW(t)
	alice := createIdentity(t, uow, "alice")
	repo, err := uow.LoginStateRepository()
	require.NoError(t, err)

	_, err = repo.Get(ctx, alice.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	s, err := repo.GetForUpdate(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, s.FailedAttempts)

	now := time.Now().UTC().Truncate(time.Second)
	for range 5 {
		s.Fail(now, user.DefaultLockout())
	}
	require.NoError(t, repo.Save(ctx, s))

	again, err := repo.GetForUpdate(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, again.FailedAttempts)
	require.NotNil(t, again.LockedUntil)
	assert.True(t, again.IsLocked(now))

	again.Succeed(now)
	require.NoError(t, repo.Save(ctx, again))
	cleared, err := repo.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, cleared.LockedUntil)
}

func TestRequestRepository_ResolveOnce(t *testing.T) {
	ctx := context.Background()
	uow, _ := testutils.NewTestUoW(t)
	alice := createIdentity(t, uow, "alice")
	repo, err := uow.RequestRepository()
	require.NoError(t, err)

	base := time.Now().UTC()
	first, err := request.New(request.KindAccountOpen, alice.ID,
		request.Payload{AccountType: account.TypeSavings}, base)
	require.NoError(t, err)
	second, err := request.New(request.KindAccountOpen, alice.ID,
		request.Payload{AccountType: account.TypeCard}, base.Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	pending, err := repo.ListPending(ctx, request.KindAccountOpen)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, second.ID, pending[0].ID)

	locked, err := repo.GetPendingForUpdate(ctx, first.ID)
	require.NoError(t, err)
	require.NoError(t, locked.Resolve(request.Approve, uuid.New(), base))
	require.NoError(t, repo.MarkResolved(ctx, locked))

	assert.ErrorIs(t, repo.MarkResolved(ctx, locked), request.ErrAlreadyResolved)
	_, err = repo.GetPendingForUpdate(ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	stored, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusApproved, stored.Status)
	assert.NotNil(t, stored.ResolvedAt)
	assert.Equal(t, account.TypeSavings, stored.Payload.AccountType)

	mine, err := repo.ListByRequester(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}
