// Package ledger records balance-affecting events as immutable entries and
// derives account balances from them.
//
// Every append locks the account row, so the entries of one account form a
// single serial history numbered by Seq. The account row carries the
// incrementally maintained balance; ReplayBalance recomputes it from the
// entries and Reconcile compares the two.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/backoffice/pkg/audit"
	"github.com/amirasaad/backoffice/pkg/cache"
	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/domain/money"
	"github.com/amirasaad/backoffice/pkg/policy"
	"github.com/amirasaad/backoffice/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service is the Ledger Store.
type Service struct {
	uow      repository.UnitOfWork
	balances cache.BalanceCache
	audit    audit.Sink
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the time source used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a new ledger Service.
func New(
	uow repository.UnitOfWork,
	balances cache.BalanceCache,
	sink audit.Sink,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	if balances == nil {
		balances = cache.Nop{}
	}
	if sink == nil {
		sink = audit.Nop{}
	}
	s := &Service{
		uow:      uow,
		balances: balances,
		audit:    sink,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reconciliation compares the incremental balance of an account with a full
// replay of its entries.
type Reconciliation struct {
	AccountID   uuid.UUID
	Incremental decimal.Decimal
	Replayed    decimal.Decimal
	Entries     int
	LastSeq     int64
	Consistent  bool
}

// Append records one entry against accountID and returns it. Debits are never
// rejected for insufficient funds.
func (s *Service) Append(
	ctx context.Context,
	actor policy.Actor,
	accountID uuid.UUID,
	amount decimal.Decimal,
	direction account.Direction,
	description string,
) (entry *account.Transaction, err error) {
	log := s.logger.With("method", "Append", "account_id", accountID, "direction", direction)
	cents, err := money.ToCents(amount)
	if err != nil {
		log.Error("invalid amount", "error", err)
		return nil, err
	}

	var balance cache.Balance
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		var appendErr error
		entry, balance, appendErr = s.AppendIn(ctx, uow, accountID, cents, direction, description)
		return appendErr
	})
	if err != nil {
		log.Error("append failed", "error", err)
		return nil, err
	}

	s.remember(ctx, accountID, balance)
	s.audit.Record(ctx, audit.Entry{
		Actor:  actor.String(),
		Action: audit.ActionEntryAppended,
		Target: accountID.String(),
		Detail: string(direction) + " " + entry.AmountDecimal().StringFixed(money.Scale),
		At:     entry.CreatedAt,
	})
	log.Info("entry appended", "seq", entry.Seq)
	return entry, nil
}

// AppendIn appends within the caller's unit of work. The returned balance must
// be handed to Remember once the caller has committed.
func (s *Service) AppendIn(
	ctx context.Context,
	uow repository.UnitOfWork,
	accountID uuid.UUID,
	cents int64,
	direction account.Direction,
	description string,
) (*account.Transaction, cache.Balance, error) {
	if !direction.Valid() {
		return nil, cache.Balance{}, domain.Validationf("unknown direction %q", direction)
	}
	accounts, err := uow.AccountRepository()
	if err != nil {
		return nil, cache.Balance{}, err
	}
	entries, err := uow.TransactionRepository()
	if err != nil {
		return nil, cache.Balance{}, err
	}

	acc, err := accounts.GetForUpdate(ctx, accountID)
	if err != nil {
		return nil, cache.Balance{}, err
	}
	entry, err := account.NewTransaction(acc.ID, acc.LastSeq+1, cents, direction, description, s.now().UTC())
	if err != nil {
		return nil, cache.Balance{}, err
	}
	next, err := account.Apply(acc.Balance, entry)
	if err != nil {
		return nil, cache.Balance{}, err
	}
	if err := entries.Create(ctx, entry); err != nil {
		return nil, cache.Balance{}, err
	}
	balance := cache.Balance{Cents: next, Seq: entry.Seq}
	if err := accounts.UpdateBalance(ctx, acc.ID, balance.Cents, balance.Seq); err != nil {
		return nil, cache.Balance{}, err
	}
	return entry, balance, nil
}

// Remember stores a committed balance in the cache.
func (s *Service) Remember(ctx context.Context, accountID uuid.UUID, b cache.Balance) {
	s.remember(ctx, accountID, b)
}

// Forget drops the cached balance of a closed account.
func (s *Service) Forget(ctx context.Context, accountID uuid.UUID) {
	if err := s.balances.Delete(ctx, accountID); err != nil {
		s.logger.Warn("balance cache delete failed", "account_id", accountID, "error", err)
	}
}

func (s *Service) remember(ctx context.Context, accountID uuid.UUID, b cache.Balance) {
	if err := s.balances.Set(ctx, accountID, b); err != nil {
		s.logger.Warn("balance cache set failed", "account_id", accountID, "error", err)
	}
}

// Balance returns the incremental balance, read through the cache.
func (s *Service) Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	log := s.logger.With("method", "Balance", "account_id", accountID)
	b, ok, err := s.balances.Get(ctx, accountID)
	if err != nil {
		log.Warn("balance cache get failed", "error", err)
	}
	if ok {
		return money.FromCents(b.Cents), nil
	}

	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return decimal.Zero, err
	}
	acc, err := accounts.Get(ctx, accountID)
	if err != nil {
		log.Error("account lookup failed", "error", err)
		return decimal.Zero, err
	}
	s.remember(ctx, accountID, cache.Balance{Cents: acc.Balance, Seq: acc.LastSeq})
	return acc.BalanceDecimal(), nil
}

// ReplayBalance folds every entry of the account, ignoring the stored balance.
func (s *Service) ReplayBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	history, err := s.History(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return money.FromCents(account.Fold(history)), nil
}

// Reconcile locks the account, replays its entries and compares the result
// with the incremental balance. A consistent result refreshes the cache.
func (s *Service) Reconcile(ctx context.Context, accountID uuid.UUID) (r *Reconciliation, err error) {
	log := s.logger.With("method", "Reconcile", "account_id", accountID)
	var incremental, replayed int64
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		entries, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		acc, err := accounts.GetForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		history, err := entries.ListByAccount(ctx, accountID, account.Filter{})
		if err != nil {
			return err
		}
		incremental, replayed = acc.Balance, account.Fold(history)
		r = &Reconciliation{
			AccountID:   accountID,
			Incremental: money.FromCents(incremental),
			Replayed:    money.FromCents(replayed),
			Entries:     len(history),
			LastSeq:     acc.LastSeq,
			Consistent:  incremental == replayed,
		}
		return nil
	})
	if err != nil {
		log.Error("reconcile failed", "error", err)
		return nil, err
	}
	if !r.Consistent {
		log.Warn("balance mismatch", "incremental", incremental, "replayed", replayed)
		return r, nil
	}
	s.remember(ctx, accountID, cache.Balance{Cents: incremental, Seq: r.LastSeq})
	return r, nil
}

// History returns every entry of the account, most recent first.
func (s *Service) History(ctx context.Context, accountID uuid.UUID) ([]*account.Transaction, error) {
	return s.Search(ctx, accountID, account.Filter{})
}

// Search returns the entries of the account matching filter, most recent first.
func (s *Service) Search(
	ctx context.Context,
	accountID uuid.UUID,
	filter account.Filter,
) ([]*account.Transaction, error) {
	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	if _, err := accounts.Get(ctx, accountID); err != nil {
		return nil, err
	}
	entries, err := s.uow.TransactionRepository()
	if err != nil {
		return nil, err
	}
	return entries.ListByAccount(ctx, accountID, filter)
}
