// Package account implements the Account Registry: number allocation,
// opening and closing accounts, and account lookups.
package account

import (
	"context"
	"log/slog"

	"github.com/amirasaad/backoffice/pkg/audit"
	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/domain/money"
	"github.com/amirasaad/backoffice/pkg/policy"
	"github.com/amirasaad/backoffice/pkg/repository"
	"github.com/amirasaad/backoffice/pkg/service/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Search paging bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Service provides account registry operations.
type Service struct {
	uow    repository.UnitOfWork
	ledger *ledger.Service
	audit  audit.Sink
	logger *slog.Logger
}

// New creates a new account Service.
func New(
	uow repository.UnitOfWork,
	ledgerSvc *ledger.Service,
	sink audit.Sink,
	logger *slog.Logger,
) *Service {
	if sink == nil {
		sink = audit.Nop{}
	}
	return &Service{uow: uow, ledger: ledgerSvc, audit: sink, logger: logger}
}

// AllocateAccountNumber reserves the next account number in its own transaction.
func (s *Service) AllocateAccountNumber(ctx context.Context) (number string, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		number, err = s.AllocateNumberIn(ctx, uow)
		return err
	})
	return
}

// AllocateNumberIn advances the counter within the caller's unit of work, so
// the number is released again if that unit rolls back.
func (s *Service) AllocateNumberIn(ctx context.Context, uow repository.UnitOfWork) (string, error) {
	repo, err := uow.AccountRepository()
	if err != nil {
		return "", err
	}
	seq, err := repo.NextNumber(ctx)
	if err != nil {
		return "", err
	}
	return account.FormatNumber(seq)
}

// OpenAccount opens an account of typ for ownerID. A second Checking account
// for the same owner fails with domain.ErrConflict.
func (s *Service) OpenAccount(
	ctx context.Context,
	actor policy.Actor,
	ownerID uuid.UUID,
	typ account.Type,
	initial decimal.Decimal,
) (acc *account.Account, err error) {
	log := s.logger.With("method", "OpenAccount", "owner_id", ownerID, "type", typ)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		acc, err = s.OpenIn(ctx, uow, ownerID, typ, initial)
		return err
	})
	if err != nil {
		log.Error("open account failed", "error", err)
		return nil, err
	}
	s.Opened(ctx, actor, acc)
	log.Info("account opened", "number", acc.Number)
	return acc, nil
}

// OpenIn opens an account within the caller's unit of work. A positive initial
// balance is recorded as the first credit entry.
func (s *Service) OpenIn(
	ctx context.Context,
	uow repository.UnitOfWork,
	ownerID uuid.UUID,
	typ account.Type,
	initial decimal.Decimal,
) (*account.Account, error) {
	if !typ.Valid() {
		return nil, domain.Validationf("unknown account type %q", typ)
	}
	if initial.IsNegative() {
		return nil, domain.Validationf("initial balance cannot be negative")
	}
	users, err := uow.UserRepository()
	if err != nil {
		return nil, err
	}
	if _, err := users.Get(ctx, ownerID); err != nil {
		return nil, err
	}
	accounts, err := uow.AccountRepository()
	if err != nil {
		return nil, err
	}

	number, err := s.AllocateNumberIn(ctx, uow)
	if err != nil {
		return nil, err
	}
	acc, err := account.New().
		WithOwnerID(ownerID).
		WithType(typ).
		WithNumber(number).
		Build()
	if err != nil {
		return nil, err
	}
	if err := accounts.Create(ctx, acc); err != nil {
		return nil, err
	}

	if initial.IsPositive() {
		cents, err := money.ToCents(initial)
		if err != nil {
			return nil, err
		}
		_, balance, err := s.ledger.AppendIn(ctx, uow, acc.ID, cents, account.Credit, "Initial deposit")
		if err != nil {
			return nil, err
		}
		acc.Balance, acc.LastSeq = balance.Cents, balance.Seq
	}
	return acc, nil
}

// OpenDefaultCheckingIn opens the owner's Checking account. It runs in the same
// unit of work that creates the owner.
func (s *Service) OpenDefaultCheckingIn(
	ctx context.Context,
	uow repository.UnitOfWork,
	ownerID uuid.UUID,
) (*account.Account, error) {
	return s.OpenIn(ctx, uow, ownerID, account.TypeChecking, decimal.Zero)
}

// Opened records the audit entry of a committed account opening.
func (s *Service) Opened(ctx context.Context, actor policy.Actor, acc *account.Account) {
	s.audit.Record(ctx, audit.Entry{
		Actor:  actor.String(),
		Action: audit.ActionAccountOpened,
		Target: acc.Number,
		Detail: string(acc.Type) + " for " + acc.OwnerID.String(),
		At:     acc.CreatedAt,
	})
}

// CloseAccount removes an account and its ledger history. Only admins may
// close accounts directly.
func (s *Service) CloseAccount(ctx context.Context, actor policy.Actor, number string) (err error) {
	log := s.logger.With("method", "CloseAccount", "number", number)
	if err = policy.Require(actor, policy.DeleteAccount); err != nil {
		log.Error("close account denied", "role", actor.Role)
		return err
	}
	var closed *account.Account
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		closed, err = s.CloseIn(ctx, uow, number)
		return err
	})
	if err != nil {
		log.Error("close account failed", "error", err)
		return err
	}
	s.Closed(ctx, actor, closed)
	log.Info("account closed")
	return nil
}

// CloseIn closes an account within the caller's unit of work. Checking accounts
// cannot be closed since every owner keeps exactly one.
func (s *Service) CloseIn(ctx context.Context, uow repository.UnitOfWork, number string) (*account.Account, error) {
	accounts, err := uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	entries, err := uow.TransactionRepository()
	if err != nil {
		return nil, err
	}
	acc, err := accounts.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if acc.IsChecking() {
		return nil, domain.Validationf("account %s is the owner's checking account", number)
	}
	// Lock the row so no append lands between deleting the entries and the account.
	if acc, err = accounts.GetForUpdate(ctx, acc.ID); err != nil {
		return nil, err
	}
	if err := entries.DeleteByAccount(ctx, acc.ID); err != nil {
		return nil, err
	}
	if err := accounts.Delete(ctx, acc.ID); err != nil {
		return nil, err
	}
	return acc, nil
}

// Closed drops the cached balance and records the audit entry of a committed closure.
func (s *Service) Closed(ctx context.Context, actor policy.Actor, acc *account.Account) {
	s.ledger.Forget(ctx, acc.ID)
	s.audit.Record(ctx, audit.Entry{
		Actor:  actor.String(),
		Action: audit.ActionAccountClosed,
		Target: acc.Number,
		Detail: string(acc.Type) + " of " + acc.OwnerID.String(),
	})
}

// FindByNumber returns the account with number.
func (s *Service) FindByNumber(ctx context.Context, number string) (*account.Account, error) {
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	return repo.GetByNumber(ctx, number)
}

// FindByID returns the account with id.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

// FindByOwner lists the accounts of an owner. An owner without accounts
// yields an empty list.
func (s *Service) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*account.Account, error) {
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	return repo.ListByOwner(ctx, ownerID)
}

// ListAll lists every account ordered by number.
func (s *Service) ListAll(ctx context.Context) ([]*account.Account, error) {
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	return repo.List(ctx)
}

// Search matches query against account numbers and owner names. It is limited
// to staff.
func (s *Service) Search(
	ctx context.Context,
	actor policy.Actor,
	query string,
	page, limit int,
) ([]*account.Account, int64, error) {
	if err := policy.Require(actor, policy.Search); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return nil, 0, err
	}
	return repo.Search(ctx, query, page, limit)
}

// Access returns the account if actor may read and post to it: owners reach
// their own accounts, staff reach every account.
func (s *Service) Access(ctx context.Context, actor policy.Actor, number string) (*account.Account, error) {
	acc, err := s.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if acc.OwnerID == actor.ID || policy.Allow(actor, policy.AccessAnyAccount) {
		return acc, nil
	}
	return nil, domain.Forbiddenf("account %s belongs to another owner", number)
}
