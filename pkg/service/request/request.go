// Package request implements the approval workflow for account opening,
// account deletion and password reset requests.
//
// A request is resolved exactly once. Resolve locks the pending row, checks
// the policy, runs the kind-specific side effect and only then marks the
// request resolved, all in one transaction: a failing side effect leaves the
// request Pending.
package request

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/backoffice/pkg/audit"
	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/domain/request"
	"github.com/amirasaad/backoffice/pkg/policy"
	"github.com/amirasaad/backoffice/pkg/repository"
	accountsvc "github.com/amirasaad/backoffice/pkg/service/account"
	usersvc "github.com/amirasaad/backoffice/pkg/service/user"
	"github.com/amirasaad/backoffice/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultTemporaryPasswordLength is used when no length is configured.
const DefaultTemporaryPasswordLength = 12

// Outcome is the result of a resolution.
type Outcome struct {
	Request *request.Request
	// Account is the account opened by an approved AccountOpen request.
	Account *account.Account
	// TemporaryPassword is the credential issued by an approved PasswordReset
	// request. It is handed to the approver once and never stored in clear.
	TemporaryPassword string
}

// Service is the approval workflow engine.
type Service struct {
	uow      repository.UnitOfWork
	accounts *accountsvc.Service
	users    *usersvc.Service
	audit    audit.Sink
	logger   *slog.Logger
	now      func() time.Time
	tempLen  int
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTemporaryPasswordLength sets the length of issued temporary credentials.
func WithTemporaryPasswordLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.tempLen = n
		}
	}
}

// New creates a new request Service.
func New(
	uow repository.UnitOfWork,
	accounts *accountsvc.Service,
	users *usersvc.Service,
	sink audit.Sink,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	if sink == nil {
		sink = audit.Nop{}
	}
	s := &Service{
		uow:      uow,
		accounts: accounts,
		users:    users,
		audit:    sink,
		logger:   logger,
		now:      time.Now,
		tempLen:  DefaultTemporaryPasswordLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit files a Pending request for requesterID. Customers submit for
// themselves; staff may submit on behalf of any identity.
func (s *Service) Submit(
	ctx context.Context,
	actor policy.Actor,
	kind request.Kind,
	requesterID uuid.UUID,
	payload request.Payload,
) (req *request.Request, err error) {
	log := s.logger.With("method", "Submit", "kind", kind, "requester", requesterID)
	if actor.IsAnonymous() {
		return nil, domain.Forbiddenf("anonymous submissions are limited to password resets")
	}
	if requesterID != actor.ID {
		if err = policy.Require(actor, policy.SubmitOnBehalf); err != nil {
			log.Error("submit denied", "role", actor.Role)
			return nil, err
		}
	}
	if req, err = request.New(kind, requesterID, payload, s.now().UTC()); err != nil {
		return nil, err
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, err := uow.UserRepository()
		if err != nil {
			return err
		}
		if _, err := users.Get(ctx, requesterID); err != nil {
			return err
		}
		if kind == request.KindAccountDeletion {
			if err := s.checkDeletionTarget(ctx, uow, requesterID, payload.AccountNumber); err != nil {
				return err
			}
		}
		repo, err := uow.RequestRepository()
		if err != nil {
			return err
		}
		return repo.Create(ctx, req)
	})
	if err != nil {
		log.Error("submit failed", "error", err)
		return nil, err
	}
	s.recordSubmitted(ctx, actor, req)
	log.Info("request submitted", "id", req.ID)
	return req, nil
}

func (s *Service) checkDeletionTarget(
	ctx context.Context,
	uow repository.UnitOfWork,
	requesterID uuid.UUID,
	number string,
) error {
	accounts, err := uow.AccountRepository()
	if err != nil {
		return err
	}
	acc, err := accounts.GetByNumber(ctx, number)
	if err != nil || acc.OwnerID != requesterID {
		return domain.Validationf("account %s does not belong to the requester", number)
	}
	if acc.IsChecking() {
		return domain.Validationf("account %s is the default checking account", number)
	}
	return nil
}

// SubmitPasswordReset is the unauthenticated forgot-password entry point.
func (s *Service) SubmitPasswordReset(ctx context.Context, username string) (req *request.Request, err error) {
	log := s.logger.With("method", "SubmitPasswordReset")
	identity, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		log.Error("unknown username", "error", err)
		return nil, err
	}
	if req, err = request.New(request.KindPasswordReset, identity.ID, request.Payload{}, s.now().UTC()); err != nil {
		return nil, err
	}
	repo, err := s.uow.RequestRepository()
	if err != nil {
		return nil, err
	}
	if err = repo.Create(ctx, req); err != nil {
		log.Error("submit failed", "error", err)
		return nil, err
	}
	s.recordSubmitted(ctx, policy.Anonymous(), req)
	log.Info("password reset requested", "id", req.ID)
	return req, nil
}

func (s *Service) recordSubmitted(ctx context.Context, actor policy.Actor, req *request.Request) {
	s.audit.Record(ctx, audit.Entry{
		Actor:  actor.String(),
		Action: audit.ActionRequestSubmit,
		Target: req.ID.String(),
		Detail: string(req.Kind) + " for " + req.RequesterID.String(),
		At:     req.RequestedAt,
	})
}

// Get returns a request. Requesters see their own requests, staff see all.
func (s *Service) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*request.Request, error) {
	repo, err := s.uow.RequestRepository()
	if err != nil {
		return nil, err
	}
	req, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canView(actor, req.RequesterID); err != nil {
		return nil, err
	}
	return req, nil
}

// ListPending lists Pending requests of kind, newest first. Listing requires
// the role that may resolve the kind.
func (s *Service) ListPending(ctx context.Context, actor policy.Actor, kind request.Kind) ([]*request.Request, error) {
	if !kind.Valid() {
		return nil, domain.Validationf("unknown request kind %q", kind)
	}
	if err := policy.Require(actor, policy.ResolveOperation(kind)); err != nil {
		return nil, err
	}
	repo, err := s.uow.RequestRepository()
	if err != nil {
		return nil, err
	}
	return repo.ListPending(ctx, kind)
}

// ListByRequester lists every request of an identity, newest first.
func (s *Service) ListByRequester(
	ctx context.Context,
	actor policy.Actor,
	requesterID uuid.UUID,
) ([]*request.Request, error) {
	if err := canView(actor, requesterID); err != nil {
		return nil, err
	}
	repo, err := s.uow.RequestRepository()
	if err != nil {
		return nil, err
	}
	return repo.ListByRequester(ctx, requesterID)
}

func canView(actor policy.Actor, requesterID uuid.UUID) error {
	if actor.ID == requesterID || actor.Role.IsEmployee() {
		return nil
	}
	return domain.Forbiddenf("request belongs to another identity")
}

// Resolve approves or rejects a Pending request.
func (s *Service) Resolve(
	ctx context.Context,
	actor policy.Actor,
	id uuid.UUID,
	decision request.Decision,
) (out *Outcome, err error) {
	log := s.logger.With("method", "Resolve", "id", id, "decision", decision)
	if !decision.Valid() {
		return nil, domain.Validationf("unknown decision %q", decision)
	}

	var closed *account.Account
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		out, closed = &Outcome{}, nil
		repo, err := uow.RequestRepository()
		if err != nil {
			return err
		}
		req, err := repo.GetPendingForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := policy.Require(actor, policy.ResolveOperation(req.Kind)); err != nil {
			return err
		}
		if decision == request.Approve {
			if closed, err = s.apply(ctx, uow, req, out); err != nil {
				return err
			}
		}
		if err := req.Resolve(decision, actor.ID, s.now().UTC()); err != nil {
			return err
		}
		if err := repo.MarkResolved(ctx, req); err != nil {
			return err
		}
		out.Request = req
		return nil
	})
	if err != nil {
		log.Error("resolve failed", "error", err)
		return nil, err
	}

	if out.Account != nil {
		s.accounts.Opened(ctx, actor, out.Account)
	}
	if closed != nil {
		s.accounts.Closed(ctx, actor, closed)
	}
	action := audit.ActionRequestApproved
	if decision == request.Reject {
		action = audit.ActionRequestRejected
	}
	s.audit.Record(ctx, audit.Entry{
		Actor:  actor.String(),
		Action: action,
		Target: id.String(),
		Detail: string(out.Request.Kind),
		At:     *out.Request.ResolvedAt,
	})
	log.Info("request resolved", "kind", out.Request.Kind, "status", out.Request.Status)
	return out, nil
}

// apply runs the side effect of an approved request. It returns the closed
// account for AccountDeletion so the caller can evict it after commit.
func (s *Service) apply(
	ctx context.Context,
	uow repository.UnitOfWork,
	req *request.Request,
	out *Outcome,
) (*account.Account, error) {
	switch req.Kind {
	case request.KindAccountOpen:
		acc, err := s.accounts.OpenIn(ctx, uow, req.RequesterID, req.Payload.AccountType, decimal.Zero)
		if err != nil {
			return nil, err
		}
		out.Account = acc
		return nil, nil
	case request.KindAccountDeletion:
		return s.accounts.CloseIn(ctx, uow, req.Payload.AccountNumber)
	case request.KindPasswordReset:
		temp, err := utils.GenerateTemporaryPassword(s.tempLen)
		if err != nil {
			return nil, err
		}
		if err := s.users.SetTemporaryPasswordIn(ctx, uow, req.RequesterID, temp); err != nil {
			return nil, err
		}
		out.TemporaryPassword = temp
		return nil, nil
	}
	return nil, domain.Validationf("unknown request kind %q", req.Kind)
}
