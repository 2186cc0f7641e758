// Package user implements the Identity Store: onboarding, role changes and
// credential updates.
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/backoffice/pkg/audit"
	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/domain/user"
	"github.com/amirasaad/backoffice/pkg/policy"
	"github.com/amirasaad/backoffice/pkg/repository"
	userrepo "github.com/amirasaad/backoffice/pkg/repository/user"
	accountsvc "github.com/amirasaad/backoffice/pkg/service/account"
	"github.com/amirasaad/backoffice/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// passwordRule bounds passwords; bcrypt ignores input past 72 bytes.
const passwordRule = "required,min=6,max=72"

// CreateInput describes a new identity. An empty Role means Customer.
type CreateInput struct {
	Username  string    `validate:"required,min=3,max=50"`
	FirstName string    `validate:"max=100"`
	LastName  string    `validate:"max=100"`
	Password  string    `validate:"required,min=6,max=72"`
	Role      user.Role `validate:"required"`
}

// Service provides identity operations.
type Service struct {
	uow      repository.UnitOfWork
	accounts *accountsvc.Service
	audit    audit.Sink
	logger   *slog.Logger
	validate *validator.Validate
	cost     int
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a new user Service hashing passwords with the given bcrypt cost.
func New(
	uow repository.UnitOfWork,
	accounts *accountsvc.Service,
	sink audit.Sink,
	logger *slog.Logger,
	bcryptCost int,
	opts ...Option,
) *Service {
	if sink == nil {
		sink = audit.Nop{}
	}
	s := &Service{
		uow:      uow,
		accounts: accounts,
		audit:    sink,
		logger:   logger,
		validate: validator.New(),
		cost:     bcryptCost,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) check(in *CreateInput) error {
	in.Username = strings.TrimSpace(in.Username)
	if in.Role == "" {
		in.Role = user.RoleCustomer
	}
	if err := s.validate.Struct(in); err != nil {
		return domain.Validationf("invalid identity: %s", err)
	}
	if !in.Role.Valid() {
		return domain.Validationf("unknown role %q", in.Role)
	}
	return nil
}

// Create onboards an identity together with its Checking account. Customers
// may be created anonymously or by staff; employees only by admins.
func (s *Service) Create(
	ctx context.Context,
	actor policy.Actor,
	in CreateInput,
) (u *user.Identity, checking *account.Account, err error) {
	log := s.logger.With("method", "Create", "username", in.Username)
	if err = s.check(&in); err != nil {
		log.Error("invalid input", "error", err)
		return nil, nil, err
	}
	if err = policy.Require(actor, policy.CreateIdentity, in.Role); err != nil {
		log.Error("create denied", "actor_role", actor.Role, "role", in.Role)
		return nil, nil, err
	}
	return s.onboard(ctx, actor, in, nil)
}

// Bootstrap creates the first Admin. It fails with domain.ErrConflict once an
// Admin exists.
func (s *Service) Bootstrap(ctx context.Context, in CreateInput) (*user.Identity, *account.Account, error) {
	in.Role = user.RoleAdmin
	if err := s.check(&in); err != nil {
		return nil, nil, err
	}
	return s.onboard(ctx, policy.System(), in, func(repo userrepo.Repository) error {
		admins, err := repo.CountByRole(ctx, user.RoleAdmin)
		if err != nil {
			return err
		}
		if admins > 0 {
			return domain.Conflictf("an admin already exists")
		}
		return nil
	})
}

func (s *Service) onboard(
	ctx context.Context,
	actor policy.Actor,
	in CreateInput,
	guard func(repo userrepo.Repository) error,
) (u *user.Identity, checking *account.Account, err error) {
	log := s.logger.With("method", "onboard", "username", in.Username, "role", in.Role)
	u, err = user.New(in.Username, in.FirstName, in.LastName, in.Password, in.Role, s.cost)
	if err != nil {
		return nil, nil, err
	}
	u.CreatedAt = s.now().UTC()

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(repo); err != nil {
				return err
			}
		}
		if err := repo.Create(ctx, u); err != nil {
			return err
		}
		checking, err = s.accounts.OpenDefaultCheckingIn(ctx, uow, u.ID)
		return err
	})
	if err != nil {
		log.Error("onboarding failed", "error", err)
		return nil, nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Actor:  actor.String(),
		Action: audit.ActionIdentityCreated,
		Target: u.ID.String(),
		Detail: u.Username + " as " + string(u.Role),
		At:     u.CreatedAt,
	})
	s.accounts.Opened(ctx, actor, checking)
	log.Info("identity created", "id", u.ID, "checking", checking.Number)
	return u, checking, nil
}

// Get returns the identity with id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*user.Identity, error) {
	repo, err := s.uow.UserRepository()
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

// FindByUsername returns the identity with exactly this username.
func (s *Service) FindByUsername(ctx context.Context, username string) (*user.Identity, error) {
	repo, err := s.uow.UserRepository()
	if err != nil {
		return nil, err
	}
	return repo.GetByUsername(ctx, username)
}

// Search lists identities whose username contains query. Staff only.
func (s *Service) Search(
	ctx context.Context,
	actor policy.Actor,
	query string,
	role *user.Role,
) ([]*user.Identity, error) {
	if err := policy.Require(actor, policy.Search); err != nil {
		return nil, err
	}
	repo, err := s.uow.UserRepository()
	if err != nil {
		return nil, err
	}
	return repo.Search(ctx, query, role)
}

// SetRole changes the role of another identity. Customers can never gain or
// lose the Customer role, and the last Admin cannot be demoted.
func (s *Service) SetRole(
	ctx context.Context,
	actor policy.Actor,
	targetID uuid.UUID,
	role user.Role,
) (u *user.Identity, err error) {
	log := s.logger.With("method", "SetRole", "target", targetID, "role", role)
	if !role.Valid() {
		return nil, domain.Validationf("unknown role %q", role)
	}
	if targetID == actor.ID {
		log.Error("set role denied", "error", "own role")
		return nil, domain.Forbiddenf("an identity cannot change its own role")
	}
	var previous user.Role
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		if u, err = repo.Get(ctx, targetID); err != nil {
			return err
		}
		if err := policy.Require(actor, policy.EditRole, u.Role, role); err != nil {
			return err
		}
		previous = u.Role
		if previous == user.RoleAdmin && role != user.RoleAdmin {
			admins, err := repo.CountByRole(ctx, user.RoleAdmin)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return domain.Conflictf("cannot demote the last admin")
			}
		}
		if err := repo.UpdateRole(ctx, targetID, role); err != nil {
			return err
		}
		u.Role = role
		return nil
	})
	if err != nil {
		log.Error("set role failed", "error", err)
		return nil, err
	}
	s.audit.Record(ctx, audit.Entry{
		Actor:  actor.String(),
		Action: audit.ActionRoleChanged,
		Target: targetID.String(),
		Detail: string(previous) + " -> " + string(role),
		At:     s.now().UTC(),
	})
	log.Info("role changed", "from", previous)
	return u, nil
}

// SetPasswordHash overwrites the stored credential with an already hashed value.
func (s *Service) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	repo, err := s.uow.UserRepository()
	if err != nil {
		return err
	}
	return repo.UpdatePasswordHash(ctx, id, hash)
}

// SetTemporaryPasswordIn replaces the credential within the caller's unit of
// work and requires a password change at the next login.
func (s *Service) SetTemporaryPasswordIn(
	ctx context.Context,
	uow repository.UnitOfWork,
	id uuid.UUID,
	password string,
) error {
	hash, err := utils.HashPassword(password, s.cost)
	if err != nil {
		return err
	}
	repo, err := uow.UserRepository()
	if err != nil {
		return err
	}
	if err := repo.UpdatePasswordHash(ctx, id, hash); err != nil {
		return err
	}
	states, err := uow.LoginStateRepository()
	if err != nil {
		return err
	}
	state, err := states.GetForUpdate(ctx, id)
	if err != nil {
		return err
	}
	state.RequirePasswordChange(s.now().UTC())
	return states.Save(ctx, state)
}

// ChangePassword is the self-service password change. It verifies the current
// password and clears the force-password-change flag.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) (err error) {
	log := s.logger.With("method", "ChangePassword", "id", id)
	if err = s.validate.Var(next, passwordRule); err != nil {
		return domain.Validationf("invalid new password: %s", err)
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !u.CheckPassword(current) {
		log.Error("current password mismatch")
		return fmt.Errorf("current password is incorrect: %w", domain.ErrUnauthorized)
	}
	hash, err := utils.HashPassword(next, s.cost)
	if err != nil {
		return err
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		if err := repo.UpdatePasswordHash(ctx, id, hash); err != nil {
			return err
		}
		states, err := uow.LoginStateRepository()
		if err != nil {
			return err
		}
		state, err := states.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		state.ClearPasswordChange(s.now().UTC())
		return states.Save(ctx, state)
	})
	if err != nil {
		log.Error("change password failed", "error", err)
		return err
	}
	s.audit.Record(ctx, audit.Entry{
		Actor:  id.String(),
		Action: audit.ActionPasswordChanged,
		Target: id.String(),
		At:     s.now().UTC(),
	})
	log.Info("password changed")
	return nil
}
