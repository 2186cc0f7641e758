// Package login implements the Login Guard: credential checks with a per
// identity failure counter and a time-boxed lockout.
package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/backoffice/pkg/audit"
	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/user"
	"github.com/amirasaad/backoffice/pkg/policy"
	"github.com/amirasaad/backoffice/pkg/repository"
	"github.com/amirasaad/backoffice/pkg/utils"
	"github.com/google/uuid"
)

// dummyHash is compared against when the username is unknown so both paths
// spend a bcrypt verification.
const dummyHash = "$2a$10$7zFqzDbD3RrlkMTczbXG9OWZ0FLOXjIxXzSZ.QZxkVXjXcx7QZQiC"

// ErrInvalidCredentials is returned for unknown usernames.
var ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)

// AttemptError reports a rejected login against a known identity. It unwraps
// to domain.ErrUnauthorized or domain.ErrLocked.
type AttemptError struct {
	Kind error
	// Remaining is the number of failures left before the lock engages.
	Remaining int
	// LockedUntil is set when the identity is, or just became, locked.
	LockedUntil *time.Time
}

func (e *AttemptError) Error() string {
	if errors.Is(e.Kind, domain.ErrLocked) {
		return fmt.Sprintf("account locked until %s", e.LockedUntil.UTC().Format(time.RFC3339))
	}
	if advisory := e.Advisory(); advisory != "" {
		return "invalid credentials; " + advisory
	}
	return "invalid credentials"
}

func (e *AttemptError) Unwrap() error { return e.Kind }

// Advisory is the caller-facing hint attached to a failure: a warning when one
// attempt remains, or the lock expiry once the lock engaged.
func (e *AttemptError) Advisory() string {
	switch {
	case e.LockedUntil != nil:
		return "account locked until " + e.LockedUntil.UTC().Format(time.RFC3339)
	case e.Remaining == 1:
		return "1 attempt remaining"
	}
	return ""
}

// Result is a successful login.
type Result struct {
	Identity           *user.Identity
	MustChangePassword bool
}

// Service provides the login contract.
type Service struct {
	uow     repository.UnitOfWork
	audit   audit.Sink
	logger  *slog.Logger
	lockout user.Lockout
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the time source used for lock expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLockout overrides the default five attempts and 24 hour lock.
func WithLockout(l user.Lockout) Option {
	return func(s *Service) {
		if l.MaxAttempts > 0 {
			s.lockout.MaxAttempts = l.MaxAttempts
		}
		if l.Duration > 0 {
			s.lockout.Duration = l.Duration
		}
	}
}

// New creates a new login Service.
func New(uow repository.UnitOfWork, sink audit.Sink, logger *slog.Logger, opts ...Option) *Service {
	if sink == nil {
		sink = audit.Nop{}
	}
	s := &Service{
		uow:     uow,
		audit:   sink,
		logger:  logger,
		lockout: user.DefaultLockout(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login checks credentials. A locked identity is rejected with
// domain.ErrLocked before the password is evaluated; a wrong password
// increments the failure counter and the final allowed failure engages the lock.
func (s *Service) Login(ctx context.Context, username, password string) (result *Result, err error) {
	log := s.logger.With("method", "Login", "username", username)
	users, err := s.uow.UserRepository()
	if err != nil {
		return nil, err
	}
	identity, err := users.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		_ = utils.CheckPasswordHash(password, dummyHash)
		log.Error("login failed", "error", ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	// The attempt outcome is carried outside the unit of work so that the
	// failure counter commits even though the login is rejected.
	var rejected *AttemptError
	var now time.Time
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		rejected, result = nil, nil
		states, err := uow.LoginStateRepository()
		if err != nil {
			return err
		}
		now = s.now().UTC()
		// No row means no failures and no pending password change. A correct
		// password then needs no write; anything else takes the row lock.
		_, err = states.Get(ctx, identity.ID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			if identity.CheckPassword(password) {
				result = &Result{Identity: identity}
				return nil
			}
		case err != nil:
			return err
		}
		state, err := states.GetForUpdate(ctx, identity.ID)
		if err != nil {
			return err
		}
		if state.IsLocked(now) {
			rejected = &AttemptError{Kind: domain.ErrLocked, LockedUntil: state.LockedUntil}
			return nil
		}
		state.ClearExpiredLock(now)

		if !identity.CheckPassword(password) {
			remaining, locked := state.Fail(now, s.lockout)
			rejected = &AttemptError{Kind: domain.ErrUnauthorized, Remaining: remaining}
			if locked {
				rejected.LockedUntil = state.LockedUntil
			}
			return states.Save(ctx, state)
		}
		state.Succeed(now)
		result = &Result{Identity: identity, MustChangePassword: state.ForcePasswordChange}
		return states.Save(ctx, state)
	})
	if err != nil {
		log.Error("login state update failed", "error", err)
		return nil, err
	}

	target := identity.ID.String()
	if rejected != nil {
		action := audit.ActionLoginFailed
		if rejected.LockedUntil != nil {
			action = audit.ActionLoginLocked
		}
		s.audit.Record(ctx, audit.Entry{Actor: target, Action: action, Target: target, Detail: rejected.Error(), At: now})
		log.Error("login rejected", "error", rejected, "remaining", rejected.Remaining)
		return nil, rejected
	}
	s.audit.Record(ctx, audit.Entry{Actor: target, Action: audit.ActionLoginSucceeded, Target: target, At: now})
	log.Info("login successful", "id", identity.ID)
	return result, nil
}

// Unlock resets an identity to Active(0), even while locked. Admin only.
func (s *Service) Unlock(ctx context.Context, actor policy.Actor, identityID uuid.UUID) (err error) {
	log := s.logger.With("method", "Unlock", "id", identityID)
	if err = policy.Require(actor, policy.UnlockIdentity); err != nil {
		log.Error("unlock denied", "role", actor.Role)
		return err
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, err := uow.UserRepository()
		if err != nil {
			return err
		}
		if _, err := users.Get(ctx, identityID); err != nil {
			return err
		}
		states, err := uow.LoginStateRepository()
		if err != nil {
			return err
		}
		state, err := states.GetForUpdate(ctx, identityID)
		if err != nil {
			return err
		}
		state.Unlock(s.now().UTC())
		return states.Save(ctx, state)
	})
	if err != nil {
		log.Error("unlock failed", "error", err)
		return err
	}
	s.audit.Record(ctx, audit.Entry{
		Actor:  actor.String(),
		Action: audit.ActionUnlocked,
		Target: identityID.String(),
		At:     s.now().UTC(),
	})
	log.Info("identity unlocked")
	return nil
}

// State returns a snapshot of the login state; an identity that never had a
// failed attempt reports Active(0).
func (s *Service) State(ctx context.Context, identityID uuid.UUID) (*user.LoginState, error) {
	users, err := s.uow.UserRepository()
	if err != nil {
		return nil, err
	}
	if _, err := users.Get(ctx, identityID); err != nil {
		return nil, err
	}
	states, err := s.uow.LoginStateRepository()
	if err != nil {
		return nil, err
	}
	state, err := states.Get(ctx, identityID)
	if errors.Is(err, domain.ErrNotFound) {
		return user.NewLoginState(identityID), nil
	}
	return state, err
}

// IsLocked reports whether the identity is currently locked out.
func (s *Service) IsLocked(ctx context.Context, identityID uuid.UUID) (bool, error) {
	state, err := s.State(ctx, identityID)
	if err != nil {
		return false, err
	}
	return state.IsLocked(s.now()), nil
}
