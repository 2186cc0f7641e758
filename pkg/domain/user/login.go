package user

import (
	"time"

	"github.com/google/uuid"
)

// Default lockout parameters.
const (
	DefaultMaxFailedAttempts = 5
	DefaultLockoutDuration   = 24 * time.Hour
)

// Lockout configures the login state machine.
type Lockout struct {
	MaxAttempts int
	Duration    time.Duration
}

// DefaultLockout returns five attempts and a 24 hour lock.
func DefaultLockout() Lockout {
	return Lockout{MaxAttempts: DefaultMaxFailedAttempts, Duration: DefaultLockoutDuration}
}

// LoginState tracks failed authentication attempts for one identity.
//
// States:
//   - Active(n): LockedUntil is nil (or in the past), 0 <= n < MaxAttempts
//   - Locked(until): LockedUntil is after now
type LoginState struct {
	IdentityID          uuid.UUID
	FailedAttempts      int
	LockedUntil         *time.Time
	ForcePasswordChange bool
	UpdatedAt           time.Time
}

// NewLoginState returns the Active(0) state for an identity.
func NewLoginState(identityID uuid.UUID) *LoginState {
	return &LoginState{IdentityID: identityID}
}

// IsLocked is a pure time comparison against the lock expiry.
func (s *LoginState) IsLocked(now time.Time) bool {
	return s.LockedUntil != nil && now.Before(*s.LockedUntil)
}

// ClearExpiredLock turns an elapsed Locked state back into Active(0). It reports
// whether the state changed.
func (s *LoginState) ClearExpiredLock(now time.Time) bool {
	if s.LockedUntil == nil || s.IsLocked(now) {
		return false
	}
	s.LockedUntil = nil
	s.FailedAttempts = 0
	s.UpdatedAt = now
	return true
}

// Fail applies a failed credential check to an Active state. It returns the
// attempts left before the lock engages and whether this failure locked the identity.
func (s *LoginState) Fail(now time.Time, l Lockout) (remaining int, locked bool) {
	s.FailedAttempts++
	s.UpdatedAt = now
	if s.FailedAttempts >= l.MaxAttempts {
		until := now.Add(l.Duration)
		s.LockedUntil = &until
		return 0, true
	}
	return l.MaxAttempts - s.FailedAttempts, false
}

// Succeed resets the counter after a successful credential check.
func (s *LoginState) Succeed(now time.Time) {
	s.FailedAttempts = 0
	s.LockedUntil = nil
	s.UpdatedAt = now
}

// Unlock is the administrative override; equivalent to Succeed and valid while locked.
func (s *LoginState) Unlock(now time.Time) {
	s.Succeed(now)
}

// RequirePasswordChange marks that a temporary credential was issued.
func (s *LoginState) RequirePasswordChange(now time.Time) {
	s.ForcePasswordChange = true
	s.UpdatedAt = now
}

// ClearPasswordChange records a self-service password change.
func (s *LoginState) ClearPasswordChange(now time.Time) {
	s.ForcePasswordChange = false
	s.UpdatedAt = now
}
