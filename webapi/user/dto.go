package user

import (
	"time"

	"github.com/amirasaad/backoffice/pkg/domain/user"
	accountweb "github.com/amirasaad/backoffice/webapi/account"
)

// NewUser represents the request body for creating an identity. Role defaults
// to Customer.
type NewUser struct {
	Username  string `json:"username" validate:"required,max=50,min=3"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	Role      string `json:"role" validate:"max=20"`
}

// CreatedUser is returned after onboarding.
type CreatedUser struct {
	Identity *user.Identity             `json:"identity"`
	Checking *accountweb.AccountResponse `json:"checking_account"`
}

// RoleInput represents the request body for changing a role.
type RoleInput struct {
	Role string `json:"role" validate:"required"`
}

// LoginStateResponse is the wire form of a login state.
type LoginStateResponse struct {
	FailedAttempts      int        `json:"failed_attempts"`
	LockedUntil         *time.Time `json:"locked_until,omitempty"`
	Locked              bool       `json:"locked"`
	ForcePasswordChange bool       `json:"force_password_change"`
}
