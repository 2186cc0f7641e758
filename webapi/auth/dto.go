package auth

import "time"

// LoginInput represents the request body for user authentication.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	Token              string    `json:"token"`
	ExpiresAt          time.Time `json:"expires_at"`
	MustChangePassword bool      `json:"must_change_password"`
}

// AttemptDetails accompanies a rejected login of a known identity.
type AttemptDetails struct {
	Remaining   int        `json:"remaining"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
}

// PasswordResetInput represents the forgot-password request body.
type PasswordResetInput struct {
	Username string `json:"username" validate:"required"`
}

// ChangePasswordInput represents the self-service password change body.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
}
