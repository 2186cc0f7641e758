package auth

import (
	"errors"

	"github.com/amirasaad/backoffice/pkg/config"
	authsvc "github.com/amirasaad/backoffice/pkg/service/auth"
	loginsvc "github.com/amirasaad/backoffice/pkg/service/login"
	requestsvc "github.com/amirasaad/backoffice/pkg/service/request"
	usersvc "github.com/amirasaad/backoffice/pkg/service/user"
	"github.com/amirasaad/backoffice/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// Routes registers the authentication endpoints.
func Routes(
	app *fiber.App,
	loginSvc *loginsvc.Service,
	authSvc *authsvc.Service,
	userSvc *usersvc.Service,
	requestSvc *requestsvc.Service,
	cfg *config.App,
) {
	app.Post("/auth/login", Login(loginSvc, authSvc))
	app.Post("/auth/password-reset", RequestPasswordReset(requestSvc))
	app.Put("/auth/password", common.JwtProtected(cfg.Auth.Jwt, userSvc), ChangePassword(userSvc))
}

// Login authenticates a username and password and returns a bearer token.
// Rejections of a known identity carry the remaining attempts or the lock
// expiry.
func Login(loginSvc *loginsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[LoginInput](c)
		if input == nil {
			return err // Error already written by BindAndValidate
		}
		result, err := loginSvc.Login(c.Context(), input.Username, input.Password)
		if err != nil {
			var attempt *loginsvc.AttemptError
			if errors.As(err, &attempt) {
				title := "Invalid username or password"
				if attempt.LockedUntil != nil {
					title = "Account locked"
				}
				return common.ProblemDetailsJSON(c, title, err, attempt.Error(), AttemptDetails{
					Remaining:   attempt.Remaining,
					LockedUntil: attempt.LockedUntil,
				})
			}
			if errors.Is(err, loginsvc.ErrInvalidCredentials) {
				return common.ProblemDetailsJSON(c, "Invalid username or password", err, "Username or password is incorrect")
			}
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		}
		token, expiresAt, err := authSvc.Issue(result.Identity)
		if err != nil {
			log.Errorf("Failed to issue token: %v", err)
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Success login", LoginResponse{
			Token:              token,
			ExpiresAt:          expiresAt,
			MustChangePassword: result.MustChangePassword,
		})
	}
}

// RequestPasswordReset files a PasswordReset request for a username. It needs
// no authentication.
func RequestPasswordReset(requestSvc *requestsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[PasswordResetInput](c)
		if input == nil {
			return err
		}
		req, err := requestSvc.SubmitPasswordReset(c.Context(), input.Username)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't request password reset", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusAccepted, "Password reset requested", fiber.Map{
			"id":     req.ID,
			"status": req.Status,
		})
	}
}

// ChangePassword replaces the caller's password after verifying the current one.
func ChangePassword(userSvc *usersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[ChangePasswordInput](c)
		if input == nil {
			return err
		}
		actor := common.ActorFrom(c)
		if err := userSvc.ChangePassword(c.Context(), actor.ID, input.CurrentPassword, input.NewPassword); err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't change password", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Password changed", nil)
	}
}
