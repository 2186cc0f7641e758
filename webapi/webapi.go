// Package webapi provides the HTTP boundary of the back office.
// It is organized into sub-packages per area:
// - auth: login, password reset and password change
// - user: identity management and unlocks
// - account: accounts, balances and ledger entries
// - request: the approval workflow
package webapi

import (
	"errors"
	"strings"
	"time"

	"github.com/amirasaad/backoffice/pkg/app"
	accountweb "github.com/amirasaad/backoffice/webapi/account"
	authweb "github.com/amirasaad/backoffice/webapi/auth"
	"github.com/amirasaad/backoffice/webapi/common"
	requestweb "github.com/amirasaad/backoffice/webapi/request"
	userweb "github.com/amirasaad/backoffice/webapi/user"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/utils"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(app *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return common.ProblemDetailsJSON(c, statusTitle(fe.Code), err, fe.Message, fe.Code)
			}
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})

	maxRequests, window := 100, time.Minute
	if rl := app.Config.RateLimit; rl != nil {
		maxRequests, window = rl.MaxRequests, rl.Window
	}
	// Uses X-Forwarded-For header when behind a proxy
	// Falls back to X-Real-IP or direct IP if needed
	fiberApp.Use(limiter.New(limiter.Config{
		Max:        maxRequests,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
				// Take the first IP in the chain
				if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
					return strings.TrimSpace(forwardedFor[:commaIndex])
				}
				return strings.TrimSpace(forwardedFor)
			}
			if realIP := c.Get("X-Real-IP"); realIP != "" {
				return realIP
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(
				c,
				"Too Many Requests",
				errors.New("rate limit exceeded"),
				fiber.StatusTooManyRequests,
			)
		},
	}))
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	// Health check endpoint
	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Back office API is running")
	})

	authweb.Routes(fiberApp, app.LoginService, app.AuthService, app.UserService, app.RequestService, app.Config)
	userweb.Routes(fiberApp, app.UserService, app.LoginService, app.AccountService, app.Config)
	accountweb.Routes(fiberApp, app.AccountService, app.LedgerService, app.UserService, app.Config)
	requestweb.Routes(fiberApp, app.RequestService, app.UserService, app.Config)
	return fiberApp
}

func statusTitle(code int) string {
	if text := utils.StatusMessage(code); text != "" {
		return text
	}
	return "Error"
}
