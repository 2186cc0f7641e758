package user

import (
	"github.com/amirasaad/backoffice/pkg/config"
	"github.com/amirasaad/backoffice/pkg/domain/user"
	"github.com/amirasaad/backoffice/pkg/policy"
	accountsvc "github.com/amirasaad/backoffice/pkg/service/account"
	loginsvc "github.com/amirasaad/backoffice/pkg/service/login"
	usersvc "github.com/amirasaad/backoffice/pkg/service/user"
	accountweb "github.com/amirasaad/backoffice/webapi/account"
	"github.com/amirasaad/backoffice/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Routes registers the identity endpoints.
func Routes(
	app *fiber.App,
	userSvc *usersvc.Service,
	loginSvc *loginsvc.Service,
	accountSvc *accountsvc.Service,
	cfg *config.App,
) {
	protected := common.JwtProtected(cfg.Auth.Jwt, userSvc)
	app.Post("/users", common.JwtOptional(cfg.Auth.Jwt, userSvc), CreateUser(userSvc))
	app.Get("/users", protected, SearchUsers(userSvc))
	app.Get("/users/:id", protected, GetUser(userSvc))
	app.Put("/users/:id/role", protected, SetRole(userSvc))
	app.Post("/users/:id/unlock", protected, Unlock(loginSvc))
	app.Get("/users/:id/login-state", protected, GetLoginState(loginSvc))
	app.Get("/users/:id/accounts", protected, ListAccounts(userSvc, accountSvc))
}

// selfOrStaff lets callers read their own identity, and staff read any.
func selfOrStaff(actor policy.Actor, id uuid.UUID) error {
	if actor.ID == id {
		return nil
	}
	return policy.Require(actor, policy.Search)
}

// CreateUser onboards an identity with its Checking account. Anonymous
// callers can only create customers; employees are created by admins.
func CreateUser(userSvc *usersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[NewUser](c)
		if input == nil {
			return err // error response already written
		}
		role := user.RoleCustomer
		if input.Role != "" {
			if role, err = user.ParseRole(input.Role); err != nil {
				return common.ProblemDetailsJSON(c, "Invalid role", err)
			}
		}
		identity, checking, err := userSvc.Create(c.Context(), common.ActorFrom(c), usersvc.CreateInput{
			Username:  input.Username,
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Password:  input.Password,
			Role:      role,
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't create user", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Created user", CreatedUser{
			Identity: identity,
			Checking: accountweb.NewAccountResponse(checking),
		})
	}
}

// SearchUsers lists identities by ?q= username substring and optional ?role=.
func SearchUsers(userSvc *usersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var role *user.Role
		if raw := c.Query("role"); raw != "" {
			r, err := user.ParseRole(raw)
			if err != nil {
				return common.ProblemDetailsJSON(c, "Invalid role", err)
			}
			role = &r
		}
		users, err := userSvc.Search(c.Context(), common.ActorFrom(c), c.Query("q"), role)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't search users", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Users found", users)
	}
}

// GetUser returns one identity.
func GetUser(userSvc *usersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid user ID", err)
		}
		if err := selfOrStaff(common.ActorFrom(c), id); err != nil {
			return common.ProblemDetailsJSON(c, "Forbidden", err)
		}
		identity, err := userSvc.Get(c.Context(), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't get user", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "User found", identity)
	}
}

// SetRole changes the role of an identity.
func SetRole(userSvc *usersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid user ID", err)
		}
		input, err := common.BindAndValidate[RoleInput](c)
		if input == nil {
			return err
		}
		role, err := user.ParseRole(input.Role)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid role", err)
		}
		identity, err := userSvc.SetRole(c.Context(), common.ActorFrom(c), id, role)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't change role", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Role changed", identity)
	}
}

// Unlock clears the login lock of an identity. Admin only.
func Unlock(loginSvc *loginsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid user ID", err)
		}
		if err := loginSvc.Unlock(c.Context(), common.ActorFrom(c), id); err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't unlock user", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "User unlocked", nil)
	}
}

// GetLoginState reports failed attempts and lock status. Staff only.
func GetLoginState(loginSvc *loginsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid user ID", err)
		}
		if err := policy.Require(common.ActorFrom(c), policy.Search); err != nil {
			return common.ProblemDetailsJSON(c, "Forbidden", err)
		}
		state, err := loginSvc.State(c.Context(), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't get login state", err)
		}
		locked, err := loginSvc.IsLocked(c.Context(), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't get login state", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Login state", LoginStateResponse{
			FailedAttempts:      state.FailedAttempts,
			LockedUntil:         state.LockedUntil,
			Locked:              locked,
			ForcePasswordChange: state.ForcePasswordChange,
		})
	}
}

// ListAccounts returns every account owned by an identity.
func ListAccounts(userSvc *usersvc.Service, accountSvc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid user ID", err)
		}
		if err := selfOrStaff(common.ActorFrom(c), id); err != nil {
			return common.ProblemDetailsJSON(c, "Forbidden", err)
		}
		if _, err := userSvc.Get(c.Context(), id); err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't list accounts", err)
		}
		accounts, err := accountSvc.FindByOwner(c.Context(), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't list accounts", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Accounts found", accountweb.NewAccountList(accounts))
	}
}
