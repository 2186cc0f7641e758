package request

import (
	"github.com/amirasaad/backoffice/pkg/config"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/domain/request"
	"github.com/amirasaad/backoffice/pkg/policy"
	requestsvc "github.com/amirasaad/backoffice/pkg/service/request"
	"github.com/amirasaad/backoffice/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Routes registers the approval workflow endpoints.
func Routes(
	app *fiber.App,
	requestSvc *requestsvc.Service,
	identities common.IdentityReader,
	cfg *config.App,
) {
	protected := common.JwtProtected(cfg.Auth.Jwt, identities)
	app.Post("/requests/account-open", protected, SubmitAccountOpen(requestSvc))
	app.Post("/requests/account-deletion", protected, SubmitAccountDeletion(requestSvc))
	app.Get("/requests", protected, ListRequests(requestSvc))
	app.Get("/requests/:id", protected, GetRequest(requestSvc))
	app.Post("/requests/:id/approve", protected, Resolve(requestSvc, request.Approve))
	app.Post("/requests/:id/reject", protected, Resolve(requestSvc, request.Reject))
}

func requesterOf(actor policy.Actor, raw string) uuid.UUID {
	if raw == "" {
		return actor.ID
	}
	// BindAndValidate already checked the format.
	return uuid.MustParse(raw)
}

// SubmitAccountOpen files an AccountOpen request.
func SubmitAccountOpen(requestSvc *requestsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[AccountOpenInput](c)
		if input == nil {
			return err
		}
		typ, err := account.ParseType(input.AccountType)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid account type", err)
		}
		actor := common.ActorFrom(c)
		req, err := requestSvc.Submit(c.Context(), actor, request.KindAccountOpen, requesterOf(actor, input.RequesterID),
			request.Payload{AccountType: typ, Reason: input.Reason})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't submit request", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Request submitted", NewRequestResponse(req))
	}
}

// SubmitAccountDeletion files an AccountDeletion request.
func SubmitAccountDeletion(requestSvc *requestsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[AccountDeletionInput](c)
		if input == nil {
			return err
		}
		actor := common.ActorFrom(c)
		req, err := requestSvc.Submit(c.Context(), actor, request.KindAccountDeletion, requesterOf(actor, input.RequesterID),
			request.Payload{AccountNumber: input.AccountNumber, Reason: input.Reason})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't submit request", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Request submitted", NewRequestResponse(req))
	}
}

// ListRequests lists the Pending requests of ?kind= for staff. Without a kind
// it lists every request of ?requester=, or the caller's own.
func ListRequests(requestSvc *requestsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := common.ActorFrom(c)
		if raw := c.Query("kind"); raw != "" {
			kind, err := request.ParseKind(raw)
			if err != nil {
				return common.ProblemDetailsJSON(c, "Invalid request kind", err)
			}
			reqs, err := requestSvc.ListPending(c.Context(), actor, kind)
			if err != nil {
				return common.ProblemDetailsJSON(c, "Couldn't list requests", err)
			}
			return common.SuccessResponseJSON(c, fiber.StatusOK, "Pending requests", newRequestList(reqs))
		}
		requester := actor.ID
		if raw := c.Query("requester"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return common.ProblemDetailsJSON(c, "Invalid requester", err, "requester must be a valid UUID", fiber.StatusBadRequest)
			}
			requester = id
		}
		reqs, err := requestSvc.ListByRequester(c.Context(), actor, requester)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't list requests", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Requests", newRequestList(reqs))
	}
}

// GetRequest returns one request visible to the caller.
func GetRequest(requestSvc *requestsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid request ID", err)
		}
		req, err := requestSvc.Get(c.Context(), common.ActorFrom(c), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't get request", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Request found", NewRequestResponse(req))
	}
}

// Resolve approves or rejects a Pending request.
func Resolve(requestSvc *requestsvc.Service, decision request.Decision) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid request ID", err)
		}
		out, err := requestSvc.Resolve(c.Context(), common.ActorFrom(c), id, decision)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't resolve request", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Request "+string(out.Request.Status), newOutcomeResponse(out))
	}
}
