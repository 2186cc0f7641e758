package account

import (
	"strings"

	"github.com/amirasaad/backoffice/pkg/config"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/domain/money"
	accountsvc "github.com/amirasaad/backoffice/pkg/service/account"
	"github.com/amirasaad/backoffice/pkg/service/ledger"
	"github.com/amirasaad/backoffice/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the account and ledger endpoints.
func Routes(
	app *fiber.App,
	accountSvc *accountsvc.Service,
	ledgerSvc *ledger.Service,
	identities common.IdentityReader,
	cfg *config.App,
) {
	protected := common.JwtProtected(cfg.Auth.Jwt, identities)
	app.Get("/accounts", protected, SearchAccounts(accountSvc))
	app.Get("/accounts/:number", protected, GetAccount(accountSvc))
	app.Delete("/accounts/:number", protected, CloseAccount(accountSvc))
	app.Get("/accounts/:number/balance", protected, GetBalance(accountSvc, ledgerSvc))
	app.Get("/accounts/:number/transactions", protected, GetTransactions(accountSvc, ledgerSvc))
	app.Post("/accounts/:number/transactions", protected, PostTransaction(accountSvc, ledgerSvc))
}

// SearchAccounts pages through accounts matching ?q= by number or owner name.
// Staff only.
func SearchAccounts(accountSvc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := c.QueryInt("page", 1)
		limit := c.QueryInt("limit", accountsvc.DefaultPageSize)
		accounts, total, err := accountSvc.Search(c.Context(), common.ActorFrom(c), c.Query("q"), page, limit)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't search accounts", err)
		}
		if page < 1 {
			page = 1
		}
		if limit < 1 {
			limit = accountsvc.DefaultPageSize
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Accounts found", AccountPage{
			Items: NewAccountList(accounts),
			Total: total,
			Page:  page,
			Limit: min(limit, accountsvc.MaxPageSize),
		})
	}
}

// GetAccount returns one account the caller may access.
func GetAccount(accountSvc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acc, err := accountSvc.Access(c.Context(), common.ActorFrom(c), c.Params("number"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't get account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Account found", NewAccountResponse(acc))
	}
}

// CloseAccount deletes an account and its ledger. Admin only.
func CloseAccount(accountSvc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := accountSvc.CloseAccount(c.Context(), common.ActorFrom(c), c.Params("number")); err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't close account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Account closed", nil)
	}
}

// GetBalance returns the incremental balance of an account.
func GetBalance(accountSvc *accountsvc.Service, ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acc, err := accountSvc.Access(c.Context(), common.ActorFrom(c), c.Params("number"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't get balance", err)
		}
		balance, err := ledgerSvc.Balance(c.Context(), acc.ID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't get balance", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Balance fetched", BalanceResponse{
			Number:  acc.Number,
			Balance: balance,
		})
	}
}

// GetTransactions lists the ledger of an account, most recent first, narrowed
// by the optional ?type= and ?amount= filters.
func GetTransactions(accountSvc *accountsvc.Service, ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter, err := parseFilter(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid filter", err)
		}
		acc, err := accountSvc.Access(c.Context(), common.ActorFrom(c), c.Params("number"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't list transactions", err)
		}
		entries, err := ledgerSvc.Search(c.Context(), acc.ID, filter)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't list transactions", err)
		}
		out := make([]*TransactionResponse, 0, len(entries))
		for _, e := range entries {
			out = append(out, NewTransactionResponse(e))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transactions fetched", out)
	}
}

func parseFilter(c *fiber.Ctx) (account.Filter, error) {
	var filter account.Filter
	if raw := strings.TrimSpace(c.Query("type")); raw != "" {
		d, err := account.ParseDirection(raw)
		if err != nil {
			return filter, err
		}
		filter.Direction = &d
	}
	if raw := strings.TrimSpace(c.Query("amount")); raw != "" {
		cents, err := money.Parse(raw)
		if err != nil {
			return filter, err
		}
		filter.Amount = &cents
	}
	return filter, nil
}

// PostTransaction appends a credit or debit to an account.
func PostTransaction(accountSvc *accountsvc.Service, ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[TransactionInput](c)
		if input == nil {
			return err
		}
		direction, err := account.ParseDirection(input.Type)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid transaction type", err)
		}
		actor := common.ActorFrom(c)
		acc, err := accountSvc.Access(c.Context(), actor, c.Params("number"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't post transaction", err)
		}
		entry, err := ledgerSvc.Append(c.Context(), actor, acc.ID, input.Amount, direction, input.Description)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't post transaction", err)
		}
		balance, err := ledgerSvc.Balance(c.Context(), acc.ID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't post transaction", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Transaction posted", PostedResponse{
			Transaction: NewTransactionResponse(entry),
			Balance:     balance,
		})
	}
}
