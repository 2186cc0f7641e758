// Package app holds the explicit context object: store handles and services,
// constructed once and passed to every entry point.
package app

import (
	"log/slog"

	"github.com/amirasaad/backoffice/pkg/audit"
	"github.com/amirasaad/backoffice/pkg/cache"
	"github.com/amirasaad/backoffice/pkg/config"
	"github.com/amirasaad/backoffice/pkg/domain/user"
	"github.com/amirasaad/backoffice/pkg/repository"
	"github.com/amirasaad/backoffice/pkg/service/account"
	"github.com/amirasaad/backoffice/pkg/service/auth"
	"github.com/amirasaad/backoffice/pkg/service/ledger"
	"github.com/amirasaad/backoffice/pkg/service/login"
	"github.com/amirasaad/backoffice/pkg/service/request"
	usersvc "github.com/amirasaad/backoffice/pkg/service/user"
)

// Deps contains the infrastructure the services are built on.
type Deps struct {
	Uow      repository.UnitOfWork
	Balances cache.BalanceCache
	Audit    audit.Sink
	Logger   *slog.Logger
}

type App struct {
	Deps           *Deps
	Config         *config.App
	AuthService    *auth.Service
	LedgerService  *ledger.Service
	AccountService *account.Service
	UserService    *usersvc.Service
	LoginService   *login.Service
	RequestService *request.Service
}

func New(deps *Deps, cfg *config.App) *App {
	security := cfg.Security
	if security == nil {
		security = &config.Security{}
	}
	a := &App{Deps: deps, Config: cfg}
	a.AuthService = auth.New(cfg.Auth.Jwt, deps.Logger)
	a.LedgerService = ledger.New(deps.Uow, deps.Balances, deps.Audit, deps.Logger)
	a.AccountService = account.New(deps.Uow, a.LedgerService, deps.Audit, deps.Logger)
	a.UserService = usersvc.New(deps.Uow, a.AccountService, deps.Audit, deps.Logger, security.BcryptCost)
	a.LoginService = login.New(deps.Uow, deps.Audit, deps.Logger,
		login.WithLockout(user.Lockout{
			MaxAttempts: security.MaxFailedAttempts,
			Duration:    security.LockoutDuration,
		}),
	)
	a.RequestService = request.New(deps.Uow, a.AccountService, a.UserService, deps.Audit, deps.Logger,
		request.WithTemporaryPasswordLength(security.TemporaryPasswordSize),
	)
	return a
}
