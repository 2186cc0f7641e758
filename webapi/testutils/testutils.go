// Package testutils runs the full HTTP stack on an in-memory database for
// handler tests.
package testutils

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	infraaudit "github.com/amirasaad/backoffice/infra/audit"
	infracache "github.com/amirasaad/backoffice/infra/cache"
	"github.com/amirasaad/backoffice/pkg/app"
	"github.com/amirasaad/backoffice/pkg/config"
	"github.com/amirasaad/backoffice/pkg/domain/user"
	"github.com/amirasaad/backoffice/pkg/policy"
	usersvc "github.com/amirasaad/backoffice/pkg/service/user"
	pkgtestutils "github.com/amirasaad/backoffice/pkg/testutils"
	"github.com/amirasaad/backoffice/webapi"
	authweb "github.com/amirasaad/backoffice/webapi/auth"
	"github.com/amirasaad/backoffice/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// Password is the password of every identity created by the helpers.
const Password = "password123"

// Env is a running back office with its fiber app.
type Env struct {
	t     testing.TB
	App   *fiber.App
	Core  *app.App
	Audit *infraaudit.MemorySink
}

// TestConfig returns a configuration suitable for tests.
func TestConfig() *config.App {
	return &config.App{
		Env:    "test",
		Server: &config.Server{Host: "localhost", Port: 3000},
		Log:    &config.Log{Format: "text"},
		DB:     &config.DB{Url: "file::memory:"},
		Auth:   &config.Auth{Jwt: &config.Jwt{Secret: "test-secret", Expiry: time.Hour}},
		Security: &config.Security{
			MaxFailedAttempts:     5,
			LockoutDuration:       24 * time.Hour,
			BcryptCost:            4,
			TemporaryPasswordSize: 12,
		},
		Cache:     &config.Cache{Backend: "memory", TTL: time.Minute},
		Audit:     &config.Audit{Sink: "log"},
		RateLimit: &config.RateLimit{MaxRequests: 10000, Window: time.Minute},
	}
}

// NewEnv builds the services on a fresh database. opts adjust the config
// before the app is built.
func NewEnv(t testing.TB, opts ...func(*config.App)) *Env {
	t.Helper()
	cfg := TestConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	uow, _ := pkgtestutils.NewTestUoW(t)
	balances := infracache.NewMemoryBalanceCache(cfg.Cache.TTL)
	t.Cleanup(balances.Close)
	sink := infraaudit.NewMemorySink()
	core := app.New(&app.Deps{
		Uow:      uow,
		Balances: balances,
		Audit:    sink,
		Logger:   pkgtestutils.DiscardLogger(),
	}, cfg)
	return &Env{t: t, App: webapi.SetupApp(core), Core: core, Audit: sink}
}

// MakeRequest sends a request through the app.
func (e *Env) MakeRequest(method, path, body, token string) *http.Response {
	e.t.Helper()
	return pkgtestutils.MakeRequest(e.t, e.App, method, path, body, token)
}

// CreateUser onboards an identity with Password directly through the service.
func (e *Env) CreateUser(username string, role user.Role) *user.Identity {
	e.t.Helper()
	u, _, err := e.Core.UserService.Create(e.t.Context(), policy.System(), usersvc.CreateInput{
		Username:  username,
		FirstName: username,
		Password:  Password,
		Role:      role,
	})
	require.NoError(e.t, err)
	return u
}

// Login authenticates through POST /auth/login and returns the token.
func (e *Env) Login(username, password string) string {
	e.t.Helper()
	resp := e.MakeRequest(fiber.MethodPost, "/auth/login",
		`{"username":"`+username+`","password":"`+password+`"}`, "")
	require.Equal(e.t, fiber.StatusOK, resp.StatusCode)
	out := Decode[authweb.LoginResponse](e.t, resp)
	require.NotEmpty(e.t, out.Token)
	return out.Token
}

// Decode reads the success envelope of resp and returns its data.
func Decode[T any](t testing.TB, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close() //nolint:errcheck
	var envelope struct {
		Data T `json:"data"`
	}
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &envelope), string(body))
	return envelope.Data
}

// Problem reads an RFC 9457 problem response.
func Problem(t testing.TB, resp *http.Response) common.ProblemDetails {
	t.Helper()
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, common.MIMEProblemJSON, resp.Header.Get(fiber.HeaderContentType))
	var pd common.ProblemDetails
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pd))
	return pd
}

// E2ETestSuite provides a fresh back office per test with a bootstrapped
// admin "root" and a teller "tina".
type E2ETestSuite struct {
	suite.Suite
	*Env
	Admin       *user.Identity
	AdminToken  string
	Teller      *user.Identity
	TellerToken string
}

func (s *E2ETestSuite) SetupTest() {
	s.Env = NewEnv(s.T())
	admin, _, err := s.Core.UserService.Bootstrap(s.T().Context(), usersvc.CreateInput{
		Username: "root",
		Password: Password,
	})
	s.Require().NoError(err)
	s.Admin = admin
	s.AdminToken = s.Login("root", Password)
	s.Teller = s.CreateUser("tina", user.RoleTeller)
	s.TellerToken = s.Login("tina", Password)
}

// CreateCustomer onboards a customer and logs them in.
func (s *E2ETestSuite) CreateCustomer(username string) (*user.Identity, string) {
	u := s.CreateUser(username, user.RoleCustomer)
	return u, s.Login(username, Password)
}
