package initializer

import (
	"bytes"
	"testing"
	"time"

	infraaudit "github.com/amirasaad/backoffice/infra/audit"
	infracache "github.com/amirasaad/backoffice/infra/cache"
	"github.com/amirasaad/backoffice/pkg/app"
	"github.com/amirasaad/backoffice/pkg/cache"
	"github.com/amirasaad/backoffice/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.App {
	return &config.App{
		Env:      "test",
		Log:      &config.Log{Format: "text"},
		DB:       &config.DB{Url: "file::memory:"},
		Auth:     &config.Auth{Jwt: &config.Jwt{Secret: "secret", Expiry: time.Hour}},
		Security: &config.Security{MaxFailedAttempts: 5, LockoutDuration: 24 * time.Hour, BcryptCost: 4},
		Cache:    &config.Cache{Backend: "memory", TTL: time.Minute},
		Redis:    &config.Redis{},
		Audit:    &config.Audit{Sink: "log"},
	}
}

func TestInitializeDependencies(t *testing.T) {
	deps, cleanup, err := InitializeDependencies(testConfig())
	require.NoError(t, err)
	t.Cleanup(cleanup)

	assert.NotNil(t, deps.Uow)
	assert.NotNil(t, deps.Logger)
	assert.IsType(t, &infracache.MemoryBalanceCache{}, deps.Balances)
	assert.IsType(t, &infraaudit.LogSink{}, deps.Audit)

	repo, err := deps.Uow.AccountRepository()
	require.NoError(t, err)
	_, err = repo.List(t.Context())
	assert.NoError(t, err)
}

func TestInitializeDependencies_Backends(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Backend = "none"
	deps, cleanup, err := InitializeDependencies(cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	assert.Equal(t, cache.Nop{}, deps.Balances)

	testCases := []struct {
		name    string
		mutate  func(*config.App)
		wantErr string
	}{
		{"unknown cache", func(c *config.App) { c.Cache.Backend = "memcached" }, "unknown cache backend"},
		{"unknown sink", func(c *config.App) { c.Audit.Sink = "carrier-pigeon" }, "unknown audit sink"},
		{"bad redis url", func(c *config.App) { c.Cache.Backend = "redis"; c.Redis.URL = "http://cache:6379" }, "REDIS_URL"},
		{"unsupported database", func(c *config.App) { c.DB.Url = "mysql://nope" }, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(cfg)
			var (
				deps    *app.Deps
				cleanup func()
				err     error
			)
			require.NotPanics(t, func() {
				deps, cleanup, err = InitializeDependencies(cfg)
			})
			require.Error(t, err)
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
			}
			assert.Nil(t, deps)
			assert.Nil(t, cleanup)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Log{Format: "json", Prefix: "[test]"})
	logger.Info("hello", "method", "Test")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"method":"Test"`)
}
