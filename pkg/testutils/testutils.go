// Package testutils provides database and clock fixtures shared by package tests.
package testutils

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/amirasaad/backoffice/infra"
	infrarepo "github.com/amirasaad/backoffice/infra/repository"
	"github.com/amirasaad/backoffice/pkg/config"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewTestDB opens a migrated in-memory sqlite database private to t.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := infra.NewDBConnection(&config.DB{Url: "file::memory:"}, "test")
	require.NoError(t, err)
	require.NoError(t, infra.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewTestUoW returns a unit of work on a fresh test database.
func NewTestUoW(t testing.TB) (*infrarepo.UoW, *gorm.DB) {
	t.Helper()
	db := NewTestDB(t)
	return infrarepo.NewUoW(db), db
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock starting at now.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MakeRequest sends a request through the fiber app without a network listener.
func MakeRequest(t testing.TB, app *fiber.App, method, path, body, token string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}
