package main_test

import (
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"testing"

	"github.com/amirasaad/backoffice/webapi/testutils"
	"github.com/stretchr/testify/suite"
)

// TestMain runs before any tests and applies globally for all tests in the package.
func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	log.SetOutput(io.Discard)

	exitVal := m.Run()
	os.Exit(exitVal)
}

type MainTestSuite struct {
	testutils.E2ETestSuite
}

func TestMainTestSuite(t *testing.T) {
	suite.Run(t, new(MainTestSuite))
}

func (s *MainTestSuite) TestStartServer_RootRoute() {
	resp := s.MakeRequest(http.MethodGet, "/", "", "")
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *MainTestSuite) TestProtectedRoute_Unauthorized() {
	for _, path := range []string{"/accounts", "/users", "/requests"} {
		resp := s.MakeRequest(http.MethodGet, path, "", "")
		s.Equal(http.StatusUnauthorized, resp.StatusCode, path)
		_ = resp.Body.Close()
	}
}

func (s *MainTestSuite) TestNotFoundRoute() {
	resp := s.MakeRequest(http.MethodGet, "/doesnotexist", "", "")
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *MainTestSuite) TestLoginRoute_BadRequest() {
	resp := s.MakeRequest(http.MethodPost, "/auth/login", "", "")
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}
