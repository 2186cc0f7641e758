package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorToStatusCode(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		err  error
		want int
	}{
		{domain.Validationf("bad"), fiber.StatusBadRequest},
		{fmt.Errorf("login: %w", domain.ErrUnauthorized), fiber.StatusUnauthorized},
		{domain.Forbiddenf("no"), fiber.StatusForbidden},
		{domain.NotFoundf("gone"), fiber.StatusNotFound},
		{domain.Conflictf("twice"), fiber.StatusConflict},
		{domain.ErrLocked, fiber.StatusLocked},
		{errors.New("disk on fire"), fiber.StatusInternalServerError},
		{nil, fiber.StatusInternalServerError},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, ErrorToStatusCode(tc.err), "%v", tc.err)
	}
}

func decodeProblem(t *testing.T, app *fiber.App, method, body string) (int, ProblemDetails, string) {
	t.Helper()
	req := httptest.NewRequest(method, "/probe?x=1", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	var pd ProblemDetails
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pd))
	return resp.StatusCode, pd, resp.Header.Get(fiber.HeaderContentType)
}

func TestProblemDetailsJSON(t *testing.T) {
	t.Parallel()
	app := fiber.New()
	app.Get("/probe", func(c *fiber.Ctx) error {
		return ProblemDetailsJSON(c, "Couldn't find it", domain.NotFoundf("account ACCT-0000000001"))
	})
	app.Put("/probe", func(c *fiber.Ctx) error {
		return ProblemDetailsJSON(c, "Internal Server Error", errors.New("dsn=postgres://secret"))
	})
	app.Delete("/probe", func(c *fiber.Ctx) error {
		return ProblemDetailsJSON(c, "Teapot", nil, "short and stout", fiber.StatusTeapot, map[string]int{"cups": 2})
	})

	status, pd, ctype := decodeProblem(t, app, fiber.MethodGet, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, MIMEProblemJSON, ctype)
	assert.Equal(t, "about:blank", pd.Type)
	assert.Equal(t, "/probe?x=1", pd.Instance)
	assert.Contains(t, pd.Detail, "ACCT-0000000001")

	status, pd, _ = decodeProblem(t, app, fiber.MethodPut, "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Empty(t, pd.Detail)

	status, pd, _ = decodeProblem(t, app, fiber.MethodDelete, "")
	assert.Equal(t, fiber.StatusTeapot, status)
	assert.Equal(t, "short and stout", pd.Detail)
	assert.Equal(t, map[string]any{"cups": float64(2)}, pd.Errors)
}

type probeInput struct {
	Name string `json:"name" validate:"required,min=3"`
}

func TestBindAndValidate(t *testing.T) {
	t.Parallel()
	app := fiber.New()
	app.Post("/probe", func(c *fiber.Ctx) error {
		input, err := BindAndValidate[probeInput](c)
		if input == nil {
			return err
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "ok", input)
	})

	status, pd, _ := decodeProblem(t, app, fiber.MethodPost, `{"name":"ab"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", pd.Title)
	assert.Equal(t, map[string]any{"Name": "min"}, pd.Errors)

	status, pd, _ = decodeProblem(t, app, fiber.MethodPost, `{"name":`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid request body", pd.Title)

	req := httptest.NewRequest(fiber.MethodPost, "/probe", strings.NewReader(`{"name":"alice"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
