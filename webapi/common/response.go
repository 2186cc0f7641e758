// Package common holds the response envelope, problem details and
// authentication middleware shared by the webapi route packages.
package common

import (
	"errors"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`         // HTTP status code
	Message string `json:"message"`        // Human-readable explanation
	Data    any    `json:"data,omitempty"` // Response data
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`     // A URI reference that identifies the problem type
	Title    string `json:"title"`              // Short, human-readable summary
	Status   int    `json:"status"`             // HTTP status code
	Detail   string `json:"detail,omitempty"`   // Human-readable explanation
	Instance string `json:"instance,omitempty"` // URI reference that identifies the specific occurrence
	Errors   any    `json:"errors,omitempty"`   // Optional: additional error details
}

// MIMEProblemJSON is the media type of problem responses.
const MIMEProblemJSON = "application/problem+json"

var validate = validator.New()

// SuccessResponseJSON writes the success envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// ProblemDetailsJSON writes an application/problem+json response.
//
// Optional args are a string detail and an int status. Without an explicit
// status it is derived from err. The detail defaults to err's message unless
// the status is 500, which never leaks internal errors.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, args ...any) error {
	status := 0
	detail := ""
	var extra any
	for _, arg := range args {
		switch v := arg.(type) {
		case int:
			status = v
		case string:
			detail = v
		default:
			extra = v
		}
	}
	if status == 0 {
		status = ErrorToStatusCode(err)
	}
	if detail == "" && err != nil && status != fiber.StatusInternalServerError {
		detail = err.Error()
	}
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.OriginalURL(),
		Errors:   extra,
	}
	return c.Status(status).JSON(pd, MIMEProblemJSON)
}

// ErrorToStatusCode maps the domain error kinds to HTTP status codes.
func ErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return fiber.StatusInternalServerError
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrLocked):
		return fiber.StatusLocked
	default:
		return fiber.StatusInternalServerError
	}
}

// BindAndValidate parses the request body and validates it using go-playground/validator.
// Returns a pointer to the struct (populated), or writes an error response and returns nil.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, ProblemDetailsJSON(c, "Invalid request body", err, err.Error(), fiber.StatusBadRequest)
	}
	if err := validate.Struct(input); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) {
			return nil, ProblemDetailsJSON(c, "Validation failed", err, fieldErrors(fields), fiber.StatusBadRequest)
		}
		return nil, ProblemDetailsJSON(c, "Validation failed", err, err.Error(), fiber.StatusBadRequest)
	}
	return &input, nil
}

func fieldErrors(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
