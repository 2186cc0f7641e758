package auth_test

import (
	"strings"
	"testing"

	"github.com/amirasaad/backoffice/pkg/audit"
	"github.com/amirasaad/backoffice/pkg/domain/request"
	authweb "github.com/amirasaad/backoffice/webapi/auth"
	requestweb "github.com/amirasaad/backoffice/webapi/request"
	"github.com/amirasaad/backoffice/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
)

type AuthTestSuite struct {
	testutils.E2ETestSuite
}

func (s *AuthTestSuite) login(username, password string) int {
	resp := s.MakeRequest(fiber.MethodPost, "/auth/login",
		`{"username":"`+username+`","password":"`+password+`"}`, "")
	defer resp.Body.Close() //nolint:errcheck
	return resp.StatusCode
}

func (s *AuthTestSuite) TestLoginVariants() {
	s.CreateCustomer("alice")
	testCases := []struct {
		desc       string
		body       string
		wantStatus int
	}{
		{"success", `{"username":"alice","password":"password123"}`, fiber.StatusOK},
		{"wrong password", `{"username":"alice","password":"nope"}`, fiber.StatusUnauthorized},
		{"unknown user", `{"username":"nobody","password":"password123"}`, fiber.StatusUnauthorized},
		{"missing password", `{"username":"alice"}`, fiber.StatusBadRequest},
		{"invalid body", `{"username":123}`, fiber.StatusBadRequest},
	}
	for _, tc := range testCases {
		s.Run(tc.desc, func() {
			resp := s.MakeRequest(fiber.MethodPost, "/auth/login", tc.body, "")
			defer resp.Body.Close() //nolint:errcheck
			s.Equal(tc.wantStatus, resp.StatusCode)
		})
	}
}

func (s *AuthTestSuite) TestLogin_ReturnsUsableToken() {
	alice, token := s.CreateCustomer("alice")
	resp := s.MakeRequest(fiber.MethodGet, "/users/"+alice.ID.String(), "", token)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = s.MakeRequest(fiber.MethodGet, "/users/"+alice.ID.String(), "", "garbage")
	s.Equal(fiber.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	resp = s.MakeRequest(fiber.MethodGet, "/users/"+alice.ID.String(), "", "")
	pd := testutils.Problem(s.T(), resp)
	s.Equal(fiber.StatusUnauthorized, pd.Status)
}

func (s *AuthTestSuite) TestLogin_Lockout() {
	s.CreateCustomer("alice")
	wrong := `{"username":"alice","password":"wrong"}`

	for i := 1; i <= 3; i++ {
		pd := testutils.Problem(s.T(), s.MakeRequest(fiber.MethodPost, "/auth/login", wrong, ""))
		s.Equal(fiber.StatusUnauthorized, pd.Status)
		s.Equal(float64(5-i), pd.Errors.(map[string]any)["remaining"])
	}

	pd := testutils.Problem(s.T(), s.MakeRequest(fiber.MethodPost, "/auth/login", wrong, ""))
	s.Equal(fiber.StatusUnauthorized, pd.Status)
	s.Contains(pd.Detail, "1 attempt remaining")

	pd = testutils.Problem(s.T(), s.MakeRequest(fiber.MethodPost, "/auth/login", wrong, ""))
	s.Equal(fiber.StatusUnauthorized, pd.Status)
	s.Equal("Account locked", pd.Title)
	s.NotEmpty(pd.Errors.(map[string]any)["locked_until"])

	status := s.login("alice", testutils.Password)
	s.Equal(fiber.StatusLocked, status)
	s.Contains(s.Audit.Actions(), audit.ActionLoginLocked)
}

func (s *AuthTestSuite) TestPasswordReset_EndToEnd() {
	alice, _ := s.CreateCustomer("alice")

	resp := s.MakeRequest(fiber.MethodPost, "/auth/password-reset", `{"username":"alice"}`, "")
	s.Require().Equal(fiber.StatusAccepted, resp.StatusCode)
	submitted := testutils.Decode[map[string]any](s.T(), resp)
	id := submitted["id"].(string)

	resp = s.MakeRequest(fiber.MethodPost, "/auth/password-reset", `{"username":"ghost"}`, "")
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	resp = s.MakeRequest(fiber.MethodPost, "/requests/"+id+"/approve", "", s.TellerToken)
	s.Equal(fiber.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp = s.MakeRequest(fiber.MethodPost, "/requests/"+id+"/approve", "", s.AdminToken)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	out := testutils.Decode[requestweb.OutcomeResponse](s.T(), resp)
	s.Equal(request.StatusApproved, out.Request.Status)
	s.Equal(alice.ID, out.Request.RequesterID)
	temp := out.TemporaryPassword
	s.Len(temp, 12)

	status := s.login("alice", testutils.Password)
	s.Equal(fiber.StatusUnauthorized, status)

	resp = s.MakeRequest(fiber.MethodPost, "/auth/login", `{"username":"alice","password":"`+temp+`"}`, "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	logged := testutils.Decode[authweb.LoginResponse](s.T(), resp)
	s.True(logged.MustChangePassword)

	resp = s.MakeRequest(fiber.MethodPut, "/auth/password",
		`{"current_password":"`+temp+`","new_password":"fresh-secret"}`, logged.Token)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = s.MakeRequest(fiber.MethodPost, "/auth/login", `{"username":"alice","password":"fresh-secret"}`, "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	s.False(testutils.Decode[authweb.LoginResponse](s.T(), resp).MustChangePassword)

	for _, e := range s.Audit.Entries() {
		s.False(strings.Contains(e.Detail, temp), "temporary password leaked into audit")
	}
}

func (s *AuthTestSuite) TestChangePassword_Rejects() {
	_, token := s.CreateCustomer("alice")
	testCases := []struct {
		desc       string
		body       string
		token      string
		wantStatus int
	}{
		{"wrong current", `{"current_password":"nope","new_password":"another-one"}`, token, fiber.StatusUnauthorized},
		{"too short", `{"current_password":"password123","new_password":"abc"}`, token, fiber.StatusBadRequest},
		{"no token", `{"current_password":"password123","new_password":"another-one"}`, "", fiber.StatusUnauthorized},
	}
	for _, tc := range testCases {
		s.Run(tc.desc, func() {
			resp := s.MakeRequest(fiber.MethodPut, "/auth/password", tc.body, tc.token)
			defer resp.Body.Close() //nolint:errcheck
			s.Equal(tc.wantStatus, resp.StatusCode)
		})
	}
}

func TestAuthTestSuite(t *testing.T) {
	suite.Run(t, new(AuthTestSuite))
}
