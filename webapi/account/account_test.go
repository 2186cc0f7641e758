package account_test

import (
	"testing"

	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/domain/user"
	"github.com/amirasaad/backoffice/pkg/policy"
	accountweb "github.com/amirasaad/backoffice/webapi/account"
	"github.com/amirasaad/backoffice/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type AccountTestSuite struct {
	testutils.E2ETestSuite
	alice      *user.Identity
	aliceToken string
	checking   *account.Account
}

func (s *AccountTestSuite) SetupTest() {
	s.E2ETestSuite.SetupTest()
	s.alice, s.aliceToken = s.CreateCustomer("alice")
	accounts, err := s.Core.AccountService.FindByOwner(s.T().Context(), s.alice.ID)
	s.Require().NoError(err)
	s.Require().Len(accounts, 1)
	s.checking = accounts[0]
}

func (s *AccountTestSuite) post(number, body, token string) int {
	resp := s.MakeRequest(fiber.MethodPost, "/accounts/"+number+"/transactions", body, token)
	defer resp.Body.Close() //nolint:errcheck
	return resp.StatusCode
}

func (s *AccountTestSuite) TestDepositWithdrawBalance() {
	resp := s.MakeRequest(fiber.MethodPost, "/accounts/"+s.checking.Number+"/transactions",
		`{"type":"deposit","amount":"100.00","description":"salary"}`, s.aliceToken)
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	posted := testutils.Decode[accountweb.PostedResponse](s.T(), resp)
	s.Equal(account.Credit, posted.Transaction.Direction)
	s.Equal(int64(1), posted.Transaction.Seq)
	s.True(decimal.NewFromInt(100).Equal(posted.Balance))

	s.Equal(fiber.StatusCreated, s.post(s.checking.Number, `{"type":"withdrawal","amount":30}`, s.aliceToken))

	resp = s.MakeRequest(fiber.MethodGet, "/accounts/"+s.checking.Number+"/balance", "", s.aliceToken)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	balance := testutils.Decode[accountweb.BalanceResponse](s.T(), resp)
	s.True(decimal.NewFromInt(70).Equal(balance.Balance), balance.Balance.String())

	resp = s.MakeRequest(fiber.MethodGet, "/accounts/"+s.checking.Number+"/transactions", "", s.aliceToken)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	entries := testutils.Decode[[]accountweb.TransactionResponse](s.T(), resp)
	s.Require().Len(entries, 2)
	s.Equal(int64(2), entries[0].Seq)
	s.Equal(account.Debit, entries[0].Direction)
	s.Equal(int64(1), entries[1].Seq)
}

func (s *AccountTestSuite) TestTransactionsFilter() {
	for _, body := range []string{
		`{"type":"deposit","amount":"100.00"}`,
		`{"type":"payment","amount":"30.00"}`,
		`{"type":"deposit","amount":"30.00"}`,
	} {
		s.Require().Equal(fiber.StatusCreated, s.post(s.checking.Number, body, s.aliceToken))
	}
	testCases := []struct {
		desc  string
		query string
		want  int
	}{
		{"no filter", "", 3},
		{"deposits", "?type=deposit", 2},
		{"debits", "?type=debit", 1},
		{"amount", "?amount=30.00", 2},
		{"deposit of 30", "?type=credit&amount=30", 1},
	}
	for _, tc := range testCases {
		s.Run(tc.desc, func() {
			resp := s.MakeRequest(fiber.MethodGet, "/accounts/"+s.checking.Number+"/transactions"+tc.query, "", s.aliceToken)
			s.Require().Equal(fiber.StatusOK, resp.StatusCode)
			s.Len(testutils.Decode[[]accountweb.TransactionResponse](s.T(), resp), tc.want)
		})
	}

	resp := s.MakeRequest(fiber.MethodGet, "/accounts/"+s.checking.Number+"/transactions?type=refund", "", s.aliceToken)
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func (s *AccountTestSuite) TestPostTransaction_Rejects() {
	_, bobToken := s.CreateCustomer("bob")
	testCases := []struct {
		desc       string
		number     string
		body       string
		token      string
		wantStatus int
	}{
		{"zero", s.checking.Number, `{"type":"deposit","amount":"0"}`, s.aliceToken, fiber.StatusBadRequest},
		{"negative", s.checking.Number, `{"type":"deposit","amount":"-5"}`, s.aliceToken, fiber.StatusBadRequest},
		{"sub-cent", s.checking.Number, `{"type":"deposit","amount":"1.001"}`, s.aliceToken, fiber.StatusBadRequest},
		{"unknown type", s.checking.Number, `{"type":"refund","amount":"1"}`, s.aliceToken, fiber.StatusBadRequest},
		{"missing type", s.checking.Number, `{"amount":"1"}`, s.aliceToken, fiber.StatusBadRequest},
		{"other owner", s.checking.Number, `{"type":"deposit","amount":"1"}`, bobToken, fiber.StatusForbidden},
		{"unknown account", "ACCT-9999999999", `{"type":"deposit","amount":"1"}`, s.TellerToken, fiber.StatusNotFound},
		{"no token", s.checking.Number, `{"type":"deposit","amount":"1"}`, "", fiber.StatusUnauthorized},
		{"teller posts", s.checking.Number, `{"type":"deposit","amount":"1"}`, s.TellerToken, fiber.StatusCreated},
	}
	for _, tc := range testCases {
		s.Run(tc.desc, func() {
			s.Equal(tc.wantStatus, s.post(tc.number, tc.body, tc.token))
		})
	}
}

func (s *AccountTestSuite) TestOverdraftAllowed() {
	s.Equal(fiber.StatusCreated, s.post(s.checking.Number, `{"type":"withdrawal","amount":"50"}`, s.aliceToken))
	resp := s.MakeRequest(fiber.MethodGet, "/accounts/"+s.checking.Number+"/balance", "", s.aliceToken)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	s.True(decimal.NewFromInt(-50).Equal(testutils.Decode[accountweb.BalanceResponse](s.T(), resp).Balance))
}

func (s *AccountTestSuite) TestGetAndSearch() {
	resp := s.MakeRequest(fiber.MethodGet, "/accounts/"+s.checking.Number, "", s.aliceToken)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	got := testutils.Decode[accountweb.AccountResponse](s.T(), resp)
	s.Equal(s.checking.ID, got.ID)
	s.Equal(account.TypeChecking, got.Type)
	s.Equal("Checking account", got.TypeLabel)

	resp = s.MakeRequest(fiber.MethodGet, "/accounts?q=alice", "", s.TellerToken)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	page := testutils.Decode[accountweb.AccountPage](s.T(), resp)
	s.Equal(int64(1), page.Total)
	s.Equal(1, page.Page)
	s.Require().Len(page.Items, 1)
	s.Equal(s.checking.Number, page.Items[0].Number)

	resp = s.MakeRequest(fiber.MethodGet, "/accounts?limit=1&page=2", "", s.AdminToken)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	page = testutils.Decode[accountweb.AccountPage](s.T(), resp)
	s.Equal(int64(3), page.Total)
	s.Len(page.Items, 1)

	resp = s.MakeRequest(fiber.MethodGet, "/accounts?q=alice", "", s.aliceToken)
	s.Equal(fiber.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp = s.MakeRequest(fiber.MethodGet, "/accounts/ACCT-12", "", s.TellerToken)
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func (s *AccountTestSuite) TestCloseAccount() {
	savings, err := s.Core.AccountService.OpenAccount(s.T().Context(), policy.System(), s.alice.ID,
		account.TypeSavings, decimal.NewFromInt(10))
	s.Require().NoError(err)

	resp := s.MakeRequest(fiber.MethodDelete, "/accounts/"+savings.Number, "", s.TellerToken)
	s.Equal(fiber.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp = s.MakeRequest(fiber.MethodDelete, "/accounts/"+s.checking.Number, "", s.AdminToken)
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = s.MakeRequest(fiber.MethodDelete, "/accounts/"+savings.Number, "", s.AdminToken)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	for _, path := range []string{"/accounts/" + savings.Number, "/accounts/" + savings.Number + "/balance"} {
		resp = s.MakeRequest(fiber.MethodGet, path, "", s.aliceToken)
		s.Equal(fiber.StatusNotFound, resp.StatusCode, path)
		_ = resp.Body.Close()
	}
}

func TestAccountTestSuite(t *testing.T) {
	suite.Run(t, new(AccountTestSuite))
}
