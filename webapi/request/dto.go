package request

import (
	"time"

	"github.com/amirasaad/backoffice/pkg/domain/request"
	requestsvc "github.com/amirasaad/backoffice/pkg/service/request"
	accountweb "github.com/amirasaad/backoffice/webapi/account"
	"github.com/google/uuid"
)

// AccountOpenInput asks for a new account of AccountType. RequesterID defaults
// to the caller.
type AccountOpenInput struct {
	RequesterID string `json:"requester_id" validate:"omitempty,uuid"`
	AccountType string `json:"account_type" validate:"required"`
	Reason      string `json:"reason" validate:"max=500"`
}

// AccountDeletionInput asks for the closure of AccountNumber.
type AccountDeletionInput struct {
	RequesterID   string `json:"requester_id" validate:"omitempty,uuid"`
	AccountNumber string `json:"account_number" validate:"required"`
	Reason        string `json:"reason" validate:"max=500"`
}

// RequestResponse is the wire form of a request.
type RequestResponse struct {
	ID          uuid.UUID       `json:"id"`
	Kind        request.Kind    `json:"kind"`
	RequesterID uuid.UUID       `json:"requester_id"`
	Payload     request.Payload `json:"payload"`
	Status      request.Status  `json:"status"`
	RequestedAt time.Time       `json:"requested_at"`
	ResolvedAt  *time.Time      `json:"resolved_at,omitempty"`
	ResolvedBy  *uuid.UUID      `json:"resolved_by,omitempty"`
}

// NewRequestResponse converts a request for the wire.
func NewRequestResponse(r *request.Request) *RequestResponse {
	return &RequestResponse{
		ID:          r.ID,
		Kind:        r.Kind,
		RequesterID: r.RequesterID,
		Payload:     r.Payload,
		Status:      r.Status,
		RequestedAt: r.RequestedAt,
		ResolvedAt:  r.ResolvedAt,
		ResolvedBy:  r.ResolvedBy,
	}
}

func newRequestList(reqs []*request.Request) []*RequestResponse {
	out := make([]*RequestResponse, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, NewRequestResponse(r))
	}
	return out
}

// OutcomeResponse is returned by approve and reject. TemporaryPassword is
// only present for an approved password reset.
type OutcomeResponse struct {
	Request           *RequestResponse            `json:"request"`
	Account           *accountweb.AccountResponse `json:"account,omitempty"`
	TemporaryPassword string                      `json:"temporary_password,omitempty"`
}

func newOutcomeResponse(out *requestsvc.Outcome) OutcomeResponse {
	return OutcomeResponse{
		Request:           NewRequestResponse(out.Request),
		Account:           accountweb.NewAccountResponse(out.Account),
		TemporaryPassword: out.TemporaryPassword,
	}
}
