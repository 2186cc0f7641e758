// Package request models the pending change requests that employees approve or reject.
package request

import (
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/google/uuid"
)

// Kind selects the workflow and its side effect.
type Kind string

const (
	KindAccountOpen     Kind = "AccountOpen"
	KindAccountDeletion Kind = "AccountDeletion"
	KindPasswordReset   Kind = "PasswordReset"
)

// Kinds lists every workflow kind.
var Kinds = []Kind{KindAccountOpen, KindAccountDeletion, KindPasswordReset}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindAccountOpen, KindAccountDeletion, KindPasswordReset:
		return true
	}
	return false
}

// ParseKind accepts the kind name in any letter case, as well as the
// dash-separated form used in URLs (account-open).
func ParseKind(s string) (Kind, error) {
	norm := strings.ReplaceAll(strings.TrimSpace(s), "-", "")
	for _, k := range Kinds {
		if strings.EqualFold(string(k), norm) {
			return k, nil
		}
	}
	return "", domain.Validationf("unknown request kind %q", s)
}

// Status is the lifecycle state of a request.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// Decision is the approver's verdict.
type Decision string

const (
	Approve Decision = "Approve"
	Reject  Decision = "Reject"
)

// Valid reports whether d is Approve or Reject.
func (d Decision) Valid() bool {
	return d == Approve || d == Reject
}

// ErrAlreadyResolved is returned when a request has left the Pending state.
var ErrAlreadyResolved = fmt.Errorf("request already resolved: %w", domain.ErrNotFound)

// Payload carries the kind-specific data.
type Payload struct {
	AccountType   account.Type `json:"account_type,omitempty"`
	AccountNumber string       `json:"account_number,omitempty"`
	Reason        string       `json:"reason,omitempty"`
}

// Request is one workflow instance. ResolvedAt is set iff Status is not Pending.
type Request struct {
	ID          uuid.UUID
	Kind        Kind
	RequesterID uuid.UUID
	Payload     Payload
	Status      Status
	RequestedAt time.Time
	ResolvedAt  *time.Time
	ResolvedBy  *uuid.UUID
}

// New validates the payload shape for kind and returns a Pending request.
func New(kind Kind, requesterID uuid.UUID, payload Payload, now time.Time) (*Request, error) {
	if !kind.Valid() {
		return nil, domain.Validationf("unknown request kind %q", kind)
	}
	if requesterID == uuid.Nil {
		return nil, domain.Validationf("requester is required")
	}
	switch kind {
	case KindAccountOpen:
		if !payload.AccountType.Valid() {
			return nil, domain.Validationf("unknown account type %q", payload.AccountType)
		}
		payload.AccountNumber = ""
	case KindAccountDeletion:
		if _, err := account.ParseNumber(payload.AccountNumber); err != nil {
			return nil, err
		}
		payload.AccountType = ""
	case KindPasswordReset:
		payload.AccountType = ""
		payload.AccountNumber = ""
	}
	return &Request{
		ID:          uuid.New(),
		Kind:        kind,
		RequesterID: requesterID,
		Payload:     payload,
		Status:      StatusPending,
		RequestedAt: now,
	}, nil
}

// IsPending reports whether the request still awaits a decision.
func (r *Request) IsPending() bool {
	return r.Status == StatusPending
}

// Resolve moves a Pending request to Approved or Rejected exactly once.
func (r *Request) Resolve(decision Decision, approver uuid.UUID, now time.Time) error {
	if !decision.Valid() {
		return domain.Validationf("unknown decision %q", decision)
	}
	if !r.IsPending() {
		return ErrAlreadyResolved
	}
	if decision == Approve {
		r.Status = StatusApproved
	} else {
		r.Status = StatusRejected
	}
	r.ResolvedAt = &now
	r.ResolvedBy = &approver
	return nil
}
