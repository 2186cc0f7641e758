// Package audit defines the fire-and-forget audit trail emitted by the services.
package audit

import (
	"context"
	"time"
)

// Actions recorded by the services.
const (
	ActionIdentityCreated = "identity.created"
	ActionRoleChanged     = "identity.role_changed"
	ActionPasswordChanged = "identity.password_changed"
	ActionLoginSucceeded  = "login.succeeded"
	ActionLoginFailed     = "login.failed"
	ActionLoginLocked     = "login.locked"
	ActionUnlocked        = "login.unlocked"
	ActionAccountOpened   = "account.opened"
	ActionAccountClosed   = "account.closed"
	ActionEntryAppended   = "ledger.appended"
	ActionRequestSubmit   = "request.submitted"
	ActionRequestApproved = "request.approved"
	ActionRequestRejected = "request.rejected"
)

// Entry is one audit record.
type Entry struct {
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Target string    `json:"target"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

// Sink receives audit entries. Implementations must not block the caller on
// delivery failures and never report them.
type Sink interface {
	Record(ctx context.Context, e Entry)
}

// Nop discards every entry.
type Nop struct{}

// Record implements Sink.
func (Nop) Record(context.Context, Entry) {}
