// Package policy is the role-to-operation permission table.
package policy

import (
	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/request"
	"github.com/amirasaad/backoffice/pkg/domain/user"
	"github.com/google/uuid"
)

// Operation names a guarded mutation or query.
type Operation string

const (
	ResolveAccountOpen     Operation = "resolve_account_open"
	ResolveAccountDeletion Operation = "resolve_account_deletion"
	ResolvePasswordReset   Operation = "resolve_password_reset"
	DeleteAccount          Operation = "delete_account"
	// EditRole takes two targets: the current role and the new role.
	EditRole Operation = "edit_role"
	// CreateIdentity takes one target: the role of the identity being created.
	CreateIdentity   Operation = "create_identity"
	UnlockIdentity   Operation = "unlock_identity"
	SubmitOnBehalf   Operation = "submit_on_behalf"
	AccessAnyAccount Operation = "access_any_account"
	Search           Operation = "search"
)

// Actor is the caller of an operation. The zero Actor is anonymous.
type Actor struct {
	ID   uuid.UUID
	Role user.Role
}

// Anonymous returns the unauthenticated actor.
func Anonymous() Actor { return Actor{} }

// System returns the actor used by operator tooling. It carries the Admin role
// without an identity.
func System() Actor { return Actor{Role: user.RoleAdmin} }

// IsAnonymous reports whether no identity is attached.
func (a Actor) IsAnonymous() bool {
	return a.ID == uuid.Nil && a.Role == ""
}

// String identifies the actor in audit records.
func (a Actor) String() string {
	switch {
	case a.IsAnonymous():
		return "anonymous"
	case a.ID == uuid.Nil:
		return "system"
	}
	return a.ID.String()
}

var staff = []user.Role{user.RoleTeller, user.RoleAdmin}
var adminOnly = []user.Role{user.RoleAdmin}

var table = map[Operation][]user.Role{
	ResolveAccountOpen:     staff,
	ResolveAccountDeletion: adminOnly,
	ResolvePasswordReset:   adminOnly,
	DeleteAccount:          adminOnly,
	UnlockIdentity:         adminOnly,
	SubmitOnBehalf:         staff,
	AccessAnyAccount:       staff,
	Search:                 staff,
}

// ResolveOperation returns the operation guarding approval and rejection of kind.
func ResolveOperation(kind request.Kind) Operation {
	switch kind {
	case request.KindAccountOpen:
		return ResolveAccountOpen
	case request.KindAccountDeletion:
		return ResolveAccountDeletion
	default:
		return ResolvePasswordReset
	}
}

// Allow is a pure decision over actor role, operation and the optional target roles.
func Allow(actor Actor, op Operation, target ...user.Role) bool {
	switch op {
	case EditRole:
		if actor.Role != user.RoleAdmin || len(target) != 2 {
			return false
		}
		return target[0] != user.RoleCustomer && target[1] != user.RoleCustomer
	case CreateIdentity:
		if len(target) != 1 {
			return false
		}
		if target[0] == user.RoleCustomer {
			return actor.IsAnonymous() || actor.Role.IsEmployee()
		}
		return actor.Role == user.RoleAdmin
	}
	return hasRole(actor.Role, table[op])
}

// Require returns a Forbidden error when Allow denies the operation.
func Require(actor Actor, op Operation, target ...user.Role) error {
	if Allow(actor, op, target...) {
		return nil
	}
	return domain.Forbiddenf("%s not permitted for role %q", op, actor.Role)
}

func hasRole(r user.Role, allowed []user.Role) bool {
	for _, a := range allowed {
		if a == r {
			return true
		}
	}
	return false
}
