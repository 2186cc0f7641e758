package policy

import (
	"testing"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/request"
	"github.com/amirasaad/backoffice/pkg/domain/user"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func actor(r user.Role) Actor { return Actor{ID: uuid.New(), Role: r} }

func TestAllow(t *testing.T) {
	t.Parallel()
	customer := actor(user.RoleCustomer)
	teller := actor(user.RoleTeller)
	admin := actor(user.RoleAdmin)
	anon := Anonymous()

	tests := []struct {
		name   string
		actor  Actor
		op     Operation
		target []user.Role
		want   bool
	}{
		{"teller resolves account open", teller, ResolveAccountOpen, nil, true},
		{"customer resolves account open", customer, ResolveAccountOpen, nil, false},
		{"teller resolves account deletion", teller, ResolveAccountDeletion, nil, false},
		{"admin resolves account deletion", admin, ResolveAccountDeletion, nil, true},
		{"teller resolves password reset", teller, ResolvePasswordReset, nil, false},
		{"admin resolves password reset", admin, ResolvePasswordReset, nil, true},
		{"teller deletes account", teller, DeleteAccount, nil, false},
		{"admin deletes account", admin, DeleteAccount, nil, true},
		{"admin demotes admin", admin, EditRole, []user.Role{user.RoleAdmin, user.RoleTeller}, true},
		{"admin promotes customer", admin, EditRole, []user.Role{user.RoleCustomer, user.RoleTeller}, false},
		{"admin demotes to customer", admin, EditRole, []user.Role{user.RoleTeller, user.RoleCustomer}, false},
		{"teller edits role", teller, EditRole, []user.Role{user.RoleTeller, user.RoleAdmin}, false},
		{"edit role without targets", admin, EditRole, nil, false},
		{"anonymous creates customer", anon, CreateIdentity, []user.Role{user.RoleCustomer}, true},
		{"teller creates customer", teller, CreateIdentity, []user.Role{user.RoleCustomer}, true},
		{"customer creates customer", customer, CreateIdentity, []user.Role{user.RoleCustomer}, false},
		{"teller creates teller", teller, CreateIdentity, []user.Role{user.RoleTeller}, false},
		{"admin creates admin", admin, CreateIdentity, []user.Role{user.RoleAdmin}, true},
		{"anonymous creates admin", anon, CreateIdentity, []user.Role{user.RoleAdmin}, false},
		{"teller unlocks", teller, UnlockIdentity, nil, false},
		{"admin unlocks", admin, UnlockIdentity, nil, true},
		{"customer submits on behalf", customer, SubmitOnBehalf, nil, false},
		{"teller submits on behalf", teller, SubmitOnBehalf, nil, true},
		{"customer accesses any account", customer, AccessAnyAccount, nil, false},
		{"anonymous searches", anon, Search, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Allow(tt.actor, tt.op, tt.target...))
		})
	}
}

func TestRequire(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Require(actor(user.RoleAdmin), DeleteAccount))
	assert.ErrorIs(t, Require(actor(user.RoleTeller), DeleteAccount), domain.ErrForbidden)
}

func TestResolveOperation(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ResolveAccountOpen, ResolveOperation(request.KindAccountOpen))
	assert.Equal(t, ResolveAccountDeletion, ResolveOperation(request.KindAccountDeletion))
	assert.Equal(t, ResolvePasswordReset, ResolveOperation(request.KindPasswordReset))
}

func TestActorString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "anonymous", Anonymous().String())
	assert.Equal(t, "system", System().String())
	a := actor(user.RoleTeller)
	assert.Equal(t, a.ID.String(), a.String())
}
