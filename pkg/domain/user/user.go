package user

import (
	"strings"
	"time"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/utils"
	"github.com/google/uuid"
)

// Role is the single permission-bearing attribute of an identity.
type Role string

const (
	RoleCustomer Role = "Customer"
	RoleTeller   Role = "Teller"
	RoleAdmin    Role = "Admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleTeller, RoleAdmin:
		return true
	}
	return false
}

// IsEmployee reports whether r belongs to bank staff.
func (r Role) IsEmployee() bool {
	return r == RoleTeller || r == RoleAdmin
}

// ParseRole accepts a role name in any letter case.
func ParseRole(s string) (Role, error) {
	for _, r := range []Role{RoleCustomer, RoleTeller, RoleAdmin} {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, nil
		}
	}
	return "", domain.Validationf("unknown role %q", s)
}

// Identity represents a customer or an employee.
type Identity struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// FullName joins first and last name.
func (i *Identity) FullName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// CheckPassword reports whether password matches the stored credential.
func (i *Identity) CheckPassword(password string) bool {
	return utils.CheckPasswordHash(password, i.PasswordHash)
}

// New creates an Identity with a hashed password and the current timestamp.
func New(username, firstName, lastName, password string, role Role, cost int) (*Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.Validationf("username cannot be empty")
	}
	if password == "" {
		return nil, domain.Validationf("password cannot be empty")
	}
	if !role.Valid() {
		return nil, domain.Validationf("unknown role %q", role)
	}
	hashed, err := utils.HashPassword(password, cost)
	if err != nil {
		return nil, err
	}
	return &Identity{
		ID:           uuid.New(),
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hashed,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// NewFromData creates an Identity from raw data (used for DB hydration).
func NewFromData(
	id uuid.UUID,
	username, firstName, lastName, passwordHash string,
	role Role,
	created time.Time,
) *Identity {
	return &Identity{
		ID:           id,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    created,
	}
}
