package repository

import (
	"context"
	"strings"

	"github.com/amirasaad/backoffice/pkg/domain/user"
	repo "github.com/amirasaad/backoffice/pkg/repository/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates an identity repository on the given session.
func NewUserRepository(db *gorm.DB) repo.Repository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *user.Identity) error {
	m := Identity{
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
	}
	return WrapError(func() error { return r.db.WithContext(ctx).Create(&m).Error })
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*user.Identity, error) {
	var m Identity
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	}); err != nil {
		return nil, err
	}
	return mapModelToIdentity(&m), nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*user.Identity, error) {
	var m Identity
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Where("username = ?", username).First(&m).Error
	}); err != nil {
		return nil, err
	}
	return mapModelToIdentity(&m), nil
}

func (r *userRepository) Search(ctx context.Context, query string, role *user.Role) ([]*user.Identity, error) {
	q := r.db.WithContext(ctx)
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	if role != nil {
		q = q.Where("role = ?", string(*role))
	}
	var ms []Identity
	if err := q.Order("username ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*user.Identity, 0, len(ms))
	for i := range ms {
		out = append(out, mapModelToIdentity(&ms[i]))
	}
	return out, nil
}

func (r *userRepository) CountByRole(ctx context.Context, role user.Role) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Identity{}).Where("role = ?", string(role)).Count(&n).Error
	return n, err
}

func (r *userRepository) UpdateRole(ctx context.Context, id uuid.UUID, role user.Role) error {
	return r.update(ctx, id, "role", string(role))
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.update(ctx, id, "password_hash", hash)
}

func (r *userRepository) update(ctx context.Context, id uuid.UUID, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&Identity{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return MapGormErrorToDomain(gorm.ErrRecordNotFound)
	}
	return nil
}

func mapModelToIdentity(m *Identity) *user.Identity {
	return user.NewFromData(
		m.ID,
		m.Username,
		m.FirstName,
		m.LastName,
		m.PasswordHash,
		user.Role(m.Role),
		m.CreatedAt,
	)
}

type loginStateRepository struct {
	db *gorm.DB
}

// NewLoginStateRepository creates a login state repository on the given session.
func NewLoginStateRepository(db *gorm.DB) repo.LoginStateRepository {
	return &loginStateRepository{db: db}
}

func (r *loginStateRepository) Get(ctx context.Context, identityID uuid.UUID) (*user.LoginState, error) {
	var m LoginState
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).First(&m, "identity_id = ?", identityID).Error
	}); err != nil {
		return nil, err
	}
	return mapModelToLoginState(&m), nil
}

// GetForUpdate inserts the Active(0) row if it does not exist yet, then reads
// it with a row lock so concurrent attempts for one identity serialize.
func (r *loginStateRepository) GetForUpdate(ctx context.Context, identityID uuid.UUID) (*user.LoginState, error) {
	db := r.db.WithContext(ctx)
	seed := LoginState{IdentityID: identityID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	var m LoginState
	if err := WrapError(func() error {
		return db.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&m, "identity_id = ?", identityID).Error
	}); err != nil {
		return nil, err
	}
	return mapModelToLoginState(&m), nil
}

func (r *loginStateRepository) Save(ctx context.Context, s *user.LoginState) error {
	m := LoginState{
		IdentityID:          s.IdentityID,
		FailedAttempts:      s.FailedAttempts,
		LockedUntil:         s.LockedUntil,
		ForcePasswordChange: s.ForcePasswordChange,
		UpdatedAt:           s.UpdatedAt,
	}
	return r.db.WithContext(ctx).Save(&m).Error
}

func mapModelToLoginState(m *LoginState) *user.LoginState {
	return &user.LoginState{
		IdentityID:          m.IdentityID,
		FailedAttempts:      m.FailedAttempts,
		LockedUntil:         m.LockedUntil,
		ForcePasswordChange: m.ForcePasswordChange,
		UpdatedAt:           m.UpdatedAt,
	}
}
