package repository

import (
	"context"
	"strings"

	"github.com/amirasaad/backoffice/pkg/domain/account"
	repo "github.com/amirasaad/backoffice/pkg/repository/account"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates an account repository on the given session.
func NewAccountRepository(db *gorm.DB) repo.Repository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, a *account.Account) error {
	m := mapAccountToModel(a)
	return WrapError(func() error {
		return r.db.WithContext(ctx).Omit(clause.Associations).Create(&m).Error
	})
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

func (r *accountRepository) GetByNumber(ctx context.Context, number string) (*account.Account, error) {
	return r.first(r.db.WithContext(ctx), "number = ?", number)
}

func (r *accountRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	q := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
	return r.first(q, "id = ?", id)
}

func (r *accountRepository) first(q *gorm.DB, cond string, arg any) (*account.Account, error) {
	var m Account
	if err := WrapError(func() error { return q.First(&m, cond, arg).Error }); err != nil {
		return nil, err
	}
	return mapModelToAccount(&m), nil
}

func (r *accountRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*account.Account, error) {
	var ms []Account
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("number ASC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return mapModelsToAccounts(ms), nil
}

func (r *accountRepository) List(ctx context.Context) ([]*account.Account, error) {
	var ms []Account
	if err := r.db.WithContext(ctx).Order("number ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	return mapModelsToAccounts(ms), nil
}

func (r *accountRepository) Search(
	ctx context.Context,
	query string,
	page, limit int,
) ([]*account.Account, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	q := r.db.WithContext(ctx).Model(&Account{}).
		Joins("JOIN identities ON identities.id = accounts.owner_id")
	if query = strings.TrimSpace(query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where(
			"LOWER(accounts.number) LIKE ? OR LOWER(identities.first_name) LIKE ? OR LOWER(identities.last_name) LIKE ? OR LOWER(identities.username) LIKE ?",
			like, like, like, like,
		)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var ms []Account
	err := q.Select("accounts.*").
		Order("accounts.number ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&ms).Error
	if err != nil {
		return nil, 0, err
	}
	return mapModelsToAccounts(ms), total, nil
}

func (r *accountRepository) UpdateBalance(ctx context.Context, id uuid.UUID, balance, lastSeq int64) error {
	res := r.db.WithContext(ctx).Model(&Account{}).
		Where("id = ?", id).
		Updates(map[string]any{"balance": balance, "last_seq": lastSeq})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return MapGormErrorToDomain(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *accountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&Account{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return MapGormErrorToDomain(gorm.ErrRecordNotFound)
	}
	return nil
}

// NextNumber increments the counter row and reads it back in one transaction
// (a savepoint when already inside one). The UPDATE holds the row lock until
// commit, so concurrent callers serialize on it.
func (r *accountRepository) NextNumber(ctx context.Context) (int64, error) {
	var next int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Counter{}).
			Where("name = ?", AccountNumberCounter).
			UpdateColumn("value", gorm.Expr("value + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(&Counter{Name: AccountNumberCounter, Value: 1}).Error; err != nil {
				return err
			}
			next = 1
			return nil
		}
		var c Counter
		if err := tx.First(&c, "name = ?", AccountNumberCounter).Error; err != nil {
			return err
		}
		next = c.Value
		return nil
	})
	return next, err
}

func mapAccountToModel(a *account.Account) Account {
	m := Account{
		ID:        a.ID,
		OwnerID:   a.OwnerID,
		Type:      string(a.Type),
		Number:    a.Number,
		Balance:   a.Balance,
		LastSeq:   a.LastSeq,
		CreatedAt: a.CreatedAt,
	}
	if a.IsChecking() {
		owner := a.OwnerID
		m.CheckingOwnerID = &owner
	}
	return m
}

func mapModelToAccount(m *Account) *account.Account {
	return &account.Account{
		ID:        m.ID,
		OwnerID:   m.OwnerID,
		Type:      account.Type(m.Type),
		Number:    m.Number,
		Balance:   m.Balance,
		LastSeq:   m.LastSeq,
		CreatedAt: m.CreatedAt,
	}
}

func mapModelsToAccounts(ms []Account) []*account.Account {
	out := make([]*account.Account, 0, len(ms))
	for i := range ms {
		out = append(out, mapModelToAccount(&ms[i]))
	}
	return out
}
