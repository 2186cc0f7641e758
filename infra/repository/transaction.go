package repository

import (
	"context"

	"github.com/amirasaad/backoffice/pkg/domain/account"
	repo "github.com/amirasaad/backoffice/pkg/repository/transaction"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a ledger entry repository on the given session.
func NewTransactionRepository(db *gorm.DB) repo.Repository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, t *account.Transaction) error {
	m := Transaction{
		ID:          t.ID,
		AccountID:   t.AccountID,
		Seq:         t.Seq,
		Amount:      t.Amount,
		Direction:   string(t.Direction),
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
	return WrapError(func() error { return r.db.WithContext(ctx).Create(&m).Error })
}

func (r *transactionRepository) ListByAccount(
	ctx context.Context,
	accountID uuid.UUID,
	filter account.Filter,
) ([]*account.Transaction, error) {
	q := r.db.WithContext(ctx).Where("account_id = ?", accountID)
	if filter.Direction != nil {
		q = q.Where("direction = ?", string(*filter.Direction))
	}
	if filter.Amount != nil {
		q = q.Where("amount = ?", *filter.Amount)
	}
	var ms []Transaction
	if err := q.Order("seq DESC").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*account.Transaction, 0, len(ms))
	for i := range ms {
		m := &ms[i]
		out = append(out, &account.Transaction{
			ID:          m.ID,
			AccountID:   m.AccountID,
			Seq:         m.Seq,
			Amount:      m.Amount,
			Direction:   account.Direction(m.Direction),
			Description: m.Description,
			CreatedAt:   m.CreatedAt,
		})
	}
	return out, nil
}

func (r *transactionRepository) DeleteByAccount(ctx context.Context, accountID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&Transaction{}).Error
}
