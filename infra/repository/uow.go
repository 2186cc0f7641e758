package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/amirasaad/backoffice/pkg/repository"
	"github.com/amirasaad/backoffice/pkg/repository/account"
	"github.com/amirasaad/backoffice/pkg/repository/request"
	"github.com/amirasaad/backoffice/pkg/repository/transaction"
	"github.com/amirasaad/backoffice/pkg/repository/user"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
// All repositories handed out inside Do share the transaction session.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	repoRegistry map[reflect.Type]func(*gorm.DB) any
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{
		db: db,
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			reflect.TypeOf((*account.Repository)(nil)).Elem():     func(db *gorm.DB) any { return NewAccountRepository(db) },
			reflect.TypeOf((*transaction.Repository)(nil)).Elem(): func(db *gorm.DB) any { return NewTransactionRepository(db) },
			reflect.TypeOf((*user.Repository)(nil)).Elem():        func(db *gorm.DB) any { return NewUserRepository(db) },
			reflect.TypeOf((*user.LoginStateRepository)(nil)).Elem(): func(db *gorm.DB) any {
				return NewLoginStateRepository(db)
			},
			reflect.TypeOf((*request.Repository)(nil)).Elem(): func(db *gorm.DB) any { return NewRequestRepository(db) },
		},
	}
}

// Do runs fn in a transaction. Inside an existing transaction it opens a
// savepoint on the same session instead of a new connection.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.session().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txnUow := &UoW{db: u.db, tx: tx, repoRegistry: u.repoRegistry}
		return fn(txnUow)
	})
}

func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

// GetRepository returns the repository registered for repoType, bound to the
// current session.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	return constructor(u.session()), nil
}

func getRepo[T any](u *UoW) (T, error) {
	var zero T
	repoAny, err := u.GetRepository(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	r, ok := repoAny.(T)
	if !ok {
		return zero, fmt.Errorf("repository type mismatch: %T", repoAny)
	}
	return r, nil
}

func (u *UoW) AccountRepository() (account.Repository, error) {
	return getRepo[account.Repository](u)
}

func (u *UoW) TransactionRepository() (transaction.Repository, error) {
	return getRepo[transaction.Repository](u)
}

func (u *UoW) UserRepository() (user.Repository, error) {
	return getRepo[user.Repository](u)
}

func (u *UoW) LoginStateRepository() (user.LoginStateRepository, error) {
	return getRepo[user.LoginStateRepository](u)
}

func (u *UoW) RequestRepository() (request.Repository, error) {
	return getRepo[request.Repository](u)
}
