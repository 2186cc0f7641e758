// Package repository defines the transaction boundary shared by the services.
package repository

import (
	"context"
	"reflect"

	"github.com/amirasaad/backoffice/pkg/repository/account"
	"github.com/amirasaad/backoffice/pkg/repository/request"
	"github.com/amirasaad/backoffice/pkg/repository/transaction"
	"github.com/amirasaad/backoffice/pkg/repository/user"
)

// UnitOfWork runs work in a transaction and hands out repositories bound to it.
//
// Do is re-entrant: calling Do on the UnitOfWork passed to fn joins the
// running transaction (as a savepoint) instead of opening a second one.
// Repositories obtained outside Do use the root session.
type UnitOfWork interface {
	// Do executes fn within a transaction boundary. If fn returns an error the
	// transaction is rolled back.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// GetRepository returns a repository of the requested interface type, bound
	// to the current session.
	//
	//	repoAny, err := uow.GetRepository(reflect.TypeOf((*user.Repository)(nil)).Elem())
	//	repo := repoAny.(user.Repository)
	GetRepository(repoType reflect.Type) (any, error)

	AccountRepository() (account.Repository, error)
	TransactionRepository() (transaction.Repository, error)
	UserRepository() (user.Repository, error)
	LoginStateRepository() (user.LoginStateRepository, error)
	RequestRepository() (request.Repository, error)
}
