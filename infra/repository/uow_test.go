package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/backoffice/pkg/repository"
	"github.com/amirasaad/backoffice/pkg/repository/account"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockUoW(t *testing.T) (*UoW, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDb.Close() })
	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)
	return NewUoW(db), mock
}

func TestUoW_DoAndGetRepository(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	uow, mock := newMockUoW(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		repoAny, err := txUow.GetRepository(reflect.TypeOf((*account.Repository)(nil)).Elem())
		require.NoError(err)
		_, ok := repoAny.(*accountRepository)
		assert.True(ok)

		txRepo, err := txUow.TransactionRepository()
		require.NoError(err)
		_, ok = txRepo.(*transactionRepository)
		assert.True(ok)

		userRepo, err := txUow.UserRepository()
		require.NoError(err)
		_, ok = userRepo.(*userRepository)
		assert.True(ok)

		loginRepo, err := txUow.LoginStateRepository()
		require.NoError(err)
		_, ok = loginRepo.(*loginStateRepository)
		assert.True(ok)

		reqRepo, err := txUow.RequestRepository()
		require.NoError(err)
		_, ok = reqRepo.(*requestRepository)
		assert.True(ok)
		return nil
	})
	assert.NoError(err)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestUoW_RollbackOnError(t *testing.T) {
	uow, mock := newMockUoW(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := uow.Do(context.Background(), func(repository.UnitOfWork) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_NestedDoUsesSavepoint(t *testing.T) {
	uow, mock := newMockUoW(t)
	inner := errors.New("inner failed")

	mock.ExpectBegin()
	mock.ExpectExec("SAVEPOINT").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ROLLBACK TO SAVEPOINT").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := uow.Do(context.Background(), func(tx repository.UnitOfWork) error {
		nestedErr := tx.Do(context.Background(), func(repository.UnitOfWork) error {
			return inner
		})
		assert.ErrorIs(t, nestedErr, inner)
		return nil
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_UnsupportedRepository(t *testing.T) {
	uow, _ := newMockUoW(t)
	_, err := uow.GetRepository(reflect.TypeOf((*error)(nil)).Elem())
	assert.Error(t, err)
}
