package repository

import (
	"errors"
	"strings"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgUniqueViolation is the postgres SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// MapGormErrorToDomain converts GORM and driver errors to domain errors.
// Traverses the error chain to find GORM errors and maps them to appropriate domain errors.
func MapGormErrorToDomain(err error) error {
	if err == nil {
		return nil
	}

	currentErr := err
	for currentErr != nil {
		switch {
		case errors.Is(currentErr, gorm.ErrDuplicatedKey):
			return domain.ErrConflict
		case errors.Is(currentErr, gorm.ErrRecordNotFound):
			return domain.ErrNotFound
		}
		currentErr = errors.Unwrap(currentErr)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return domain.ErrConflict
	}
	// sqlite reports constraint violations only through the message text
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return domain.ErrConflict
	}

	// Return original error if no mapping found
	return err
}

// WrapError wraps a GORM operation and automatically maps errors.
//
//	err := WrapError(func() error {
//	    return r.db.WithContext(ctx).Create(u).Error
//	})
func WrapError(op func() error) error {
	return MapGormErrorToDomain(op())
}
