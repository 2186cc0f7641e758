package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMapGormErrorToDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    error
		expected error
	}{
		{
			name:     "nil error returns nil",
			input:    nil,
			expected: nil,
		},
		{
			name:     "duplicate key error maps to ErrConflict",
			input:    gorm.ErrDuplicatedKey,
			expected: domain.ErrConflict,
		},
		{
			name:     "record not found error maps to ErrNotFound",
			input:    gorm.ErrRecordNotFound,
			expected: domain.ErrNotFound,
		},
		{
			name:     "wrapped record not found error maps correctly",
			input:    errors.Join(errors.New("outer error"), gorm.ErrRecordNotFound),
			expected: domain.ErrNotFound,
		},
		{
			name:     "postgres unique violation maps to ErrConflict",
			input:    fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}),
			expected: domain.ErrConflict,
		},
		{
			name:     "sqlite unique violation maps to ErrConflict",
			input:    errors.New("UNIQUE constraint failed: accounts.checking_owner_id"),
			expected: domain.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := MapGormErrorToDomain(tt.input)
			if tt.expected == nil {
				require.NoError(t, result)
				return
			}
			require.Error(t, result)
			assert.ErrorIs(t, result, tt.expected)
		})
	}
}

func TestMapGormErrorToDomain_Unmapped(t *testing.T) {
	t.Parallel()

	other := errors.New("connection reset")
	assert.Equal(t, other, MapGormErrorToDomain(other))

	pgOther := &pgconn.PgError{Code: "40001"}
	assert.Equal(t, error(pgOther), MapGormErrorToDomain(pgOther))
}

func TestWrapError(t *testing.T) {
	t.Parallel()

	require.NoError(t, WrapError(func() error { return nil }))
	assert.ErrorIs(t, WrapError(func() error { return gorm.ErrDuplicatedKey }), domain.ErrConflict)

	t.Run("panics propagate", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() {
			_ = WrapError(func() error { panic("test panic") })
		})
	})
}
