package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/backoffice/infra/repository"
	"github.com/amirasaad/backoffice/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// NewDBConnection opens the database named by cnf.Url: postgres:// and
// postgresql:// DSNs use the postgres driver, sqlite://<path> and file: URLs
// use sqlite.
func NewDBConnection(cnf *config.DB, appEnv string) (*gorm.DB, error) {
	if cnf == nil || cnf.Url == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	var logMode logger.LogLevel
	if appEnv == "development" {
		logMode = logger.Info
	} else {
		logMode = logger.Silent
	}

	dialector, isSQLite, err := dialectorFor(cnf.Url)
	if err != nil {
		return nil, err
	}

	connection, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := connection.DB()
	if err != nil {
		return nil, err
	}
	if isSQLite {
		// One connection: sqlite has a single writer, and an in-memory
		// database lives only as long as its connection.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(1 * time.Hour)
	}

	return connection, nil
}

func dialectorFor(url string) (gorm.Dialector, bool, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return postgres.Open(url), false, nil
	case strings.HasPrefix(url, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(url, "sqlite://")), true, nil
	case strings.HasPrefix(url, "file:"), url == ":memory:":
		return sqlite.Open(url), true, nil
	default:
		return nil, false, fmt.Errorf("unsupported database url scheme: %q", url)
	}
}

// Migrate creates or updates the schema and seeds the account number counter.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(repository.Models()...); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	seed := repository.Counter{Name: repository.AccountNumberCounter, Value: 0}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return fmt.Errorf("seed counters: %w", err)
	}
	return nil
}
