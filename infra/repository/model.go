package repository

import (
	"time"

	"github.com/google/uuid"
)

// Identity represents an identity record in the database.
type Identity struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null;size:50"`
	FirstName    string    `gorm:"size:100"`
	LastName     string    `gorm:"size:100"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"type:varchar(16);not null;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the table name for the Identity model.
func (Identity) TableName() string {
	return "identities"
}

// LoginState represents the login_state row of one identity.
type LoginState struct {
	IdentityID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	FailedAttempts      int       `gorm:"not null;default:0"`
	LockedUntil         *time.Time
	ForcePasswordChange bool `gorm:"not null;default:false"`
	UpdatedAt           time.Time
}

// TableName specifies the table name for the LoginState model.
func (LoginState) TableName() string {
	return "login_state"
}

// Account represents an account record in the database.
//
// CheckingOwnerID is set to OwnerID only for Checking accounts; its unique
// index enforces one Checking account per owner at write time.
type Account struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OwnerID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	Type            string     `gorm:"type:varchar(16);not null"`
	Number          string     `gorm:"type:varchar(32);uniqueIndex;not null"`
	CheckingOwnerID *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	Balance         int64      `gorm:"not null;default:0"`
	LastSeq         int64      `gorm:"not null;default:0"`
	CreatedAt       time.Time
	Transactions    []Transaction `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string {
	return "accounts"
}

// Transaction represents a persisted ledger entry.
type Transaction struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccountID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_transactions_account_seq"`
	Seq         int64     `gorm:"not null;uniqueIndex:idx_transactions_account_seq"`
	Amount      int64     `gorm:"not null"`
	Direction   string    `gorm:"type:varchar(8);not null"`
	Description string    `gorm:"size:255"`
	CreatedAt   time.Time
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string {
	return "transactions"
}

// Counter is a named monotonic counter.
type Counter struct {
	Name  string `gorm:"type:varchar(64);primaryKey"`
	Value int64  `gorm:"not null;default:0"`
}

// TableName specifies the table name for the Counter model.
func (Counter) TableName() string {
	return "counters"
}

// AccountNumberCounter names the counter behind account number allocation.
const AccountNumberCounter = "account_number"

// Request represents a workflow request record.
type Request struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Kind          string    `gorm:"type:varchar(32);not null;index:idx_requests_kind_status"`
	Status        string    `gorm:"type:varchar(16);not null;index:idx_requests_kind_status"`
	RequesterID   uuid.UUID `gorm:"type:uuid;not null;index"`
	AccountType   string    `gorm:"type:varchar(16)"`
	AccountNumber string    `gorm:"type:varchar(32)"`
	Reason        string    `gorm:"size:255"`
	RequestedAt   time.Time `gorm:"not null;index"`
	ResolvedAt    *time.Time
	ResolvedBy    *uuid.UUID `gorm:"type:uuid"`
}

// TableName specifies the table name for the Request model.
func (Request) TableName() string {
	return "requests"
}

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{
		&Identity{},
		&LoginState{},
		&Account{},
		&Transaction{},
		&Counter{},
		&Request{},
	}
}
