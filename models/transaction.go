package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType is the closed set of ledger entry categories.
type TransactionType string

const (
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
	TypeTransfer   TransactionType = "transfer"
	TypeReferral   TransactionType = "referral"
	TypeROI        TransactionType = "roi"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TypeDeposit, TypeWithdrawal, TypeTransfer, TypeReferral, TypeROI:
		return true
	}
	return false
}

// TransactionStatus is the closed set of ledger entry states.
// The only programmatic transition is pending -> completed on deposit
// confirmation; everything else is written in its final state.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Transaction is one append-only ledger entry owned by a user. Amount is
// signed: credits are positive, debits negative. Previous/new balance
// snapshots are recorded only by mutations that change the balance under
// admin control (adjustments and deposit confirmations).
type Transaction struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	DeletedAt         gorm.DeletedAt    `gorm:"index" json:"-"`
	Reference         string            `gorm:"uniqueIndex;size:36;not null" json:"reference"`
	UserID            uint              `gorm:"index;not null" json:"user_id"`
	User              User              `gorm:"foreignKey:UserID" json:"-"`
	Type              TransactionType   `gorm:"size:20;not null" json:"type"`
	Status            TransactionStatus `gorm:"size:20;default:'pending'" json:"status"`
	Amount            decimal.Decimal   `gorm:"type:decimal(20,8);not null" json:"amount"`
	PreviousBalance   *decimal.Decimal  `gorm:"type:decimal(20,8)" json:"previous_balance,omitempty"`
	NewBalance        *decimal.Decimal  `gorm:"type:decimal(20,8)" json:"new_balance,omitempty"`
	AdminInitiated    bool              `gorm:"default:false" json:"admin_initiated"`
	CounterpartyEmail string            `gorm:"size:255" json:"counterparty_email,omitempty"`
	Details           string            `gorm:"type:text" json:"details,omitempty"` // JSON blob: bank details, BTC quote
}

// TableName overrides the table name
func (Transaction) TableName() string {
	return "transactions"
}
