package models

import (
	"time"

	"gorm.io/gorm"
)

type BankAccount struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	UserID        uint           `gorm:"index;not null" json:"user_id"`
	BankName      string         `gorm:"size:255;not null" json:"bank_name"`
	AccountName   string         `gorm:"size:255" json:"account_name"`
	AccountNumber string         `gorm:"size:20;not null" json:"account_number"`
	RoutingNumber string         `gorm:"size:9;not null" json:"routing_number"`
	Address       string         `gorm:"size:500" json:"address"`
	Status        string         `gorm:"size:20;default:'active'" json:"status"` // active, removed
}

// TableName overrides the table name
func (BankAccount) TableName() string {
	return "bank_accounts"
}
