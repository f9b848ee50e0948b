package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type User struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`
	Email            string          `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Username         string          `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash     string          `gorm:"size:255;not null" json:"-"`
	Role             string          `gorm:"size:20;default:'user'" json:"role"` // admin, user
	FirstName        string          `gorm:"size:100" json:"first_name"`
	LastName         string          `gorm:"size:100" json:"last_name"`
	Country          string          `gorm:"size:100" json:"country"`
	SecurityQuestion string          `gorm:"size:255" json:"security_question"`
	SecurityAnswer   string          `gorm:"size:255" json:"-"`
	WalletAddress    string          `gorm:"size:255" json:"wallet_address"`
	ReferralCode     string          `gorm:"size:100" json:"referral_code"` // stored verbatim from the signup link, never validated
	Balance          decimal.Decimal `gorm:"type:decimal(20,8);default:0" json:"balance"`
	Version          int             `gorm:"default:0" json:"-"` // bumped on every balance write
	Verified         bool            `gorm:"default:false" json:"verified"`
}

// TableName overrides the table name
func (User) TableName() string {
	return "users"
}
