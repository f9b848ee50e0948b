package models

import "time"

type PasswordReset struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Token     string     `gorm:"uniqueIndex;size:36;not null" json:"-"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

// TableName overrides the table name
func (PasswordReset) TableName() string {
	return "password_resets"
}
