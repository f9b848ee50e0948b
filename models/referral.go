package models

import "time"

// Referral records one signup that arrived through a referral link.
// Code is whatever string the link carried; it is never checked against an
// existing referrer, so rows with dangling codes are expected. Bonus payout
// is a manual admin adjustment, not an automatic credit.
type Referral struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Code           string    `gorm:"index;size:100;not null" json:"code"`
	ReferredUserID uint      `gorm:"not null" json:"referred_user_id"`
	ReferredEmail  string    `gorm:"size:255;not null" json:"referred_email"`
	Status         string    `gorm:"size:20;default:'pending'" json:"status"` // pending, active
}

// TableName overrides the table name
func (Referral) TableName() string {
	return "referrals"
}
