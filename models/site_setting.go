package models

import "time"

// SiteSetting holds singleton configuration values keyed by name, e.g. the
// injectable chat-widget script under SettingChatWidgetScript.
type SiteSetting struct {
	Key       string    `gorm:"primaryKey;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

const SettingChatWidgetScript = "chat_widget_script"

// TableName overrides the table name
func (SiteSetting) TableName() string {
	return "site_settings"
}
