package models

import (
	"time"
)

// MaxDialogs is the fixed number of conversation slots per user.
const MaxDialogs = 5

// Role values for conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// User represents a Telegram user, upserted on every inbound event.
type User struct {
	ID        int64  `gorm:"primaryKey"`
	Username  string `gorm:"type:varchar(64)"`
	FirstName string `gorm:"type:varchar(128)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string { return "users" }

// Session holds the active mode and dialog slot for a user. Exactly one
// row per user, last write wins.
type Session struct {
	UserID    int64  `gorm:"primaryKey"`
	Mode      string `gorm:"type:varchar(16);not null"`
	DialogID  int    `gorm:"not null;default:1"`
	UpdatedAt time.Time
}

func (Session) TableName() string { return "user_sessions" }

// ConversationMessage is one message of a dialog. Immutable once written;
// deleted in bulk when its slot is cleared.
type ConversationMessage struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	UserID    int64  `gorm:"not null;index:idx_conversations_user_dialog,priority:1"`
	Role      string `gorm:"type:varchar(16);not null"`
	Content   string `gorm:"type:text;not null"`
	Mode      string `gorm:"type:varchar(16);not null"`
	DialogID  int    `gorm:"not null;default:1;index:idx_conversations_user_dialog,priority:2"`
	CreatedAt time.Time
}

func (ConversationMessage) TableName() string { return "conversations" }

// PromptMessage is a role/content pair sent to the completion endpoint.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DialogSummary is the short preview of one slot for the management
// listing: mode emoji plus the truncated newest user message. A nil
// entry means the slot is empty.
type DialogSummary struct {
	DialogID int
	Text     string
}

// WebsiteCredential is the site-login record kept in the external
// credential store, one row per user.
type WebsiteCredential struct {
	TelegramID       int64  `json:"telegram_id"`
	Login            string `json:"login"`
	Password         string `json:"password"`
	SubscriptionType string `json:"subscription_type"`
	IsActive         bool   `json:"is_active"`
}

// CacheEntry represents a cached completion response.
type CacheEntry struct {
	Question  string
	Answer    string
	Mode      string
	CreatedAt time.Time
}
