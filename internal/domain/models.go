// Package domain defines the records persisted by the gateway: bot tokens,
// settings, message logs and chats. All four live in a single Document that
// is stored as one JSON file (see package store); the JSON field names below
// are the on-disk names and must stay stable.
package domain

import "time"

// BotToken is a registered Telegram bot credential.
//
// Fields:
//   - ID: max+1 identifier, never recycled after deletion.
//   - Name: human label, unique among live tokens (enforced by services).
//   - Token: opaque secret issued by BotFather.
//   - IsActive: toggled independently of deletion.
type BotToken struct {
	ID          ID        `json:"id"`
	Name        string    `json:"name"`
	Token       string    `json:"token"`
	Description *string   `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BotTokenPatch carries a partial update. Nil fields are left untouched.
type BotTokenPatch struct {
	Name        *string
	Token       *string
	Description *string
	IsActive    *bool
}

// Setting is a key/value pair looked up by Key, not by ID.
type Setting struct {
	ID          ID        `json:"id"`
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SettingPatch carries a partial update. Nil fields are left untouched.
type SettingPatch struct {
	Value       *string
	Description *string
}

// MessageType classifies a logged message.
type MessageType string

const (
	MessageTypeCommand  MessageType = "command"
	MessageTypeText     MessageType = "text"
	MessageTypePhoto    MessageType = "photo"
	MessageTypeDocument MessageType = "document"
)

// Direction tells whether a message was received or sent by the bot.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// MessageLog is one entry of the append-only traffic log. BotTokenID is a
// weak reference: deleting the token does not touch its logs.
type MessageLog struct {
	ID             ID          `json:"id"`
	BotTokenID     *ID         `json:"bot_token_id"`
	ChatID         ChatID      `json:"chat_id"`
	UserID         *string     `json:"user_id"`
	Username       *string     `json:"username"`
	MessageType    MessageType `json:"message_type"`
	MessageContent *string     `json:"message_content"`
	Direction      Direction   `json:"direction"`
	CreatedAt      time.Time   `json:"created_at"`
}

// NewMessageLog is the input for appending a log entry.
type NewMessageLog struct {
	BotTokenID     *ID
	ChatID         ChatID
	UserID         *string
	Username       *string
	MessageType    MessageType
	MessageContent *string
	Direction      Direction
}

// ChatType mirrors the Telegram chat type.
type ChatType string

const (
	ChatTypePrivate    ChatType = "private"
	ChatTypeGroup      ChatType = "group"
	ChatTypeSupergroup ChatType = "supergroup"
	ChatTypeChannel    ChatType = "channel"
)

// Chat is the cached identity of a Telegram chat seen by one bot token.
// (BotTokenID, ChatID) is the natural key; at most one record per key.
type Chat struct {
	ID            ID        `json:"id"`
	BotTokenID    ID        `json:"bot_token_id"`
	ChatID        ChatID    `json:"chat_id"`
	Title         *string   `json:"title"`
	Username      *string   `json:"username"`
	FirstName     *string   `json:"first_name"`
	Type          ChatType  `json:"type"`
	LastMessageAt time.Time `json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ChatUpsert is the input of a create-or-update on the chats collection.
// For an existing record only the non-nil optional fields are applied.
type ChatUpsert struct {
	BotTokenID    ID
	ChatID        ChatID
	Title         *string
	Username      *string
	FirstName     *string
	Type          *ChatType
	LastMessageAt *time.Time
}

// Stats summarizes collection sizes.
type Stats struct {
	TotalTokens   int `json:"total_tokens"`
	ActiveTokens  int `json:"active_tokens"`
	TotalSettings int `json:"total_settings"`
	TotalLogs     int `json:"total_logs"`
}

// StringPtr returns nil for an empty string and a pointer to s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
