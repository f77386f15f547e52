package domain

import "strings"

// ChatInfo is the authoritative chat metadata returned by the messaging
// platform.
type ChatInfo struct {
	Title     string   `json:"title,omitempty"`
	Username  string   `json:"username,omitempty"`
	FirstName string   `json:"first_name,omitempty"`
	Type      ChatType `json:"type"`
}

// BotInfo describes the bot behind a token, as reported by getMe.
type BotInfo struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	IsBot     bool   `json:"is_bot"`
}

// SentMessage identifies a message delivered by the platform.
type SentMessage struct {
	MessageID int    `json:"message_id"`
	ChatID    ChatID `json:"chat_id"`
}

// TypeSource tells how much a chat summary's Type can be trusted.
type TypeSource string

const (
	// SourceAuthoritative: fetched from the platform during this call.
	SourceAuthoritative TypeSource = "authoritative"
	// SourceCached: lookup failed, values come from the stored chat record.
	SourceCached TypeSource = "cached"
	// SourceInferred: lookup failed and nothing was stored; Type is guessed
	// from the chat id.
	SourceInferred TypeSource = "inferred"
)

// ChatSummary is one row of a reconciled chat listing.
type ChatSummary struct {
	ID        ChatID     `json:"id"`
	ChatID    ChatID     `json:"chat_id"`
	Title     string     `json:"title"`
	Username  *string    `json:"username"`
	FirstName *string    `json:"first_name"`
	Type      ChatType   `json:"type"`
	Source    TypeSource `json:"source"`
}

// InferChatType guesses a chat type from the id alone: Telegram channel and
// supergroup ids start with -100, basic groups are negative, users positive.
func InferChatType(id ChatID) ChatType {
	s := strings.TrimSpace(string(id))
	switch {
	case strings.HasPrefix(s, "-100"):
		return ChatTypeChannel
	case strings.HasPrefix(s, "-"):
		return ChatTypeGroup
	default:
		return ChatTypePrivate
	}
}

// SyncResult reports a bulk chat refresh.
type SyncResult struct {
	SyncedCount     int      `json:"synced_count"`
	ErrorCount      int      `json:"error_count"`
	TotalCandidates int      `json:"total_candidates"`
	ErrorDetails    []string `json:"error_details"`
}
