package domain

// Document is the whole persisted state. It is always read and written as a
// unit; a collection missing on disk decodes as nil and is backfilled by
// Normalize.
type Document struct {
	BotTokens   []BotToken   `json:"bot_tokens"`
	Settings    []Setting    `json:"settings"`
	MessageLogs []MessageLog `json:"message_logs"`
	Chats       []Chat       `json:"chats"`

	// IdempotencyKeys holds replayable API responses. It is absent until the
	// first keyed POST completes.
	IdempotencyKeys []IdempotencyRecord `json:"idempotency_keys,omitempty"`
}

// NewDocument returns the empty four-collection document used on first run
// and whenever the stored one cannot be read.
func NewDocument() *Document {
	return &Document{
		BotTokens:   []BotToken{},
		Settings:    []Setting{},
		MessageLogs: []MessageLog{},
		Chats:       []Chat{},
	}
}

// Normalize replaces nil collections with empty ones. It reports whether the
// chats collection was missing, which older documents predate.
func (d *Document) Normalize() (chatsMissing bool) {
	if d.BotTokens == nil {
		d.BotTokens = []BotToken{}
	}
	if d.Settings == nil {
		d.Settings = []Setting{}
	}
	if d.MessageLogs == nil {
		d.MessageLogs = []MessageLog{}
	}
	if d.Chats == nil {
		d.Chats = []Chat{}
		chatsMissing = true
	}
	return chatsMissing
}
