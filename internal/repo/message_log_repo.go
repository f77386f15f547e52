package repo

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
	"github.com/tbourn/go-telegram-gateway/internal/store"
)

// LogChat is one distinct chat seen in a credential's message logs.
type LogChat struct {
	ChatID        domain.ChatID
	Username      *string // from the most recent log of the chat that carried one
	LastMessageAt time.Time
}

// CreateMessageLog appends a traffic log entry with id max+1. Absent optional
// fields are stored as null; type and direction are stored verbatim.
func CreateMessageLog(ctx context.Context, st *store.Store, in domain.NewMessageLog) (*domain.MessageLog, error) {
	var out domain.MessageLog
	err := st.Update(ctx, "message_logs.create", func(d *domain.Document) error {
		out = domain.MessageLog{
			ID:             nextID(d.MessageLogs, func(l domain.MessageLog) domain.ID { return l.ID }),
			BotTokenID:     in.BotTokenID,
			ChatID:         in.ChatID.Key(),
			UserID:         in.UserID,
			Username:       in.Username,
			MessageType:    in.MessageType,
			MessageContent: in.MessageContent,
			Direction:      in.Direction,
			CreatedAt:      now(),
		}
		d.MessageLogs = append(d.MessageLogs, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMessageLogs returns logs newest first, optionally restricted to one
// credential, truncated to limit (DefaultLogLimit when limit <= 0).
func ListMessageLogs(ctx context.Context, st *store.Store, limit int, botTokenID *domain.ID) ([]domain.MessageLog, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	out := []domain.MessageLog{}
	err := st.View(ctx, "message_logs.list", func(d *domain.Document) error {
		for _, l := range d.MessageLogs {
			if botTokenID == nil || domain.SameID(l.BotTokenID, *botTokenID) {
				out = append(out, l)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortLogsDesc(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountMessageLogs returns the total number of logs.
func CountMessageLogs(ctx context.Context, st *store.Store) (int, error) {
	var n int
	err := st.View(ctx, "message_logs.count", func(d *domain.Document) error {
		n = len(d.MessageLogs)
		return nil
	})
	return n, err
}

// ListLogChats returns the distinct chats in the newest scanLimit logs of a
// credential, most recently active first. scanLimit <= 0 scans every log.
func ListLogChats(ctx context.Context, st *store.Store, botTokenID domain.ID, scanLimit int) ([]LogChat, error) {
	var logs []domain.MessageLog
	err := st.View(ctx, "message_logs.chats", func(d *domain.Document) error {
		for _, l := range d.MessageLogs {
			if domain.SameID(l.BotTokenID, botTokenID) {
				logs = append(logs, l)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortLogsDesc(logs)
	if scanLimit > 0 && len(logs) > scanLimit {
		logs = logs[:scanLimit]
	}

	out := []LogChat{}
	index := map[domain.ChatID]int{}
	for _, l := range logs {
		key := l.ChatID.Key()
		if key == "" {
			continue
		}
		if i, seen := index[key]; seen {
			if out[i].Username == nil && l.Username != nil {
				out[i].Username = l.Username
			}
			continue
		}
		index[key] = len(out)
		out = append(out, LogChat{ChatID: key, Username: l.Username, LastMessageAt: l.CreatedAt})
	}
	return out, nil
}

func sortLogsDesc(logs []domain.MessageLog) {
	slices.SortStableFunc(logs, func(a, b domain.MessageLog) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
