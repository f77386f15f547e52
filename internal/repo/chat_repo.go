package repo

import (
	"context"
	"slices"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
	"github.com/tbourn/go-telegram-gateway/internal/store"
)

// ListChats returns cached chat identities, optionally for one credential,
// most recently active first.
func ListChats(ctx context.Context, st *store.Store, botTokenID *domain.ID) ([]domain.Chat, error) {
	out := []domain.Chat{}
	err := st.View(ctx, "chats.list", func(d *domain.Document) error {
		for _, c := range d.Chats {
			if botTokenID == nil || c.BotTokenID == *botTokenID {
				out = append(out, c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, func(a, b domain.Chat) int {
		return b.LastMessageAt.Compare(a.LastMessageAt)
	})
	return out, nil
}

// GetChatByChatID looks a chat up by platform id, restricted to one
// credential when botTokenID is set. Returns ErrNotFound when absent.
func GetChatByChatID(ctx context.Context, st *store.Store, chatID domain.ChatID, botTokenID *domain.ID) (*domain.Chat, error) {
	var out *domain.Chat
	err := st.View(ctx, "chats.get", func(d *domain.Document) error {
		i := slices.IndexFunc(d.Chats, func(c domain.Chat) bool {
			return sameChat(c.ChatID, chatID) && (botTokenID == nil || c.BotTokenID == *botTokenID)
		})
		if i < 0 {
			return ErrNotFound
		}
		c := d.Chats[i]
		out = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertChat creates or updates the chat identified by (BotTokenID, ChatID).
//
// Existing record: only the non-nil optional fields are applied and
// updated_at is refreshed. New record: id max+1, type defaults to private and
// last_message_at to now. Applying the same upsert twice leaves one record.
func UpsertChat(ctx context.Context, st *store.Store, in domain.ChatUpsert) (*domain.Chat, error) {
	chatID := in.ChatID.Key()
	var out domain.Chat
	err := st.Update(ctx, "chats.upsert", func(d *domain.Document) error {
		ts := now()
		i := slices.IndexFunc(d.Chats, func(c domain.Chat) bool {
			return c.BotTokenID == in.BotTokenID && sameChat(c.ChatID, chatID)
		})
		if i >= 0 {
			c := &d.Chats[i]
			if in.Title != nil {
				c.Title = in.Title
			}
			if in.Username != nil {
				c.Username = in.Username
			}
			if in.FirstName != nil {
				c.FirstName = in.FirstName
			}
			if in.Type != nil {
				c.Type = *in.Type
			}
			if in.LastMessageAt != nil {
				c.LastMessageAt = in.LastMessageAt.UTC()
			}
			c.UpdatedAt = ts
			out = *c
			return nil
		}

		out = domain.Chat{
			ID:            nextID(d.Chats, func(c domain.Chat) domain.ID { return c.ID }),
			BotTokenID:    in.BotTokenID,
			ChatID:        chatID,
			Title:         in.Title,
			Username:      in.Username,
			FirstName:     in.FirstName,
			Type:          domain.ChatTypePrivate,
			LastMessageAt: ts,
			CreatedAt:     ts,
			UpdatedAt:     ts,
		}
		if in.Type != nil {
			out.Type = *in.Type
		}
		if in.LastMessageAt != nil {
			out.LastMessageAt = in.LastMessageAt.UTC()
		}
		d.Chats = append(d.Chats, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
