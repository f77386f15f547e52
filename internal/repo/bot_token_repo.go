package repo

import (
	"context"
	"slices"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
	"github.com/tbourn/go-telegram-gateway/internal/store"
)

// CreateBotToken appends a new credential with id max+1. A name already used
// by another credential yields ErrConflict.
func CreateBotToken(ctx context.Context, st *store.Store, name, token string, description *string, isActive bool) (*domain.BotToken, error) {
	var out domain.BotToken
	err := st.Update(ctx, "bot_tokens.create", func(d *domain.Document) error {
		if nameTaken(d.BotTokens, name, 0) {
			return ErrConflict
		}
		ts := now()
		out = domain.BotToken{
			ID:          nextID(d.BotTokens, func(t domain.BotToken) domain.ID { return t.ID }),
			Name:        name,
			Token:       token,
			Description: description,
			IsActive:    isActive,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		}
		d.BotTokens = append(d.BotTokens, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBotTokens returns all credentials, newest first.
func ListBotTokens(ctx context.Context, st *store.Store) ([]domain.BotToken, error) {
	var out []domain.BotToken
	err := st.View(ctx, "bot_tokens.list", func(d *domain.Document) error {
		out = slices.Clone(d.BotTokens)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, func(a, b domain.BotToken) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

// ListActiveBotTokens returns the active credentials in stored order.
func ListActiveBotTokens(ctx context.Context, st *store.Store) ([]domain.BotToken, error) {
	out := []domain.BotToken{}
	err := st.View(ctx, "bot_tokens.list_active", func(d *domain.Document) error {
		for _, t := range d.BotTokens {
			if t.IsActive {
				out = append(out, t)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetBotToken fetches a credential by id, or ErrNotFound.
func GetBotToken(ctx context.Context, st *store.Store, id domain.ID) (*domain.BotToken, error) {
	var out *domain.BotToken
	err := st.View(ctx, "bot_tokens.get", func(d *domain.Document) error {
		i := slices.IndexFunc(d.BotTokens, func(t domain.BotToken) bool { return t.ID == id })
		if i < 0 {
			return ErrNotFound
		}
		t := d.BotTokens[i]
		out = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateBotToken applies the non-nil fields of p and refreshes updated_at.
// Renaming onto another credential's name yields ErrConflict.
func UpdateBotToken(ctx context.Context, st *store.Store, id domain.ID, p domain.BotTokenPatch) (*domain.BotToken, error) {
	var out domain.BotToken
	err := st.Update(ctx, "bot_tokens.update", func(d *domain.Document) error {
		i := slices.IndexFunc(d.BotTokens, func(t domain.BotToken) bool { return t.ID == id })
		if i < 0 {
			return ErrNotFound
		}
		if p.Name != nil && nameTaken(d.BotTokens, *p.Name, id) {
			return ErrConflict
		}
		t := &d.BotTokens[i]
		if p.Name != nil {
			t.Name = *p.Name
		}
		if p.Token != nil {
			t.Token = *p.Token
		}
		if p.Description != nil {
			t.Description = p.Description
		}
		if p.IsActive != nil {
			t.IsActive = *p.IsActive
		}
		t.UpdatedAt = now()
		out = *t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteBotToken removes a credential. Its message logs and chats are kept.
func DeleteBotToken(ctx context.Context, st *store.Store, id domain.ID) error {
	return st.Update(ctx, "bot_tokens.delete", func(d *domain.Document) error {
		i := slices.IndexFunc(d.BotTokens, func(t domain.BotToken) bool { return t.ID == id })
		if i < 0 {
			return ErrNotFound
		}
		d.BotTokens = slices.Delete(d.BotTokens, i, i+1)
		return nil
	})
}

func nameTaken(tokens []domain.BotToken, name string, self domain.ID) bool {
	return slices.ContainsFunc(tokens, func(t domain.BotToken) bool {
		return t.Name == name && t.ID != self
	})
}
