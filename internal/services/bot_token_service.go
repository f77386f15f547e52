package services

import (
	"context"
	"errors"
	"strings"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
	"github.com/tbourn/go-telegram-gateway/internal/repo"
	"github.com/tbourn/go-telegram-gateway/internal/store"
)

// BotTokenService manages registered bot credentials. Names must be
// non-empty and unique; tokens must be non-empty.
type BotTokenService struct {
	Store *store.Store
}

// NewBotTokenService constructs a BotTokenService.
func NewBotTokenService(st *store.Store) *BotTokenService {
	return &BotTokenService{Store: st}
}

// List returns every credential, newest first.
func (s *BotTokenService) List(ctx context.Context) ([]domain.BotToken, error) {
	return repo.ListBotTokens(ctx, s.Store)
}

// Get returns one credential.
func (s *BotTokenService) Get(ctx context.Context, id domain.ID) (*domain.BotToken, error) {
	bt, err := repo.GetBotToken(ctx, s.Store, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrBotTokenNotFound
	}
	return bt, err
}

// Create validates and registers a credential.
func (s *BotTokenService) Create(ctx context.Context, name, token string, description *string, isActive bool) (*domain.BotToken, error) {
	name, token = strings.TrimSpace(name), strings.TrimSpace(token)
	if name == "" {
		return nil, ErrNameRequired
	}
	if token == "" {
		return nil, ErrTokenRequired
	}
	bt, err := repo.CreateBotToken(ctx, s.Store, name, token, description, isActive)
	if errors.Is(err, repo.ErrConflict) {
		return nil, ErrNameTaken
	}
	return bt, err
}

// Update applies a partial update. A new name must not collide with another
// credential; blank name or token values are rejected.
func (s *BotTokenService) Update(ctx context.Context, id domain.ID, p domain.BotTokenPatch) (*domain.BotToken, error) {
	if p.Name != nil {
		n := strings.TrimSpace(*p.Name)
		if n == "" {
			return nil, ErrNameRequired
		}
		p.Name = &n
	}
	if p.Token != nil {
		t := strings.TrimSpace(*p.Token)
		if t == "" {
			return nil, ErrTokenRequired
		}
		p.Token = &t
	}

	bt, err := repo.UpdateBotToken(ctx, s.Store, id, p)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return nil, ErrBotTokenNotFound
	case errors.Is(err, repo.ErrConflict):
		return nil, ErrNameTaken
	}
	return bt, err
}

// Delete removes a credential. Its logs and cached chats are kept.
func (s *BotTokenService) Delete(ctx context.Context, id domain.ID) error {
	err := repo.DeleteBotToken(ctx, s.Store, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrBotTokenNotFound
	}
	return err
}
