package services

import (
	"context"
	"errors"
	"strings"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
	"github.com/tbourn/go-telegram-gateway/internal/repo"
	"github.com/tbourn/go-telegram-gateway/internal/store"
)

// Setting keys read by the gateway receiver.
const (
	SettingWelcomeMessage  = "welcome_message"
	SettingDefaultResponse = "default_response"
)

// SettingService manages key/value settings.
type SettingService struct {
	Store *store.Store
}

// NewSettingService constructs a SettingService.
func NewSettingService(st *store.Store) *SettingService {
	return &SettingService{Store: st}
}

// List returns every setting ordered by key.
func (s *SettingService) List(ctx context.Context) ([]domain.Setting, error) {
	return repo.ListSettings(ctx, s.Store)
}

// Get returns the setting under key.
func (s *SettingService) Get(ctx context.Context, key string) (*domain.Setting, error) {
	st, err := repo.GetSetting(ctx, s.Store, key)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrSettingNotFound
	}
	return st, err
}

// Create adds a setting. Keys are trimmed and must be unique.
func (s *SettingService) Create(ctx context.Context, key, value string, description *string) (*domain.Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrKeyRequired
	}
	st, err := repo.CreateSetting(ctx, s.Store, key, value, description)
	if errors.Is(err, repo.ErrConflict) {
		return nil, ErrSettingExists
	}
	return st, err
}

// Update applies a partial update to the setting under key.
func (s *SettingService) Update(ctx context.Context, key string, p domain.SettingPatch) (*domain.Setting, error) {
	st, err := repo.UpdateSetting(ctx, s.Store, key, p)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrSettingNotFound
	}
	return st, err
}

// Delete removes the setting under key.
func (s *SettingService) Delete(ctx context.Context, key string) error {
	err := repo.DeleteSetting(ctx, s.Store, key)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrSettingNotFound
	}
	return err
}
