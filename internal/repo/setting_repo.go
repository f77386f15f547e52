package repo

import (
	"context"
	"errors"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
	"github.com/tbourn/go-telegram-gateway/internal/store"
)

// ListSettings returns all settings ordered by key with locale-aware
// collation (root locale), so "apple" < "Banana" < "cherry".
func ListSettings(ctx context.Context, st *store.Store) ([]domain.Setting, error) {
	var out []domain.Setting
	err := st.View(ctx, "settings.list", func(d *domain.Document) error {
		out = slices.Clone(d.Settings)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Collators keep internal buffers; one per call.
	col := collate.New(language.Und)
	slices.SortStableFunc(out, func(a, b domain.Setting) int {
		return col.CompareString(a.Key, b.Key)
	})
	return out, nil
}

// GetSetting fetches a setting by key, or ErrNotFound.
func GetSetting(ctx context.Context, st *store.Store, key string) (*domain.Setting, error) {
	var out *domain.Setting
	err := st.View(ctx, "settings.get", func(d *domain.Document) error {
		i := slices.IndexFunc(d.Settings, func(s domain.Setting) bool { return s.Key == key })
		if i < 0 {
			return ErrNotFound
		}
		s := d.Settings[i]
		out = &s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetSettingValue returns the value stored under key, or def when the key is
// missing or empty.
func GetSettingValue(ctx context.Context, st *store.Store, key, def string) (string, error) {
	s, err := GetSetting(ctx, st, key)
	switch {
	case errors.Is(err, ErrNotFound):
		return def, nil
	case err != nil:
		return "", err
	case s.Value == "":
		return def, nil
	}
	return s.Value, nil
}

// CreateSetting appends a setting with id max+1. A duplicate key yields
// ErrConflict.
func CreateSetting(ctx context.Context, st *store.Store, key, value string, description *string) (*domain.Setting, error) {
	var out domain.Setting
	err := st.Update(ctx, "settings.create", func(d *domain.Document) error {
		if slices.ContainsFunc(d.Settings, func(s domain.Setting) bool { return s.Key == key }) {
			return ErrConflict
		}
		ts := now()
		out = domain.Setting{
			ID:          nextID(d.Settings, func(s domain.Setting) domain.ID { return s.ID }),
			Key:         key,
			Value:       value,
			Description: description,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		}
		d.Settings = append(d.Settings, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSetting applies the non-nil fields of p to the setting under key.
func UpdateSetting(ctx context.Context, st *store.Store, key string, p domain.SettingPatch) (*domain.Setting, error) {
	var out domain.Setting
	err := st.Update(ctx, "settings.update", func(d *domain.Document) error {
		i := slices.IndexFunc(d.Settings, func(s domain.Setting) bool { return s.Key == key })
		if i < 0 {
			return ErrNotFound
		}
		s := &d.Settings[i]
		if p.Value != nil {
			s.Value = *p.Value
		}
		if p.Description != nil {
			s.Description = p.Description
		}
		s.UpdatedAt = now()
		out = *s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSetting removes the setting under key.
func DeleteSetting(ctx context.Context, st *store.Store, key string) error {
	return st.Update(ctx, "settings.delete", func(d *domain.Document) error {
		i := slices.IndexFunc(d.Settings, func(s domain.Setting) bool { return s.Key == key })
		if i < 0 {
			return ErrNotFound
		}
		d.Settings = slices.Delete(d.Settings, i, i+1)
		return nil
	})
}
