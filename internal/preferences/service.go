package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/besy-hub/besy-orders/internal/filter"
	"github.com/besy-hub/besy-orders/internal/shared"
)

// Store describes the generic preference store consumed by the service.
type Store interface {
	ListByUser(ctx context.Context, userID, preferenceType string) ([]Preference, error)
	Create(ctx context.Context, pref Preference) (Preference, error)
	Update(ctx context.Context, id int64, pref Preference) (Preference, error)
	Delete(ctx context.Context, id int64) error
}

// IdentityPort resolves the authenticated user. It is consulted on every
// operation, never cached, so login/logout elsewhere takes effect
// immediately.
type IdentityPort interface {
	CurrentUser(ctx context.Context) (shared.Identity, error)
}

// Service builds the effective preset list for a user: built-in defaults
// (placeholder resolved) unioned with the user's saved custom presets.
//
// List-returning operations degrade rather than fail: on a store or identity
// error the returned list falls back to the valid defaults and the error is
// advisory — callers may surface it as a transient notification but the list
// is always usable.
type Service struct {
	store    Store
	identity IdentityPort
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the preset service.
func NewService(store Store, identity IdentityPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, identity: identity, logger: logger, now: time.Now}
}

// Presets returns defaults unioned with the user's saved presets, the
// auto-managed lastActiveFilters preset included.
func (s *Service) Presets(ctx context.Context) ([]filter.Preset, error) {
	user, err := s.identity.CurrentUser(ctx)
	if err != nil {
		if !errors.Is(err, shared.ErrNoUser) {
			s.logger.Warn("resolve current user", slog.Any("error", err))
		} else {
			s.logger.Debug("no authenticated user, serving defaults only")
		}
		return resolveDefaults(defaultPresets(s.now()), ""), nil
	}
	saved, err := s.savedPresets(ctx, user.ID)
	if err != nil {
		s.logger.Error("list saved presets", slog.Any("error", err))
		return s.ValidDefaultPresets(ctx), fmt.Errorf("preferences: list presets: %w", err)
	}
	return append(resolveDefaults(defaultPresets(s.now()), user.ID), saved...), nil
}

// ValidDefaultPresets resolves the built-in defaults for the current user.
// Without a resolvable user, presets referencing CURRENT_USER are omitted.
func (s *Service) ValidDefaultPresets(ctx context.Context) []filter.Preset {
	user, err := s.identity.CurrentUser(ctx)
	if err != nil {
		if !errors.Is(err, shared.ErrNoUser) {
			s.logger.Warn("resolve current user", slog.Any("error", err))
		}
		return resolveDefaults(defaultPresets(s.now()), "")
	}
	return resolveDefaults(defaultPresets(s.now()), user.ID)
}

// SavePreset persists a new custom preset and returns the refreshed list.
func (s *Service) SavePreset(ctx context.Context, preset filter.Preset) ([]filter.Preset, error) {
	user, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return s.ValidDefaultPresets(ctx), fmt.Errorf("preferences: save preset: %w", err)
	}
	payload, err := json.Marshal(preset)
	if err != nil {
		return s.ValidDefaultPresets(ctx), fmt.Errorf("preferences: encode preset: %w", err)
	}
	if _, err := s.store.Create(ctx, Preference{
		UserID:         user.ID,
		PreferenceType: TypeOrderFilterPresets,
		Preferences:    payload,
	}); err != nil {
		s.logger.Error("save preset", slog.String("label", preset.Label), slog.Any("error", err))
		return s.ValidDefaultPresets(ctx), fmt.Errorf("preferences: save preset: %w", err)
	}
	return s.Presets(ctx)
}

// UpdatePresetByLabel deletes every saved preset carrying oldLabel, then
// saves updated. The store has no rename-by-label, so this is both how
// renames happen and how lastActiveFilters is continuously overwritten. The
// multi-delete is defensive: there should be at most one match, duplicates
// are cleaned up if they ever appear.
func (s *Service) UpdatePresetByLabel(ctx context.Context, oldLabel string, updated filter.Preset) ([]filter.Preset, error) {
	user, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return s.ValidDefaultPresets(ctx), fmt.Errorf("preferences: update preset: %w", err)
	}
	saved, err := s.savedPresets(ctx, user.ID)
	if err != nil {
		s.logger.Error("list presets for update", slog.Any("error", err))
		return s.ValidDefaultPresets(ctx), fmt.Errorf("preferences: update preset: %w", err)
	}
	for _, preset := range saved {
		if preset.Label != oldLabel {
			continue
		}
		if err := s.store.Delete(ctx, preset.ID); err != nil && !errors.Is(err, shared.ErrNotFound) {
			s.logger.Error("delete preset for update", slog.Int64("id", preset.ID), slog.Any("error", err))
			return s.ValidDefaultPresets(ctx), fmt.Errorf("preferences: update preset: %w", err)
		}
	}
	return s.SavePreset(ctx, updated)
}

// DeletePreset removes a saved preset by its store-assigned id.
func (s *Service) DeletePreset(ctx context.Context, id int64) ([]filter.Preset, error) {
	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.Error("delete preset", slog.Int64("id", id), slog.Any("error", err))
		return s.ValidDefaultPresets(ctx), fmt.Errorf("preferences: delete preset: %w", err)
	}
	return s.Presets(ctx)
}

// LastActive returns the persisted lastActiveFilters preset when present.
func (s *Service) LastActive(ctx context.Context) (filter.Preset, bool) {
	user, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return filter.Preset{}, false
	}
	saved, err := s.savedPresets(ctx, user.ID)
	if err != nil {
		s.logger.Error("list presets for restore", slog.Any("error", err))
		return filter.Preset{}, false
	}
	for _, preset := range saved {
		if preset.IsLastActive() {
			return preset, true
		}
	}
	return filter.Preset{}, false
}

// savedPresets loads and decodes the user's stored presets. A single
// malformed blob is skipped with a log instead of poisoning the whole list.
func (s *Service) savedPresets(ctx context.Context, userID string) ([]filter.Preset, error) {
	prefs, err := s.store.ListByUser(ctx, userID, TypeOrderFilterPresets)
	if err != nil {
		return nil, err
	}
	presets := make([]filter.Preset, 0, len(prefs))
	for _, pref := range prefs {
		preset, err := ParsePreset(pref.Preferences)
		if err != nil {
			s.logger.Warn("skip malformed preset blob", slog.Int64("id", pref.ID), slog.Any("error", err))
			continue
		}
		preset.ID = pref.ID
		presets = append(presets, preset)
	}
	return presets, nil
}

// ParsePreset accepts a preset as a JSON string, raw JSON, a generic map or
// an already-typed value and returns the typed preset. Date-range bounds
// persisted as ISO strings are revived into time values during decoding.
// Inputs without a recognisable label are rejected.
func ParsePreset(input any) (filter.Preset, error) {
	var preset filter.Preset
	switch v := input.(type) {
	case filter.Preset:
		preset = v
	case *filter.Preset:
		if v == nil {
			return filter.Preset{}, fmt.Errorf("%w: nil preset", shared.ErrValidation)
		}
		preset = *v
	case string:
		if err := json.Unmarshal([]byte(v), &preset); err != nil {
			return filter.Preset{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
		}
	case []byte:
		if err := json.Unmarshal(v, &preset); err != nil {
			return filter.Preset{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
		}
	case json.RawMessage:
		if err := json.Unmarshal(v, &preset); err != nil {
			return filter.Preset{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
		}
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return filter.Preset{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
		}
		if err := json.Unmarshal(raw, &preset); err != nil {
			return filter.Preset{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
		}
	}
	if preset.Label == "" {
		return filter.Preset{}, fmt.Errorf("%w: preset label missing", shared.ErrValidation)
	}
	return preset, nil
}
