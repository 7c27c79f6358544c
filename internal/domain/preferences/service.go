package preferences

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/rpggio/healthspectrum/internal/domain/storage"
)

// Service loads, merges, and saves a tenant's preference document.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new preferences service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: store, logger: logger}
}

// Get returns the stored preferences merged over the defaults, so documents
// written by older versions still produce every field. A missing or corrupt
// document yields the defaults.
func (s *Service) Get(ctx context.Context, tenantID string) (Preferences, error) {
	prefs := Defaults()
	found, err := s.store.LoadJSON(ctx, tenantID, storage.KeyPreferences, &prefs)
	if err != nil {
		return Preferences{}, fmt.Errorf("loading preferences: %w", err)
	}
	if !found {
		s.logger.Debug("using default preferences", "tenant_id", tenantID)
		return Defaults(), nil
	}
	return prefs, nil
}

// Update sets a single top-level preference from its JSON value.
func (s *Service) Update(ctx context.Context, tenantID, key string, value json.RawMessage) (Preferences, error) {
	if !IsKey(key) {
		return Preferences{}, ErrUnknownPreference
	}
	if len(value) == 0 {
		return Preferences{}, ErrInvalidValue
	}

	current, err := s.Get(ctx, tenantID)
	if err != nil {
		return Preferences{}, err
	}

	doc, err := json.Marshal(current)
	if err != nil {
		return Preferences{}, fmt.Errorf("encoding preferences: %w", err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(doc, &fields); err != nil {
		return Preferences{}, fmt.Errorf("decoding preferences: %w", err)
	}
	fields[key] = value

	doc, err = json.Marshal(fields)
	if err != nil {
		return Preferences{}, fmt.Errorf("encoding preferences: %w", err)
	}
	var next Preferences
	if err := json.Unmarshal(doc, &next); err != nil {
		return Preferences{}, fmt.Errorf("%w: %s", ErrInvalidValue, key)
	}

	if err := s.Replace(ctx, tenantID, next); err != nil {
		return Preferences{}, err
	}
	return next, nil
}

// Replace validates and stores a full preference document.
func (s *Service) Replace(ctx context.Context, tenantID string, prefs Preferences) error {
	if err := prefs.Validate(); err != nil {
		return err
	}
	if err := s.store.SaveJSON(ctx, tenantID, storage.KeyPreferences, prefs); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}

// Reset discards stored preferences; subsequent reads return the defaults.
func (s *Service) Reset(ctx context.Context, tenantID string) error {
	if err := s.store.Remove(ctx, tenantID, storage.KeyPreferences); err != nil {
		return fmt.Errorf("resetting preferences: %w", err)
	}
	return nil
}

// UpdateLayout replaces the dashboard widget order.
func (s *Service) UpdateLayout(ctx context.Context, tenantID string, layout []string) (Preferences, error) {
	return s.mutate(ctx, tenantID, func(p *Preferences) error {
		p.DashboardLayout = slices.Clone(layout)
		return nil
	})
}

// AddQuickAction appends actionID unless already present.
func (s *Service) AddQuickAction(ctx context.Context, tenantID, actionID string) (Preferences, error) {
	if strings.TrimSpace(actionID) == "" {
		return Preferences{}, ErrInvalidInput
	}
	return s.mutate(ctx, tenantID, func(p *Preferences) error {
		if !slices.Contains(p.QuickActions, actionID) {
			p.QuickActions = append(p.QuickActions, actionID)
		}
		return nil
	})
}

// RemoveQuickAction drops actionID from the quick actions.
func (s *Service) RemoveQuickAction(ctx context.Context, tenantID, actionID string) (Preferences, error) {
	return s.mutate(ctx, tenantID, func(p *Preferences) error {
		p.QuickActions = slices.DeleteFunc(p.QuickActions, func(id string) bool { return id == actionID })
		return nil
	})
}

// ReorderQuickActions replaces the quick action list with actionIDs.
func (s *Service) ReorderQuickActions(ctx context.Context, tenantID string, actionIDs []string) (Preferences, error) {
	return s.mutate(ctx, tenantID, func(p *Preferences) error {
		p.QuickActions = unique(actionIDs)
		return nil
	})
}

func unique(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func (s *Service) mutate(ctx context.Context, tenantID string, fn func(*Preferences) error) (Preferences, error) {
	prefs, err := s.Get(ctx, tenantID)
	if err != nil {
		return Preferences{}, err
	}
	if err := fn(&prefs); err != nil {
		return Preferences{}, err
	}
	if err := s.Replace(ctx, tenantID, prefs); err != nil {
		return Preferences{}, err
	}
	return prefs, nil
}
