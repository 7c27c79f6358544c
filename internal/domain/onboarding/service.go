package onboarding

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/rpggio/healthspectrum/internal/domain/storage"
)

// Service tracks onboarding tips, feature tours, and saved help topics.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new onboarding service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: store, logger: logger}
}

// MarkTipSeen records that the tip was dismissed. It reports whether the tip
// was previously unseen.
func (s *Service) MarkTipSeen(ctx context.Context, tenantID, tipID string) (bool, error) {
	return s.setFlag(ctx, tenantID, storage.KeySeenTips, tipID, true)
}

// UnmarkTipSeen forgets a dismissed tip.
func (s *Service) UnmarkTipSeen(ctx context.Context, tenantID, tipID string) error {
	_, err := s.setFlag(ctx, tenantID, storage.KeySeenTips, tipID, false)
	return err
}

// HasSeenTip reports whether the tip was dismissed.
func (s *Service) HasSeenTip(ctx context.Context, tenantID, tipID string) (bool, error) {
	flags, err := s.flags(ctx, tenantID, storage.KeySeenTips)
	if err != nil {
		return false, err
	}
	return flags[tipID], nil
}

// CompleteTour records a finished or skipped tour. It reports whether the
// tour was previously incomplete.
func (s *Service) CompleteTour(ctx context.Context, tenantID, tourID string) (bool, error) {
	return s.setFlag(ctx, tenantID, storage.KeyCompletedTours, tourID, true)
}

// UncompleteTour marks a tour as not yet completed.
func (s *Service) UncompleteTour(ctx context.Context, tenantID, tourID string) error {
	_, err := s.setFlag(ctx, tenantID, storage.KeyCompletedTours, tourID, false)
	return err
}

// IsTourCompleted reports whether the tour was completed.
func (s *Service) IsTourCompleted(ctx context.Context, tenantID, tourID string) (bool, error) {
	flags, err := s.flags(ctx, tenantID, storage.KeyCompletedTours)
	if err != nil {
		return false, err
	}
	return flags[tourID], nil
}

// ToggleSavedTopic adds the topic to the saved list, or removes it when
// already present. It reports whether the topic is saved afterwards.
func (s *Service) ToggleSavedTopic(ctx context.Context, tenantID, topicID string) (bool, error) {
	if strings.TrimSpace(topicID) == "" {
		return false, ErrInvalidInput
	}
	topics, err := s.SavedTopics(ctx, tenantID)
	if err != nil {
		return false, err
	}

	saved := !slices.Contains(topics, topicID)
	if saved {
		topics = append(topics, topicID)
	} else {
		topics = slices.DeleteFunc(topics, func(id string) bool { return id == topicID })
	}

	if err := s.store.SaveJSON(ctx, tenantID, storage.KeySavedHelpTopics, topics); err != nil {
		return false, fmt.Errorf("saving help topics: %w", err)
	}
	s.logger.Debug("help topic toggled", "tenant_id", tenantID, "topic_id", topicID, "saved", saved)
	return saved, nil
}

// SavedTopics returns saved help topic ids in the order they were saved.
func (s *Service) SavedTopics(ctx context.Context, tenantID string) ([]string, error) {
	var topics []string
	if _, err := s.store.LoadJSON(ctx, tenantID, storage.KeySavedHelpTopics, &topics); err != nil {
		return nil, fmt.Errorf("loading help topics: %w", err)
	}
	if topics == nil {
		topics = []string{}
	}
	return topics, nil
}

// State returns the tenant's onboarding progress.
func (s *Service) State(ctx context.Context, tenantID string) (State, error) {
	tips, err := s.flags(ctx, tenantID, storage.KeySeenTips)
	if err != nil {
		return State{}, err
	}
	tours, err := s.flags(ctx, tenantID, storage.KeyCompletedTours)
	if err != nil {
		return State{}, err
	}
	topics, err := s.SavedTopics(ctx, tenantID)
	if err != nil {
		return State{}, err
	}
	return State{
		SeenTips:        setKeys(tips),
		CompletedTours:  setKeys(tours),
		SavedHelpTopics: topics,
	}, nil
}

func (s *Service) flags(ctx context.Context, tenantID, key string) (map[string]bool, error) {
	flags := map[string]bool{}
	if _, err := s.store.LoadJSON(ctx, tenantID, key, &flags); err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	if flags == nil {
		flags = map[string]bool{}
	}
	return flags, nil
}

func (s *Service) setFlag(ctx context.Context, tenantID, key, id string, value bool) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, ErrInvalidInput
	}
	flags, err := s.flags(ctx, tenantID, key)
	if err != nil {
		return false, err
	}
	changed := flags[id] != value
	if !changed {
		return false, nil
	}
	if value {
		flags[id] = true
	} else {
		delete(flags, id)
	}
	if err := s.store.SaveJSON(ctx, tenantID, key, flags); err != nil {
		return false, fmt.Errorf("saving %s: %w", key, err)
	}
	s.logger.Debug("onboarding flag changed", "tenant_id", tenantID, "key", key, "id", id, "value", value)
	return true, nil
}

// setKeys returns the ids whose flag is set, sorted.
func setKeys(flags map[string]bool) []string {
	ids := make([]string, 0, len(flags))
	for _, id := range slices.Sorted(maps.Keys(flags)) {
		if flags[id] {
			ids = append(ids, id)
		}
	}
	return ids
}
