package recent

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/rpggio/healthspectrum/internal/domain/storage"
	"github.com/rpggio/healthspectrum/internal/metrics"
)

const (
	// MaxItems is the capacity of the collection.
	MaxItems = 20
	// DefaultVisible is the number of items shown when no limit is given.
	DefaultVisible = 5
)

// Service maintains a tenant's recently viewed items: deduplicated by
// (id, type), most recent first, capped at MaxItems.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new recently viewed service.
func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add records a view. An existing entry with the same key is replaced and the
// new entry moves to the front with a fresh timestamp.
func (s *Service) Add(ctx context.Context, tenantID string, req AddRequest) (Item, error) {
	if err := validateAdd(req); err != nil {
		return Item{}, err
	}

	items, err := s.Items(ctx, tenantID)
	if err != nil {
		return Item{}, err
	}

	item := Item{
		ID:        req.ID,
		Type:      req.Type,
		Title:     req.Title,
		Subtitle:  req.Subtitle,
		Path:      req.Path,
		Timestamp: s.now().UnixMilli(),
		Pinned:    req.Pinned,
		Color:     req.Color,
	}

	items = slices.DeleteFunc(items, func(existing Item) bool { return existing.sameKey(item) })
	items = append([]Item{item}, items...)
	items = s.truncate(items)

	if err := s.save(ctx, tenantID, items); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Items returns the stored collection in recency order.
func (s *Service) Items(ctx context.Context, tenantID string) ([]Item, error) {
	var items []Item
	if _, err := s.store.LoadJSON(ctx, tenantID, storage.KeyRecentlyViewed, &items); err != nil {
		return nil, fmt.Errorf("loading recently viewed: %w", err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// Sorted returns the collection in display order.
func (s *Service) Sorted(ctx context.Context, tenantID string) ([]Item, error) {
	items, err := s.Items(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return SortForDisplay(items), nil
}

// Visible returns the first limit items in display order.
func (s *Service) Visible(ctx context.Context, tenantID string, limit int) (View, error) {
	if limit <= 0 {
		limit = DefaultVisible
	}
	items, err := s.Sorted(ctx, tenantID)
	if err != nil {
		return View{}, err
	}
	view := View{Items: items, Total: len(items)}
	if len(items) > limit {
		view.Items = items[:limit]
		view.HasMore = true
	}
	return view, nil
}

// Clear empties the collection and returns what was removed.
func (s *Service) Clear(ctx context.Context, tenantID string) ([]Item, error) {
	items, err := s.Items(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Remove(ctx, tenantID, storage.KeyRecentlyViewed); err != nil {
		return nil, fmt.Errorf("clearing recently viewed: %w", err)
	}
	return items, nil
}

// Remove deletes entries matching id. An empty itemType matches every type
// sharing the id. Missing ids are a no-op.
func (s *Service) Remove(ctx context.Context, tenantID, id string, itemType ItemType) ([]Item, error) {
	items, err := s.Items(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var removed []Item
	items = slices.DeleteFunc(items, func(item Item) bool {
		if matches(item, id, itemType) {
			removed = append(removed, item)
			return true
		}
		return false
	})
	if len(removed) == 0 {
		return nil, nil
	}

	if err := s.save(ctx, tenantID, items); err != nil {
		return nil, err
	}
	return removed, nil
}

// TogglePin flips the pinned flag of entries matching id, with the same
// matching rule as Remove. It returns the updated entries.
func (s *Service) TogglePin(ctx context.Context, tenantID, id string, itemType ItemType) ([]Item, error) {
	items, err := s.Items(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var toggled []Item
	for i := range items {
		if matches(items[i], id, itemType) {
			items[i].Pinned = !items[i].Pinned
			toggled = append(toggled, items[i])
		}
	}
	if len(toggled) == 0 {
		return nil, nil
	}

	if err := s.save(ctx, tenantID, items); err != nil {
		return nil, err
	}
	return toggled, nil
}

// Restore puts previously removed items back. Items whose key is already
// present are skipped; the result is ordered by timestamp, newest first.
func (s *Service) Restore(ctx context.Context, tenantID string, restore []Item) error {
	if len(restore) == 0 {
		return nil
	}
	items, err := s.Items(ctx, tenantID)
	if err != nil {
		return err
	}

	for _, item := range restore {
		present := slices.ContainsFunc(items, func(existing Item) bool {
			return existing.sameKey(item)
		})
		if !present {
			items = append(items, item)
		}
	}
	slices.SortStableFunc(items, func(a, b Item) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})
	return s.save(ctx, tenantID, s.truncate(items))
}

// SortForDisplay returns a copy of items with pinned items first and each
// group ordered by timestamp, newest first. The sort is stable.
func SortForDisplay(items []Item) []Item {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b Item) int {
		if a.Pinned != b.Pinned {
			if a.Pinned {
				return -1
			}
			return 1
		}
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})
	return sorted
}

// FormatTimestamp renders ts (Unix milliseconds) relative to now.
func FormatTimestamp(now time.Time, ts int64) string {
	diff := now.Sub(time.UnixMilli(ts))
	minutes := int(diff / time.Minute)
	hours := int(diff / time.Hour)
	days := hours / 24

	switch {
	case days > 0:
		return plural(days, "day")
	case hours > 0:
		return plural(hours, "hour")
	case minutes > 0:
		return plural(minutes, "minute")
	default:
		return "Just now"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

func (s *Service) truncate(items []Item) []Item {
	if len(items) <= MaxItems {
		return items
	}
	metrics.RecentEvictions.Add(float64(len(items) - MaxItems))
	return items[:MaxItems]
}

func (s *Service) save(ctx context.Context, tenantID string, items []Item) error {
	if err := s.store.SaveJSON(ctx, tenantID, storage.KeyRecentlyViewed, items); err != nil {
		return fmt.Errorf("saving recently viewed: %w", err)
	}
	return nil
}

func matches(item Item, id string, itemType ItemType) bool {
	if item.ID != id {
		return false
	}
	return itemType == "" || item.Type == itemType
}

func validateAdd(req AddRequest) error {
	if strings.TrimSpace(req.ID) == "" || strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Path) == "" {
		return ErrInvalidInput
	}
	if !req.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}
