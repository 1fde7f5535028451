package prefs

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/diutransit/reminder_core/internal/cache"
	"github.com/diutransit/reminder_core/internal/models"
	"github.com/redis/go-redis/v9"
)

// Preference field names within the Redis hash
const (
	FieldSelectedRoute        = "selected_route"
	FieldDarkMode             = "dark_mode"
	FieldShowUpdateBanner     = "show_update_banner"
	FieldCompactMode          = "compact_mode"
	FieldNotificationsEnabled = "notifications_enabled"
	FieldNotifyLeadMinutes    = "notify_lead_minutes"
)

// Lead-time bounds in minutes
const (
	MinLeadMinutes = 5
	MaxLeadMinutes = 120
)

// Defaults applied when a field is unset
const (
	DefaultSelectedRoute     = models.RouteAll
	DefaultNotifyLeadMinutes = 30
)

// Store provides durable user preferences backed by a Redis hash, with
// change notification for the reminder pipeline.
type Store struct {
	rdb *redis.Client

	mu   sync.Mutex
	subs []chan struct{}
}

// NewStore creates a preferences store on the given Redis client
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// EnsureDefaults seeds any missing preference fields with their defaults
func (s *Store) EnsureDefaults(ctx context.Context) error {
	defaults := map[string]string{
		FieldSelectedRoute:        DefaultSelectedRoute,
		FieldDarkMode:             "true",
		FieldShowUpdateBanner:     "true",
		FieldCompactMode:          "true",
		FieldNotificationsEnabled: "true",
		FieldNotifyLeadMinutes:    strconv.Itoa(DefaultNotifyLeadMinutes),
	}

	for field, value := range defaults {
		if err := s.rdb.HSetNX(ctx, cache.PrefsKey(), field, value).Err(); err != nil {
			return fmt.Errorf("failed to seed preference %s: %w", field, err)
		}
	}
	return nil
}

// Get returns the full preferences snapshot, applying defaults for unset fields
func (s *Store) Get(ctx context.Context) (models.Preferences, error) {
	fields, err := s.rdb.HGetAll(ctx, cache.PrefsKey()).Result()
	if err != nil {
		return models.Preferences{}, fmt.Errorf("failed to read preferences: %w", err)
	}

	p := models.Preferences{
		NotificationsEnabled: boolField(fields, FieldNotificationsEnabled, true),
		NotifyLeadMinutes:    intField(fields, FieldNotifyLeadMinutes, DefaultNotifyLeadMinutes),
		SelectedRoute:        stringField(fields, FieldSelectedRoute, DefaultSelectedRoute),
		DarkMode:             boolField(fields, FieldDarkMode, true),
		ShowUpdateBanner:     boolField(fields, FieldShowUpdateBanner, true),
		CompactMode:          boolField(fields, FieldCompactMode, true),
	}
	p.NotifyLeadMinutes = ClampLeadMinutes(p.NotifyLeadMinutes)
	return p, nil
}

// SetSelectedRoute persists the route filter
func (s *Store) SetSelectedRoute(ctx context.Context, routeNo string) error {
	return s.setField(ctx, FieldSelectedRoute, routeNo)
}

// SetNotificationsEnabled persists the reminder feature flag
func (s *Store) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	return s.setField(ctx, FieldNotificationsEnabled, strconv.FormatBool(enabled))
}

// SetNotifyLeadMinutes persists the lead time, clamped to the allowed range
func (s *Store) SetNotifyLeadMinutes(ctx context.Context, minutes int) error {
	return s.setField(ctx, FieldNotifyLeadMinutes, strconv.Itoa(ClampLeadMinutes(minutes)))
}

// SetDarkMode persists the theme preference
func (s *Store) SetDarkMode(ctx context.Context, enabled bool) error {
	return s.setField(ctx, FieldDarkMode, strconv.FormatBool(enabled))
}

// SetShowUpdateBanner persists the update banner preference
func (s *Store) SetShowUpdateBanner(ctx context.Context, enabled bool) error {
	return s.setField(ctx, FieldShowUpdateBanner, strconv.FormatBool(enabled))
}

// SetCompactMode persists the list density preference
func (s *Store) SetCompactMode(ctx context.Context, enabled bool) error {
	return s.setField(ctx, FieldCompactMode, strconv.FormatBool(enabled))
}

// Subscribe returns a channel signalled after every successful set
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

// ClampLeadMinutes bounds a lead-time value to [MinLeadMinutes, MaxLeadMinutes]
func ClampLeadMinutes(minutes int) int {
	if minutes < MinLeadMinutes {
		return MinLeadMinutes
	}
	if minutes > MaxLeadMinutes {
		return MaxLeadMinutes
	}
	return minutes
}

func (s *Store) setField(ctx context.Context, field, value string) error {
	if err := s.rdb.HSet(ctx, cache.PrefsKey(), field, value).Err(); err != nil {
		return fmt.Errorf("failed to set preference %s: %w", field, err)
	}
	s.notify()
	return nil
}

func (s *Store) notify() {
	s.mu.Lock()
	subs := make([]chan struct{}, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func stringField(fields map[string]string, name, fallback string) string {
	if v, ok := fields[name]; ok && v != "" {
		return v
	}
	return fallback
}

func boolField(fields map[string]string, name string, fallback bool) bool {
	v, ok := fields[name]
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func intField(fields map[string]string, name string, fallback int) int {
	v, ok := fields[name]
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
