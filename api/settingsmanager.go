package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aouyang1/pptmaker/store"
)

type SettingsFetcher interface {
	FetchSettings(ctx context.Context) (*store.PaywallSettings, error)
}

// SettingsManager serves the paywall settings. A successful fetch replaces
// the current value and the cached row; a failed one falls back to the cache
// and then to the built-in defaults.
type SettingsManager struct {
	fetcher SettingsFetcher
	db      *store.Database

	mu        sync.RWMutex
	settings  *store.PaywallSettings
	fetchedAt time.Time
}

func NewSettingsManager(fetcher SettingsFetcher, db *store.Database) *SettingsManager {
	s := &SettingsManager{
		fetcher: fetcher,
		db:      db,
	}
	s.settings, s.fetchedAt = s.fallback()
	return s
}

// Initialize performs the first fetch. It is the same as Refresh and is
// meant to run once at startup, usually in its own goroutine.
func (s *SettingsManager) Initialize(ctx context.Context) error {
	return s.Refresh(ctx)
}

// Refresh fetches the settings. The returned error is informational: Get
// always has a usable value afterwards.
func (s *SettingsManager) Refresh(ctx context.Context) error {
	settings, err := s.fetcher.FetchSettings(ctx)
	if err != nil {
		slog.Warn("unable to fetch settings, using fallback", "error", err)
		fallback, fetchedAt := s.fallback()
		s.mu.Lock()
		s.settings, s.fetchedAt = fallback, fetchedAt
		s.mu.Unlock()
		return err
	}

	now := time.Now()
	if err := s.db.UpsertCachedSettings(settings, now); err != nil {
		slog.Warn("unable to cache settings", "error", err)
	}

	s.mu.Lock()
	s.settings, s.fetchedAt = settings, now
	s.mu.Unlock()
	slog.Info("settings refreshed",
		"presentation_limit", settings.PresentationLimit,
		"outline_limit", settings.OutlineLimit,
	)
	return nil
}

// Get returns a copy of the current settings. It never returns nil.
func (s *SettingsManager) Get() *store.PaywallSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := *s.settings
	return &c
}

// FetchedAt is when the current settings were fetched, zero for defaults.
func (s *SettingsManager) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}

func (s *SettingsManager) fallback() (*store.PaywallSettings, time.Time) {
	cached, fetchedAt, err := s.db.GetCachedSettings()
	if err == nil {
		return cached, fetchedAt
	}
	if !errors.Is(err, store.ErrNotFound) {
		slog.Warn("unable to read cached settings", "error", err)
	}
	return store.DefaultPaywallSettings(), time.Time{}
}
