package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aouyang1/pptmaker/store"
)

// ErrLimitReached is returned by Gate when the free allowance is used up.
var ErrLimitReached = errors.New("free generation limit reached")

// Entitlement reports whether the user has premium access. It is asked on
// every limit check.
type Entitlement interface {
	HasPremiumAccess(ctx context.Context) (bool, error)
}

type StaticEntitlement bool

func (s StaticEntitlement) HasPremiumAccess(context.Context) (bool, error) {
	return bool(s), nil
}

type EntitlementFunc func(ctx context.Context) (bool, error)

func (f EntitlementFunc) HasPremiumAccess(ctx context.Context) (bool, error) {
	return f(ctx)
}

// UsageManager counts successful generations and compares them against the
// limits from SettingsManager.
type UsageManager struct {
	db          *store.Database
	settings    *SettingsManager
	entitlement Entitlement
}

func NewUsageManager(db *store.Database, settings *SettingsManager, entitlement Entitlement) *UsageManager {
	if entitlement == nil {
		entitlement = StaticEntitlement(false)
	}
	return &UsageManager{
		db:          db,
		settings:    settings,
		entitlement: entitlement,
	}
}

func (u *UsageManager) RecordOutline() error {
	count, err := u.db.IncrementCount(store.CounterOutline)
	if err != nil {
		return err
	}
	slog.Debug("recorded outline generation", "count", count)
	return nil
}

func (u *UsageManager) RecordPresentation() error {
	count, err := u.db.IncrementCount(store.CounterPresentation)
	if err != nil {
		return err
	}
	slog.Debug("recorded presentation generation", "count", count)
	return nil
}

func (u *UsageManager) OutlineCount() (int, error) {
	return u.db.GetCount(store.CounterOutline)
}

func (u *UsageManager) PresentationCount() (int, error) {
	return u.db.GetCount(store.CounterPresentation)
}

func (u *UsageManager) premium(ctx context.Context) bool {
	ok, err := u.entitlement.HasPremiumAccess(ctx)
	if err != nil {
		slog.Warn("unable to check premium access, treating as free", "error", err)
		return false
	}
	return ok
}

func (u *UsageManager) OutlineLimitReached(ctx context.Context) (bool, error) {
	if u.premium(ctx) {
		return false, nil
	}
	count, err := u.OutlineCount()
	if err != nil {
		return false, err
	}
	return count >= u.settings.Get().OutlineLimit, nil
}

func (u *UsageManager) PresentationLimitReached(ctx context.Context) (bool, error) {
	if u.premium(ctx) {
		return false, nil
	}
	count, err := u.PresentationCount()
	if err != nil {
		return false, err
	}
	return count >= u.settings.Get().PresentationLimit, nil
}

func (u *UsageManager) AnyLimitReached(ctx context.Context) (bool, error) {
	reached, err := u.OutlineLimitReached(ctx)
	if err != nil || reached {
		return reached, err
	}
	return u.PresentationLimitReached(ctx)
}

// RemainingOutlines is the number of outlines left, or -1 with premium.
func (u *UsageManager) RemainingOutlines(ctx context.Context) (int, error) {
	if u.premium(ctx) {
		return -1, nil
	}
	count, err := u.OutlineCount()
	if err != nil {
		return 0, err
	}
	return max(u.settings.Get().OutlineLimit-count, 0), nil
}

// RemainingPresentations is the number of presentations left, or -1 with
// premium.
func (u *UsageManager) RemainingPresentations(ctx context.Context) (int, error) {
	if u.premium(ctx) {
		return -1, nil
	}
	count, err := u.PresentationCount()
	if err != nil {
		return 0, err
	}
	return max(u.settings.Get().PresentationLimit-count, 0), nil
}

type UsageSummary struct {
	Premium           bool
	OutlineCount      int
	OutlineLimit      int
	OutlinesLeft      int
	PresentationCount int
	PresentationLimit int
	PresentationsLeft int
}

func (u *UsageManager) Summary(ctx context.Context) (UsageSummary, error) {
	settings := u.settings.Get()
	outlines, err := u.OutlineCount()
	if err != nil {
		return UsageSummary{}, err
	}
	presentations, err := u.PresentationCount()
	if err != nil {
		return UsageSummary{}, err
	}

	s := UsageSummary{
		Premium:           u.premium(ctx),
		OutlineCount:      outlines,
		OutlineLimit:      settings.OutlineLimit,
		PresentationCount: presentations,
		PresentationLimit: settings.PresentationLimit,
		OutlinesLeft:      -1,
		PresentationsLeft: -1,
	}
	if !s.Premium {
		s.OutlinesLeft = max(s.OutlineLimit-outlines, 0)
		s.PresentationsLeft = max(s.PresentationLimit-presentations, 0)
	}
	return s, nil
}

func (u *UsageManager) ResetAll() error {
	return u.db.ResetCounts()
}
