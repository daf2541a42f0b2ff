package freqcap

import (
	"context"
	"freshMarket/domain"
	"freshMarket/pkg/logger"
	"freshMarket/pkg/metrics"
	"time"
)

const (
	WindowDaily  = 24 * time.Hour
	WindowWeekly = 7 * 24 * time.Hour

	DefaultDailyCap  = 1
	DefaultWeeklyCap = 3
)

// ExposureStore is the time-windowed exposure log, one sorted set of
// timestamps per (user, item). Entries older than the retention window are
// pruned lazily by the implementation; batch calls must not degrade to one
// round trip per item.
type ExposureStore interface {
	RecordExposures(ctx context.Context, userID uint64, itemIDs []uint64, at time.Time) error
	ExposureCounts(ctx context.Context, userID uint64, itemIDs []uint64, since time.Time) (map[uint64]int64, error)
}

// Filter removes items a user has already seen too often. Two caps are
// checked in order: at most dailyCap exposures in the trailing 24h, at most
// weeklyCap in the trailing 7 days.
//
// Every read path fails open: if cap state cannot be read the item is served.
// A missing recommendation costs more than a duplicate one.
type Filter struct {
	store     ExposureStore
	dailyCap  int
	weeklyCap int
	now       func() time.Time
}

func NewFilter(store ExposureStore, dailyCap, weeklyCap int) *Filter {
	if dailyCap <= 0 {
		dailyCap = DefaultDailyCap
	}
	if weeklyCap <= 0 {
		weeklyCap = DefaultWeeklyCap
	}
	return &Filter{
		store:     store,
		dailyCap:  dailyCap,
		weeklyCap: weeklyCap,
		now:       time.Now,
	}
}

func (f *Filter) RecordExposure(ctx context.Context, userID, itemID uint64) error {
	return f.store.RecordExposures(ctx, userID, []uint64{itemID}, f.now())
}

// RecordExposures logs one exposure timestamp for every item in a single
// batched write.
func (f *Filter) RecordExposures(ctx context.Context, userID uint64, itemIDs []uint64) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return f.store.RecordExposures(ctx, userID, itemIDs, f.now())
}

func (f *Filter) IsCapped(ctx context.Context, userID, itemID uint64) bool {
	capped := f.cappedSet(ctx, userID, []uint64{itemID})
	_, ok := capped[itemID]
	return ok
}

// Filter returns the entries that are still showable to the user.
func (f *Filter) Filter(ctx context.Context, userID uint64, entries []domain.FusedEntry) []domain.FusedEntry {
	if len(entries) == 0 {
		return entries
	}

	ids := make([]uint64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.Item.ID)
	}

	capped := f.cappedSet(ctx, userID, ids)
	if len(capped) == 0 {
		return entries
	}

	out := make([]domain.FusedEntry, 0, len(entries))
	for _, e := range entries {
		if _, ok := capped[e.Item.ID]; ok {
			continue
		}
		out = append(out, e)
	}

	metrics.CappedItemsTotal.Add(float64(len(entries) - len(out)))

	return out
}

// cappedSet reads both windows in two batched calls and returns the capped
// item ids. Any store error yields an empty set (not capped).
func (f *Filter) cappedSet(ctx context.Context, userID uint64, itemIDs []uint64) map[uint64]struct{} {
	now := f.now()

	daily, err := f.store.ExposureCounts(ctx, userID, itemIDs, now.Add(-WindowDaily))
	if err != nil {
		logger.Warn("freqcap_read_failed", "user_id", userID, "window", "24h", "error", err)
		return nil
	}

	weekly, err := f.store.ExposureCounts(ctx, userID, itemIDs, now.Add(-WindowWeekly))
	if err != nil {
		logger.Warn("freqcap_read_failed", "user_id", userID, "window", "7d", "error", err)
		return nil
	}

	capped := make(map[uint64]struct{})
	for _, id := range itemIDs {
		if daily[id] >= int64(f.dailyCap) || weekly[id] >= int64(f.weeklyCap) {
			capped[id] = struct{}{}
		}
	}

	return capped
}
