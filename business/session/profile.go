package session

import (
	"context"
	"fmt"
	"freshMarket/domain"
	"freshMarket/pkg/logger"
	"math"
	"time"
)

const (
	DefaultDecayPerMinute = 0.95

	// Learning rates by signal confidence: a purchase says more about intent
	// than a glance.
	etaPurchase  = 0.5
	etaCartAdd   = 0.3
	etaFavorite  = 0.3
	etaLongView  = 0.2
	etaShortView = 0.1
	etaSearch    = 0.15

	longViewSeconds = 10

	maxWeight = 1.0
	// weights decayed below this are dropped instead of kept forever
	minWeight = 0.001
)

// ProfileStore persists session profiles in the key-value store. SaveProfile
// must refresh the TTL of every session-scoped key as one group.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID uint64, sessionID string) (domain.SessionInterestProfile, bool, error)
	SaveProfile(ctx context.Context, userID uint64, sessionID string, profile domain.SessionInterestProfile, ttl time.Duration) error
}

// Service maintains the short-term, per-session interest profile: decayed
// category weights updated online on every qualifying event, plus bounded
// recency lists.
type Service struct {
	store          ProfileStore
	decayPerMinute float64
	now            func() time.Time
}

func NewService(store ProfileStore, decayPerMinute float64) *Service {
	if decayPerMinute <= 0 || decayPerMinute >= 1 {
		decayPerMinute = DefaultDecayPerMinute
	}
	return &Service{
		store:          store,
		decayPerMinute: decayPerMinute,
		now:            time.Now,
	}
}

func (s *Service) RecordView(ctx context.Context, userID uint64, sessionID string, itemID uint64, category string, price float64, viewSeconds int) error {
	return s.Record(ctx, domain.BehaviorEvent{
		UserID:      userID,
		SessionID:   sessionID,
		ItemID:      itemID,
		EventType:   domain.EventView,
		Category:    category,
		Price:       price,
		ViewSeconds: viewSeconds,
	})
}

func (s *Service) RecordCartAdd(ctx context.Context, userID uint64, sessionID string, itemID uint64, category string, price float64) error {
	return s.Record(ctx, domain.BehaviorEvent{
		UserID:    userID,
		SessionID: sessionID,
		ItemID:    itemID,
		EventType: domain.EventCartAdd,
		Category:  category,
		Price:     price,
	})
}

func (s *Service) RecordFavorite(ctx context.Context, userID uint64, sessionID string, itemID uint64, category string) error {
	return s.Record(ctx, domain.BehaviorEvent{
		UserID:    userID,
		SessionID: sessionID,
		ItemID:    itemID,
		EventType: domain.EventFavorite,
		Category:  category,
	})
}

func (s *Service) RecordPurchase(ctx context.Context, userID uint64, sessionID string, itemID uint64, category string, price float64) error {
	return s.Record(ctx, domain.BehaviorEvent{
		UserID:    userID,
		SessionID: sessionID,
		ItemID:    itemID,
		EventType: domain.EventPurchase,
		Category:  category,
		Price:     price,
	})
}

func (s *Service) RecordSearch(ctx context.Context, userID uint64, sessionID, query, category string) error {
	return s.Record(ctx, domain.BehaviorEvent{
		UserID:      userID,
		SessionID:   sessionID,
		EventType:   domain.EventSearch,
		Category:    category,
		SearchQuery: query,
	})
}

// Record applies one behavior event: decay all weights for the elapsed time,
// bump the event's category by its learning rate, update recency lists, and
// save with a refreshed session TTL.
func (s *Service) Record(ctx context.Context, ev domain.BehaviorEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	eta, ok := learningRate(ev)
	if !ok {
		return fmt.Errorf("unknown event type: %s", ev.EventType)
	}

	profile, found, err := s.store.GetProfile(ctx, ev.UserID, ev.SessionID)
	if err != nil {
		return fmt.Errorf("load session profile: %w", err)
	}
	if !found {
		profile = domain.SessionInterestProfile{Weights: make(map[string]float64)}
	}
	if profile.Weights == nil {
		profile.Weights = make(map[string]float64)
	}

	now := s.now()
	s.decay(&profile, now)

	if ev.Category != "" {
		w := profile.Weights[ev.Category]
		w += eta * (1 - w)
		if w > maxWeight {
			w = maxWeight
		}
		profile.Weights[ev.Category] = w
	}

	if ev.ItemID != 0 {
		profile.ViewedItems = pushBounded(profile.ViewedItems, ev.ItemID, domain.SessionMaxViews)
	}
	if ev.Price > 0 {
		profile.PriceHistory = pushBounded(profile.PriceHistory, ev.Price, domain.SessionMaxPrices)
	}
	if ev.SearchQuery != "" {
		profile.SearchTerms = pushBounded(profile.SearchTerms, ev.SearchQuery, domain.SessionMaxTerms)
	}

	profile.UpdatedAt = now

	if err := s.store.SaveProfile(ctx, ev.UserID, ev.SessionID, profile, domain.SessionTTL); err != nil {
		return fmt.Errorf("save session profile: %w", err)
	}

	return nil
}

// InterestWeights returns the session's decayed category weights as of now.
// The decay is applied on read without writing back; store errors yield an
// empty map so ranking proceeds unpersonalized.
func (s *Service) InterestWeights(ctx context.Context, userID uint64, sessionID string) map[string]float64 {
	profile, found, err := s.store.GetProfile(ctx, userID, sessionID)
	if err != nil {
		logger.Warn("session_profile_read_failed", "user_id", userID, "session_id", sessionID, "error", err)
		return map[string]float64{}
	}
	if !found {
		return map[string]float64{}
	}

	s.decay(&profile, s.now())

	out := make(map[string]float64, len(profile.Weights))
	for k, w := range profile.Weights {
		out[k] = w
	}

	return out
}

// Merge combines long-term and session interest with a convex combination:
// merged = longTerm*(1-w) + session*w for categories the session knows about;
// long-term-only categories pass through unchanged.
func Merge(longTerm, session map[string]float64, sessionWeight float64) map[string]float64 {
	if sessionWeight < 0 {
		sessionWeight = 0
	}
	if sessionWeight > 1 {
		sessionWeight = 1
	}

	merged := make(map[string]float64, len(longTerm)+len(session))
	for k, w := range longTerm {
		merged[k] = w
	}
	for k, w := range session {
		merged[k] = merged[k]*(1-sessionWeight) + w*sessionWeight
	}

	return merged
}

func (s *Service) decay(profile *domain.SessionInterestProfile, now time.Time) {
	if profile.UpdatedAt.IsZero() {
		return
	}

	minutes := now.Sub(profile.UpdatedAt).Minutes()
	if minutes <= 0 {
		return
	}

	factor := math.Pow(s.decayPerMinute, minutes)
	for k, w := range profile.Weights {
		decayed := w * factor
		if decayed < minWeight {
			delete(profile.Weights, k)
			continue
		}
		profile.Weights[k] = decayed
	}
}

func learningRate(ev domain.BehaviorEvent) (float64, bool) {
	switch ev.EventType {
	case domain.EventPurchase:
		return etaPurchase, true
	case domain.EventCartAdd:
		return etaCartAdd, true
	case domain.EventFavorite:
		return etaFavorite, true
	case domain.EventView:
		if ev.ViewSeconds >= longViewSeconds {
			return etaLongView, true
		}
		return etaShortView, true
	case domain.EventSearch:
		return etaSearch, true
	default:
		return 0, false
	}
}

func pushBounded[T any](list []T, v T, max int) []T {
	list = append(list, v)
	if len(list) > max {
		list = list[len(list)-max:]
	}
	return list
}
