package ranker

import (
	"context"
	"fmt"
	"freshMarket/business/diversity"
	"freshMarket/business/exploration"
	"freshMarket/business/freqcap"
	"freshMarket/business/intervention"
	"freshMarket/business/recall"
	"freshMarket/business/session"
	"freshMarket/domain"
	"freshMarket/pkg/logger"
	"freshMarket/pkg/metrics"
	"sort"
	"time"
)

const (
	defaultLimit = 10

	// recent views fetched to seed the personalized strategies
	recentViewsCount = 20

	// the rerank stage keeps this many times the final limit so the cap
	// filter has slack to remove items without shrinking the response
	rerankPoolFactor = 2
)

// UserProfileStore is the long-term profile read contract (external system).
type UserProfileStore interface {
	GetLongTermInterest(ctx context.Context, userID uint64) (map[string]float64, error)
	GetRecentViewedItems(ctx context.Context, userID uint64, n int) ([]uint64, error)
}

// Config is the per-process pipeline tuning that isn't hot-swapped.
type Config struct {
	SessionWeight float64
	ExploreBlend  float64
	DefaultLimit  int
}

// RecoService wires the ranking stages in their fixed order:
// recall -> fuse -> boost -> rerank -> cap -> explore. The fanout join is the
// only blocking wait; everything after it is a synchronous transform over the
// already-fetched candidate set.
type RecoService struct {
	fanout   *recall.Fanout
	weights  *recall.WeightTable
	source   recall.CandidateSource
	scorer   *intervention.Scorer
	reranker *diversity.Reranker
	caps     *freqcap.Filter
	explorer *exploration.Engine
	sessions *session.Service
	profiles UserProfileStore
	cfg      Config
}

func NewRecoService(
	fanout *recall.Fanout,
	weights *recall.WeightTable,
	source recall.CandidateSource,
	scorer *intervention.Scorer,
	reranker *diversity.Reranker,
	caps *freqcap.Filter,
	explorer *exploration.Engine,
	sessions *session.Service,
	profiles UserProfileStore,
	cfg Config,
) *RecoService {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaultLimit
	}
	return &RecoService{
		fanout:   fanout,
		weights:  weights,
		source:   source,
		scorer:   scorer,
		reranker: reranker,
		caps:     caps,
		explorer: explorer,
		sessions: sessions,
		profiles: profiles,
		cfg:      cfg,
	}
}

// Recommend produces the final ranked list for one user. No single-component
// failure is fatal: a slow strategy, an unreadable profile, or a missing cap
// record only makes the result less personalized, never empty for that reason
// alone.
func (s *RecoService) Recommend(ctx context.Context, userID uint64, sessionID string, limit int) ([]domain.RankedItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	started := time.Now()
	uc := s.buildUserContext(ctx, userID, sessionID)

	results := s.fanout.Recall(ctx, uc, limit)
	if len(results) == 0 {
		logger.Warn("reco_recall_empty", "trace_id", TraceIDFromContext(ctx), "user_id", userID)
		return []domain.RankedItem{}, nil
	}

	entries := recall.Fuse(results, s.weights.Snapshot())
	entries = s.scorer.BoostAll(ctx, entries)
	entries = s.reranker.Rerank(entries, limit*rerankPoolFactor)
	entries = s.caps.Filter(ctx, userID, entries)

	ranked := s.applyExploration(ctx, userID, entries, limit)

	s.recordServing(ctx, userID, ranked)

	metrics.RecoRequestsTotal.Inc()
	metrics.RecoRequestDuration.Observe(time.Since(started).Seconds())

	logger.Debug("reco_served",
		"trace_id", TraceIDFromContext(ctx),
		"user_id", userID,
		"session_id", sessionID,
		"strategies", len(results),
		"candidates", len(entries),
		"served", len(ranked),
	)

	return ranked, nil
}

// applyExploration adds the UCB bonus to every candidate and, on an explore
// draw, blends in a Thompson sample before the final sort and cut.
func (s *RecoService) applyExploration(ctx context.Context, userID uint64, entries []domain.FusedEntry, limit int) []domain.RankedItem {
	if len(entries) == 0 {
		return []domain.RankedItem{}
	}

	maxScore := 0.0
	for _, e := range entries {
		if e.Score > maxScore {
			maxScore = e.Score
		}
	}
	if maxScore == 0 {
		maxScore = 1
	}

	explore := s.explorer.ShouldExplore(ctx, userID)
	if explore {
		metrics.ExploreTotal.Inc()
	}

	type scored struct {
		entry domain.FusedEntry
		score float64
	}

	scoredList := make([]scored, 0, len(entries))
	for _, e := range entries {
		relevance := e.Score / maxScore
		var score float64
		if explore {
			ucb, sample := s.explorer.BanditScoreWithSample(ctx, userID, e.Item.ID, relevance)
			score = (1-s.cfg.ExploreBlend)*ucb + s.cfg.ExploreBlend*sample
		} else {
			score = s.explorer.BanditScore(ctx, userID, e.Item.ID, relevance)
		}
		scoredList = append(scoredList, scored{entry: e, score: score})
	}

	sort.Slice(scoredList, func(i, j int) bool {
		if scoredList[i].score == scoredList[j].score {
			return scoredList[i].entry.Item.ID < scoredList[j].entry.Item.ID
		}
		return scoredList[i].score > scoredList[j].score
	})

	if len(scoredList) > limit {
		scoredList = scoredList[:limit]
	}

	final := make([]domain.FusedEntry, 0, len(scoredList))
	out := make([]domain.RankedItem, 0, len(scoredList))
	for _, sc := range scoredList {
		final = append(final, sc.entry)
		out = append(out, domain.RankedItem{
			ItemID:     sc.entry.Item.ID,
			MerchantID: sc.entry.Item.MerchantID,
			Category:   sc.entry.Item.Category,
			Score:      sc.score,
			Strategies: sc.entry.Strategies,
			Explored:   explore,
		})
	}

	metrics.ResultCategoryEntropy.Observe(diversity.CategoryEntropy(final))

	return out
}

// recordServing logs exposures to both the frequency-cap window and the
// bandit counters. Best effort: a write failure never fails the request.
func (s *RecoService) recordServing(ctx context.Context, userID uint64, ranked []domain.RankedItem) {
	if len(ranked) == 0 {
		return
	}

	ids := make([]uint64, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.ItemID)
	}

	if err := s.caps.RecordExposures(ctx, userID, ids); err != nil {
		logger.Warn("exposure_record_failed", "user_id", userID, "error", err)
	}
	if err := s.explorer.RecordExposures(ctx, userID, ids); err != nil {
		logger.Warn("bandit_exposure_record_failed", "user_id", userID, "error", err)
	}
}

// RecordFeedback is the write-side entry for asynchronous click/purchase
// events: bandit state always, session profile when the event carries one.
func (s *RecoService) RecordFeedback(ctx context.Context, ev domain.FeedbackEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if ev.EventType == "" {
		return fmt.Errorf("event_type is required")
	}

	clicked := ev.Clicked || ev.EventType == domain.EventClick || ev.EventType == domain.EventPurchase

	if err := s.explorer.RecordFeedback(ctx, ev.UserID, ev.ItemID, clicked); err != nil {
		return err
	}

	if ev.SessionID != "" {
		s.feedSession(ctx, ev)
	}

	metrics.FeedbackEventsTotal.WithLabelValues(ev.EventType).Inc()

	logger.Debug("reco_feedback",
		"trace_id", TraceIDFromContext(ctx),
		"user_id", ev.UserID,
		"item_id", ev.ItemID,
		"event_type", ev.EventType,
		"clicked", clicked,
	)

	return nil
}

// feedSession mirrors feedback into the session profile, resolving the item
// snapshot for its category and price. Best effort.
func (s *RecoService) feedSession(ctx context.Context, ev domain.FeedbackEvent) {
	items, err := s.source.GetItems(ctx, []uint64{ev.ItemID})
	if err != nil || len(items) == 0 {
		logger.Warn("feedback_item_lookup_failed", "item_id", ev.ItemID, "error", err)
		return
	}
	item := items[0]

	var sessErr error
	switch ev.EventType {
	case domain.EventPurchase:
		sessErr = s.sessions.RecordPurchase(ctx, ev.UserID, ev.SessionID, item.ID, item.Category, item.SalePrice)
	default:
		sessErr = s.sessions.RecordView(ctx, ev.UserID, ev.SessionID, item.ID, item.Category, item.SalePrice, 0)
	}
	if sessErr != nil {
		logger.Warn("feedback_session_update_failed", "user_id", ev.UserID, "error", sessErr)
	}
}

// RecordEvent is the write-side entry for behavior events (view, cart add,
// favorite, purchase, search) feeding the session profile.
func (s *RecoService) RecordEvent(ctx context.Context, ev domain.BehaviorEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if ev.Category == "" && ev.ItemID != 0 {
		if items, err := s.source.GetItems(ctx, []uint64{ev.ItemID}); err == nil && len(items) > 0 {
			ev.Category = items[0].Category
			if ev.Price == 0 {
				ev.Price = items[0].SalePrice
			}
		}
	}

	if err := s.sessions.Record(ctx, ev); err != nil {
		return err
	}

	metrics.FeedbackEventsTotal.WithLabelValues(ev.EventType).Inc()

	return nil
}

// buildUserContext assembles the merged interest snapshot for recall. Every
// read fails open to an emptier context; a brand-new user ends up with only
// the non-personalized strategies active.
func (s *RecoService) buildUserContext(ctx context.Context, userID uint64, sessionID string) recall.UserContext {
	longTerm, err := s.profiles.GetLongTermInterest(ctx, userID)
	if err != nil {
		logger.Warn("long_term_interest_read_failed", "user_id", userID, "error", err)
		longTerm = nil
	}

	var sessionWeights map[string]float64
	if sessionID != "" {
		sessionWeights = s.sessions.InterestWeights(ctx, userID, sessionID)
	}

	uc := recall.UserContext{
		UserID:    userID,
		Interests: session.Merge(longTerm, sessionWeights, s.cfg.SessionWeight),
	}

	recentIDs, err := s.profiles.GetRecentViewedItems(ctx, userID, recentViewsCount)
	if err != nil {
		logger.Warn("recent_views_read_failed", "user_id", userID, "error", err)
		return uc
	}
	if len(recentIDs) == 0 {
		return uc
	}

	items, err := s.source.GetItems(ctx, recentIDs)
	if err != nil {
		logger.Warn("recent_items_lookup_failed", "user_id", userID, "error", err)
		return uc
	}

	seenCat := make(map[string]struct{})
	seenMerchant := make(map[uint64]struct{})
	for _, item := range items {
		if item.Category != "" {
			if _, ok := seenCat[item.Category]; !ok {
				seenCat[item.Category] = struct{}{}
				uc.RecentCategories = append(uc.RecentCategories, item.Category)
			}
		}
		if _, ok := seenMerchant[item.MerchantID]; !ok {
			seenMerchant[item.MerchantID] = struct{}{}
			uc.RecentMerchants = append(uc.RecentMerchants, item.MerchantID)
		}
	}

	return uc
}
