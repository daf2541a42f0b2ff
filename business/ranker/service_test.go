package ranker

import (
	"context"
	"testing"
	"time"

	"freshMarket/business/diversity"
	"freshMarket/business/exploration"
	"freshMarket/business/freqcap"
	"freshMarket/business/intervention"
	"freshMarket/business/recall"
	"freshMarket/business/session"
	"freshMarket/domain"
)

// catalogSource serves a fixed catalog through every recall predicate.
type catalogSource struct {
	popular   []domain.CandidateItem
	catalog   map[uint64]domain.CandidateItem
	merchants map[uint64]domain.MerchantInfo
}

func newCatalogSource(items []domain.CandidateItem) *catalogSource {
	src := &catalogSource{
		popular:   items,
		catalog:   make(map[uint64]domain.CandidateItem, len(items)),
		merchants: make(map[uint64]domain.MerchantInfo),
	}
	for _, it := range items {
		src.catalog[it.ID] = it
	}
	return src
}

func (s *catalogSource) QueryPopular(ctx context.Context, limit int) ([]domain.CandidateItem, error) {
	if len(s.popular) > limit {
		return s.popular[:limit], nil
	}
	return s.popular, nil
}

func (s *catalogSource) QueryByCategories(ctx context.Context, categories []string, limit int) ([]domain.CandidateItem, error) {
	want := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		want[c] = struct{}{}
	}
	out := make([]domain.CandidateItem, 0, limit)
	for _, it := range s.popular {
		if _, ok := want[it.Category]; ok && len(out) < limit {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *catalogSource) QueryByMerchants(ctx context.Context, merchantIDs []uint64, limit int) ([]domain.CandidateItem, error) {
	return nil, nil
}

func (s *catalogSource) QueryRecentInCategories(ctx context.Context, categories []string, limit int) ([]domain.CandidateItem, error) {
	return s.QueryByCategories(ctx, categories, limit)
}

func (s *catalogSource) QueryNewArrivals(ctx context.Context, maxAge time.Duration, limit int) ([]domain.CandidateItem, error) {
	return nil, nil
}

func (s *catalogSource) QueryHighRatedMerchants(ctx context.Context, minRating float64, limit int) ([]domain.CandidateItem, error) {
	return nil, nil
}

func (s *catalogSource) GetItems(ctx context.Context, ids []uint64) ([]domain.CandidateItem, error) {
	out := make([]domain.CandidateItem, 0, len(ids))
	for _, id := range ids {
		if it, ok := s.catalog[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *catalogSource) BatchGetMerchants(ctx context.Context, ids []uint64) (map[uint64]domain.MerchantInfo, error) {
	return s.merchants, nil
}

// exposureStore is the in-memory stand-in for the redis frequency log.
type exposureStore struct {
	log map[uint64]map[uint64][]time.Time
}

func newExposureStore() *exposureStore {
	return &exposureStore{log: make(map[uint64]map[uint64][]time.Time)}
}

func (e *exposureStore) RecordExposures(ctx context.Context, userID uint64, itemIDs []uint64, at time.Time) error {
	byItem, ok := e.log[userID]
	if !ok {
		byItem = make(map[uint64][]time.Time)
		e.log[userID] = byItem
	}
	for _, id := range itemIDs {
		byItem[id] = append(byItem[id], at)
	}
	return nil
}

func (e *exposureStore) ExposureCounts(ctx context.Context, userID uint64, itemIDs []uint64, since time.Time) (map[uint64]int64, error) {
	out := make(map[uint64]int64, len(itemIDs))
	for _, id := range itemIDs {
		for _, at := range e.log[userID][id] {
			if !at.Before(since) {
				out[id]++
			}
		}
	}
	return out, nil
}

// banditStore is the in-memory stand-in for the redis bandit state.
type banditStore struct {
	alpha, beta map[uint64]float64
	exposures   map[uint64]int64
	totals      int64
}

func newBanditStore() *banditStore {
	return &banditStore{
		alpha:     make(map[uint64]float64),
		beta:      make(map[uint64]float64),
		exposures: make(map[uint64]int64),
	}
}

func (b *banditStore) GetBanditState(ctx context.Context, userID, itemID uint64) (domain.BanditState, bool, error) {
	_, seen := b.exposures[itemID]
	_, clicked := b.alpha[itemID]
	_, skipped := b.beta[itemID]
	// alpha/beta stay raw observation counts, exactly like the redis hash
	return domain.BanditState{
		Exposures:      b.exposures[itemID],
		TotalExposures: b.totals,
		Alpha:          b.alpha[itemID],
		Beta:           b.beta[itemID],
	}, seen || clicked || skipped, nil
}

func (b *banditStore) RecordFeedback(ctx context.Context, userID, itemID uint64, clicked bool) error {
	if clicked {
		b.alpha[itemID] = b.alpha[itemID] + 1
	} else {
		b.beta[itemID] = b.beta[itemID] + 1
	}
	return nil
}

func (b *banditStore) RecordExposures(ctx context.Context, userID uint64, itemIDs []uint64) error {
	for _, id := range itemIDs {
		b.exposures[id]++
		b.totals++
	}
	return nil
}

type lifecycleSource struct {
	status domain.UserLifecycleStatus
}

func (l *lifecycleSource) GetLifecycleStatus(ctx context.Context, userID uint64) (domain.UserLifecycleStatus, error) {
	return l.status, nil
}

func (l *lifecycleSource) GetActivitySummary(ctx context.Context, userID uint64) (exploration.ActivitySummary, error) {
	return exploration.ActivitySummary{}, nil
}

type sessionStore struct {
	profiles map[string]domain.SessionInterestProfile
}

func newSessionStore() *sessionStore {
	return &sessionStore{profiles: make(map[string]domain.SessionInterestProfile)}
}

func (s *sessionStore) GetProfile(ctx context.Context, userID uint64, sessionID string) (domain.SessionInterestProfile, bool, error) {
	p, ok := s.profiles[sessionID]
	return p, ok, nil
}

func (s *sessionStore) SaveProfile(ctx context.Context, userID uint64, sessionID string, profile domain.SessionInterestProfile, ttl time.Duration) error {
	s.profiles[sessionID] = profile
	return nil
}

type longTermStore struct {
	interests map[string]float64
	recent    []uint64
}

func (l *longTermStore) GetLongTermInterest(ctx context.Context, userID uint64) (map[string]float64, error) {
	return l.interests, nil
}

func (l *longTermStore) GetRecentViewedItems(ctx context.Context, userID uint64, n int) ([]uint64, error) {
	return l.recent, nil
}

func testCatalog(n int) []domain.CandidateItem {
	created := time.Now().Add(-90 * 24 * time.Hour)
	items := make([]domain.CandidateItem, 0, n)
	categories := []string{"fruit", "dairy", "bakery", "frozen", "pantry"}
	for i := 1; i <= n; i++ {
		items = append(items, domain.CandidateItem{
			ID:         uint64(i),
			MerchantID: uint64(1 + i%5),
			Category:   categories[i%len(categories)],
			SalePrice:  float64(10 * i),
			Cost:       float64(8 * i),
			Stock:      50,
			CreatedAt:  created,
		})
	}
	return items
}

type pipeline struct {
	svc      *RecoService
	source   *catalogSource
	caps     *freqcap.Filter
	bandits  *banditStore
	sessions *sessionStore
}

func newPipeline(items []domain.CandidateItem) *pipeline {
	source := newCatalogSource(items)
	bandits := newBanditStore()
	sessions := newSessionStore()

	weights := recall.NewWeightTable(recall.DefaultWeights())
	fanout := recall.NewFanout(recall.DefaultStrategies(source), time.Second)
	scorer := intervention.NewScorer(source)
	reranker := diversity.NewReranker(diversity.DefaultConfig())
	caps := freqcap.NewFilter(newExposureStore(), freqcap.DefaultDailyCap, freqcap.DefaultWeeklyCap)
	explorer := exploration.NewEngine(bandits, &lifecycleSource{status: domain.LifecycleMature}, exploration.DefaultRateConfig())
	sessionSvc := session.NewService(sessions, session.DefaultDecayPerMinute)

	svc := NewRecoService(
		fanout,
		weights,
		source,
		scorer,
		reranker,
		caps,
		explorer,
		sessionSvc,
		&longTermStore{},
		Config{SessionWeight: 0.6, ExploreBlend: 0, DefaultLimit: 10},
	)

	return &pipeline{svc: svc, source: source, caps: caps, bandits: bandits, sessions: sessions}
}

func TestRecommendColdStart(t *testing.T) {
	p := newPipeline(testCatalog(60))

	got, err := p.svc.Recommend(context.Background(), 42, "", 10)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 items for a cold user, got %d", len(got))
	}

	seen := make(map[uint64]struct{}, len(got))
	for _, r := range got {
		if _, dup := seen[r.ItemID]; dup {
			t.Errorf("duplicate item %d in result", r.ItemID)
		}
		seen[r.ItemID] = struct{}{}
	}
}

func TestRecommendRecordsExposures(t *testing.T) {
	p := newPipeline(testCatalog(60))
	ctx := context.Background()

	got, err := p.svc.Recommend(ctx, 42, "", 10)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}

	for _, r := range got {
		if p.bandits.exposures[r.ItemID] != 1 {
			t.Errorf("item %d should have one bandit exposure, got %d", r.ItemID, p.bandits.exposures[r.ItemID])
		}
	}
	if p.bandits.totals != int64(len(got)) {
		t.Errorf("total exposures %d, want %d", p.bandits.totals, len(got))
	}
}

func TestRecommendCapsRepeatServing(t *testing.T) {
	p := newPipeline(testCatalog(60))
	ctx := context.Background()

	first, err := p.svc.Recommend(ctx, 42, "", 10)
	if err != nil {
		t.Fatalf("first recommend: %v", err)
	}

	second, err := p.svc.Recommend(ctx, 42, "", 10)
	if err != nil {
		t.Fatalf("second recommend: %v", err)
	}

	served := make(map[uint64]struct{}, len(first))
	for _, r := range first {
		served[r.ItemID] = struct{}{}
	}
	for _, r := range second {
		if _, ok := served[r.ItemID]; ok {
			t.Errorf("item %d served twice inside the daily cap window", r.ItemID)
		}
	}
	if len(second) == 0 {
		t.Error("capping must not empty the result while fresh candidates remain")
	}
}

func TestRecommendMerchantSpread(t *testing.T) {
	p := newPipeline(testCatalog(60))

	got, err := p.svc.Recommend(context.Background(), 42, "", 10)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}

	perMerchant := make(map[uint64]int)
	for _, r := range got {
		perMerchant[r.MerchantID]++
	}
	// quota for limit 10 at ratio 0.4 is 4; the pool has five merchants so
	// the quota must hold without fallback
	for m, n := range perMerchant {
		if n > 4 {
			t.Errorf("merchant %d has %d of 10 slots", m, n)
		}
	}
}

func TestRecordFeedbackUpdatesBanditAndSession(t *testing.T) {
	p := newPipeline(testCatalog(60))
	ctx := context.Background()

	err := p.svc.RecordFeedback(ctx, domain.FeedbackEvent{
		UserID:    42,
		SessionID: "sess-1",
		ItemID:    3,
		EventType: domain.EventPurchase,
	})
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}

	if p.bandits.alpha[3] != 1 {
		t.Errorf("purchase should bump alpha, got %v", p.bandits.alpha[3])
	}

	profile, ok := p.sessions.profiles["sess-1"]
	if !ok {
		t.Fatal("feedback with a session should create the session profile")
	}
	category := p.source.catalog[3].Category
	if profile.Weights[category] <= 0 {
		t.Errorf("session weight for %q should be positive, got %v", category, profile.Weights[category])
	}
}

func TestRecordFeedbackRejectsEmptyType(t *testing.T) {
	p := newPipeline(testCatalog(10))

	err := p.svc.RecordFeedback(context.Background(), domain.FeedbackEvent{UserID: 1, ItemID: 1})
	if err == nil {
		t.Error("missing event type must be rejected")
	}
}

func TestRecordEventBackfillsCategory(t *testing.T) {
	p := newPipeline(testCatalog(10))
	ctx := context.Background()

	err := p.svc.RecordEvent(ctx, domain.BehaviorEvent{
		UserID:    42,
		SessionID: "sess-2",
		ItemID:    4,
		EventType: domain.EventCartAdd,
	})
	if err != nil {
		t.Fatalf("event: %v", err)
	}

	profile := p.sessions.profiles["sess-2"]
	category := p.source.catalog[4].Category
	if profile.Weights[category] <= 0 {
		t.Errorf("category should be resolved from the catalog, weights: %v", profile.Weights)
	}
}

func TestRecommendCancelledContext(t *testing.T) {
	p := newPipeline(testCatalog(10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.svc.Recommend(ctx, 1, "", 10); err == nil {
		t.Error("cancelled context must fail fast")
	}
}
