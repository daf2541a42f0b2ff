package recall

import (
	"context"
	"freshMarket/domain"
	"sort"
	"time"
)

// Strategy names. These are also the keys of the strategy weight table.
const (
	StrategyPopularity        = "popularity"
	StrategyCollaborative     = "collaborative"
	StrategyCategoryPref      = "category_preference"
	StrategyRecencyDecay      = "recency_decay"
	StrategyNewArrival        = "new_arrival"
	StrategyHighRatedMerchant = "high_rated_merchant"
)

const (
	newArrivalMaxAge   = 7 * 24 * time.Hour
	highRatedMinRating = 4.5
	categoryPrefTopK   = 5
)

// CandidateSource is the catalog read contract. Each recall predicate maps to
// one indexed query; implemented by the postgres candidate repository.
type CandidateSource interface {
	QueryPopular(ctx context.Context, limit int) ([]domain.CandidateItem, error)
	QueryByCategories(ctx context.Context, categories []string, limit int) ([]domain.CandidateItem, error)
	QueryByMerchants(ctx context.Context, merchantIDs []uint64, limit int) ([]domain.CandidateItem, error)
	QueryRecentInCategories(ctx context.Context, categories []string, limit int) ([]domain.CandidateItem, error)
	QueryNewArrivals(ctx context.Context, maxAge time.Duration, limit int) ([]domain.CandidateItem, error)
	QueryHighRatedMerchants(ctx context.Context, minRating float64, limit int) ([]domain.CandidateItem, error)
	GetItems(ctx context.Context, ids []uint64) ([]domain.CandidateItem, error)
}

// UserContext is the per-request snapshot of user interest state consumed by
// the personalized strategies. Empty fields simply disable those strategies,
// which is how cold-start users still get results.
type UserContext struct {
	UserID           uint64
	Interests        map[string]float64 // merged long-term + session weights
	RecentCategories []string           // categories of recently viewed items
	RecentMerchants  []uint64
}

type Strategy struct {
	Name  string
	Fetch func(ctx context.Context, uc UserContext, limit int) ([]domain.CandidateItem, error)
}

// DefaultStrategies builds the six standard recall strategies over src.
func DefaultStrategies(src CandidateSource) []Strategy {
	return []Strategy{
		{
			Name: StrategyPopularity,
			Fetch: func(ctx context.Context, uc UserContext, limit int) ([]domain.CandidateItem, error) {
				return src.QueryPopular(ctx, limit)
			},
		},
		{
			Name: StrategyCollaborative,
			Fetch: func(ctx context.Context, uc UserContext, limit int) ([]domain.CandidateItem, error) {
				return collaborative(ctx, src, uc, limit)
			},
		},
		{
			Name: StrategyCategoryPref,
			Fetch: func(ctx context.Context, uc UserContext, limit int) ([]domain.CandidateItem, error) {
				top := topCategories(uc.Interests, categoryPrefTopK)
				if len(top) == 0 {
					return nil, nil
				}
				return src.QueryByCategories(ctx, top, limit)
			},
		},
		{
			Name: StrategyRecencyDecay,
			Fetch: func(ctx context.Context, uc UserContext, limit int) ([]domain.CandidateItem, error) {
				if len(uc.RecentCategories) == 0 {
					return nil, nil
				}
				return src.QueryRecentInCategories(ctx, uc.RecentCategories, limit)
			},
		},
		{
			Name: StrategyNewArrival,
			Fetch: func(ctx context.Context, uc UserContext, limit int) ([]domain.CandidateItem, error) {
				return src.QueryNewArrivals(ctx, newArrivalMaxAge, limit)
			},
		},
		{
			Name: StrategyHighRatedMerchant,
			Fetch: func(ctx context.Context, uc UserContext, limit int) ([]domain.CandidateItem, error) {
				return src.QueryHighRatedMerchants(ctx, highRatedMinRating, limit)
			},
		},
	}
}

// collaborative recalls items overlapping the user's recent views by merchant
// and by category, deduplicated, merchants first.
func collaborative(ctx context.Context, src CandidateSource, uc UserContext, limit int) ([]domain.CandidateItem, error) {
	if len(uc.RecentCategories) == 0 && len(uc.RecentMerchants) == 0 {
		return nil, nil
	}

	out := make([]domain.CandidateItem, 0, limit)
	seen := make(map[uint64]struct{}, limit)

	if len(uc.RecentMerchants) > 0 {
		byMerchant, err := src.QueryByMerchants(ctx, uc.RecentMerchants, limit/2)
		if err != nil {
			return nil, err
		}
		for _, item := range byMerchant {
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			out = append(out, item)
		}
	}

	if len(uc.RecentCategories) > 0 && len(out) < limit {
		byCategory, err := src.QueryByCategories(ctx, uc.RecentCategories, limit)
		if err != nil {
			return nil, err
		}
		for _, item := range byCategory {
			if len(out) >= limit {
				break
			}
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			out = append(out, item)
		}
	}

	return out, nil
}

// topCategories returns up to k category names ordered by interest weight.
func topCategories(interests map[string]float64, k int) []string {
	if len(interests) == 0 {
		return nil
	}

	type kv struct {
		category string
		weight   float64
	}

	ranked := make([]kv, 0, len(interests))
	for c, w := range interests {
		if w > 0 {
			ranked = append(ranked, kv{category: c, weight: w})
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].weight == ranked[j].weight {
			return ranked[i].category < ranked[j].category
		}
		return ranked[i].weight > ranked[j].weight
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}

	out := make([]string, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.category)
	}

	return out
}
