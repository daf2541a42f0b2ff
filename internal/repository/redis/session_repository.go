package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"freshMarket/domain"
	"time"

	"github.com/redis/go-redis/v9"
)

// Session hash fields.
const (
	fieldWeights   = "weights"
	fieldViewed    = "viewed"
	fieldPrices    = "prices"
	fieldTerms     = "terms"
	fieldUpdatedAt = "updated_at"
)

// SessionRepository keeps the per-(user,session) interest profile in one
// Redis hash whose fields live and expire together.
type SessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{
		client: client,
	}
}

func (r *SessionRepository) GetProfile(ctx context.Context, userID uint64, sessionID string) (domain.SessionInterestProfile, bool, error) {
	vals, err := r.client.HGetAll(ctx, sessionKey(userID, sessionID)).Result()
	if err != nil {
		return domain.SessionInterestProfile{}, false, fmt.Errorf("failed to read session profile: %w", err)
	}
	if len(vals) == 0 {
		return domain.SessionInterestProfile{}, false, nil
	}

	profile := domain.SessionInterestProfile{Weights: map[string]float64{}}

	// malformed fields read as absent, never as an error
	_ = json.Unmarshal([]byte(vals[fieldWeights]), &profile.Weights)
	_ = json.Unmarshal([]byte(vals[fieldViewed]), &profile.ViewedItems)
	_ = json.Unmarshal([]byte(vals[fieldPrices]), &profile.PriceHistory)
	_ = json.Unmarshal([]byte(vals[fieldTerms]), &profile.SearchTerms)
	if t, err := time.Parse(time.RFC3339Nano, vals[fieldUpdatedAt]); err == nil {
		profile.UpdatedAt = t
	}

	return profile, true, nil
}

// SaveProfile writes every session field and refreshes the TTL in one
// transaction so the session-scoped state expires as a group.
func (r *SessionRepository) SaveProfile(ctx context.Context, userID uint64, sessionID string, profile domain.SessionInterestProfile, ttl time.Duration) error {
	weights, err := json.Marshal(profile.Weights)
	if err != nil {
		return fmt.Errorf("failed to marshal session weights: %w", err)
	}
	viewed, err := json.Marshal(profile.ViewedItems)
	if err != nil {
		return fmt.Errorf("failed to marshal viewed items: %w", err)
	}
	prices, err := json.Marshal(profile.PriceHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal price history: %w", err)
	}
	terms, err := json.Marshal(profile.SearchTerms)
	if err != nil {
		return fmt.Errorf("failed to marshal search terms: %w", err)
	}

	key := sessionKey(userID, sessionID)

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key,
		fieldWeights, weights,
		fieldViewed, viewed,
		fieldPrices, prices,
		fieldTerms, terms,
		fieldUpdatedAt, profile.UpdatedAt.Format(time.RFC3339Nano),
	)
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session profile: %w", err)
	}

	return nil
}
