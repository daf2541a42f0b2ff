package redis

import (
	"context"
	"fmt"
	"freshMarket/domain"

	"github.com/redis/go-redis/v9"
)

// Hash fields of the per-(user,item) bandit state.
const (
	fieldExposures = "exposures"
	fieldAlpha     = "alpha"
	fieldBeta      = "beta"
)

// BanditStateRepository keeps exposure counters and click/no-click
// observation counts per (user,item) in Redis hashes. Alpha and beta are raw
// counts starting at zero; readers add the Beta(1,1) prior themselves. All
// mutations are atomic increments so concurrent requests for the same user
// never lose updates.
type BanditStateRepository struct {
	client *redis.Client
}

func NewBanditStateRepository(client *redis.Client) *BanditStateRepository {
	return &BanditStateRepository{
		client: client,
	}
}

// GetBanditState reads the (user,item) arm. ok=false means no per-item state
// exists yet; the returned TotalExposures is valid either way. Malformed
// numeric fields read as zero rather than failing the call.
func (r *BanditStateRepository) GetBanditState(ctx context.Context, userID, itemID uint64) (domain.BanditState, bool, error) {
	pipe := r.client.Pipeline()
	armCmd := pipe.HGetAll(ctx, banditKey(userID, itemID))
	totalCmd := pipe.Get(ctx, banditTotalKey(userID))

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return domain.BanditState{}, false, fmt.Errorf("failed to read bandit state: %w", err)
	}

	var st domain.BanditState
	if total, err := totalCmd.Result(); err == nil {
		st.TotalExposures = parseInt(total)
	}

	vals := armCmd.Val()
	if len(vals) == 0 {
		return st, false, nil
	}

	st.Exposures = parseInt(vals[fieldExposures])
	st.Alpha = parseFloat(vals[fieldAlpha])
	st.Beta = parseFloat(vals[fieldBeta])

	return st, true, nil
}

// RecordFeedback bumps alpha on click, beta otherwise, as a single atomic
// increment.
func (r *BanditStateRepository) RecordFeedback(ctx context.Context, userID, itemID uint64, clicked bool) error {
	field := fieldBeta
	if clicked {
		field = fieldAlpha
	}

	key := banditKey(userID, itemID)

	pipe := r.client.TxPipeline()
	pipe.HIncrByFloat(ctx, key, field, 1)
	pipe.Expire(ctx, key, domain.BanditStateTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record bandit feedback: %w", err)
	}

	return nil
}

// RecordExposures bumps each item's exposure counter and the user's total in
// one pipeline.
func (r *BanditStateRepository) RecordExposures(ctx context.Context, userID uint64, itemIDs []uint64) error {
	if len(itemIDs) == 0 {
		return nil
	}

	pipe := r.client.TxPipeline()
	for _, itemID := range itemIDs {
		key := banditKey(userID, itemID)
		pipe.HIncrBy(ctx, key, fieldExposures, 1)
		pipe.Expire(ctx, key, domain.BanditStateTTL)
	}
	totalKey := banditTotalKey(userID)
	pipe.IncrBy(ctx, totalKey, int64(len(itemIDs)))
	pipe.Expire(ctx, totalKey, domain.BanditStateTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record bandit exposures: %w", err)
	}

	return nil
}
