package redis

import (
	"context"
	"fmt"
	"freshMarket/domain"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// FrequencyRepository keeps one sorted set of exposure timestamps per
// (user,item), scored by epoch millis so the cap windows are plain
// range-by-score queries.
type FrequencyRepository struct {
	client *redis.Client
}

func NewFrequencyRepository(client *redis.Client) *FrequencyRepository {
	return &FrequencyRepository{
		client: client,
	}
}

// RecordExposures appends one timestamped entry per item, pruning anything
// older than the retention window on the way. One pipeline for the whole
// batch.
func (r *FrequencyRepository) RecordExposures(ctx context.Context, userID uint64, itemIDs []uint64, at time.Time) error {
	if len(itemIDs) == 0 {
		return nil
	}

	score := float64(at.UnixMilli())
	member := strconv.FormatInt(at.UnixNano(), 10)
	pruneBefore := strconv.FormatInt(at.Add(-domain.ExposureTTL).UnixMilli(), 10)

	pipe := r.client.TxPipeline()
	for _, itemID := range itemIDs {
		key := exposureKey(userID, itemID)
		pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: member})
		pipe.ZRemRangeByScore(ctx, key, "-inf", pruneBefore)
		pipe.Expire(ctx, key, domain.ExposureTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record exposures: %w", err)
	}

	return nil
}

// ExposureCounts counts per-item exposures since a cutoff in one pipelined
// round trip for the whole batch.
func (r *FrequencyRepository) ExposureCounts(ctx context.Context, userID uint64, itemIDs []uint64, since time.Time) (map[uint64]int64, error) {
	if len(itemIDs) == 0 {
		return map[uint64]int64{}, nil
	}

	min := strconv.FormatInt(since.UnixMilli(), 10)

	pipe := r.client.Pipeline()
	cmds := make(map[uint64]*redis.IntCmd, len(itemIDs))
	for _, itemID := range itemIDs {
		cmds[itemID] = pipe.ZCount(ctx, exposureKey(userID, itemID), min, "+inf")
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to count exposures: %w", err)
	}

	out := make(map[uint64]int64, len(itemIDs))
	for itemID, cmd := range cmds {
		out[itemID] = cmd.Val()
	}

	return out, nil
}
