package postgres

import (
	"context"
	"fmt"
	"freshMarket/domain"
	"time"

	"gorm.io/gorm"
)

// CandidateRepository backs the six recall predicates and the batched
// merchant lookup with indexed catalog queries.
type CandidateRepository struct {
	DB *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) *CandidateRepository {
	return &CandidateRepository{
		DB: db,
	}
}

func (r *CandidateRepository) QueryPopular(ctx context.Context, limit int) ([]domain.CandidateItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var items []domain.CandidateItem
	err := r.DB.WithContext(ctx).
		Where("stock > 0").
		Order("sales_volume DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query popular items: %w", err)
	}

	return items, nil
}

func (r *CandidateRepository) QueryByCategories(ctx context.Context, categories []string, limit int) ([]domain.CandidateItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(categories) == 0 {
		return nil, nil
	}

	var items []domain.CandidateItem
	err := r.DB.WithContext(ctx).
		Where("category IN ? AND stock > 0", categories).
		Order("sales_volume DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query items by category: %w", err)
	}

	return items, nil
}

func (r *CandidateRepository) QueryByMerchants(ctx context.Context, merchantIDs []uint64, limit int) ([]domain.CandidateItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(merchantIDs) == 0 {
		return nil, nil
	}

	var items []domain.CandidateItem
	err := r.DB.WithContext(ctx).
		Where("merchant_id IN ? AND stock > 0", merchantIDs).
		Order("sales_volume DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query items by merchant: %w", err)
	}

	return items, nil
}

func (r *CandidateRepository) QueryRecentInCategories(ctx context.Context, categories []string, limit int) ([]domain.CandidateItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(categories) == 0 {
		return nil, nil
	}

	var items []domain.CandidateItem
	err := r.DB.WithContext(ctx).
		Where("category IN ? AND stock > 0", categories).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query recent items: %w", err)
	}

	return items, nil
}

func (r *CandidateRepository) QueryNewArrivals(ctx context.Context, maxAge time.Duration, limit int) ([]domain.CandidateItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var items []domain.CandidateItem
	err := r.DB.WithContext(ctx).
		Where("created_at >= ? AND stock > 0", time.Now().Add(-maxAge)).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query new arrivals: %w", err)
	}

	return items, nil
}

func (r *CandidateRepository) QueryHighRatedMerchants(ctx context.Context, minRating float64, limit int) ([]domain.CandidateItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var items []domain.CandidateItem
	err := r.DB.WithContext(ctx).
		Joins("JOIN merchants ON merchants.id = items.merchant_id").
		Where("merchants.rating >= ? AND items.stock > 0", minRating).
		Order("merchants.rating DESC, items.sales_volume DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query high rated merchant items: %w", err)
	}

	return items, nil
}

func (r *CandidateRepository) GetItems(ctx context.Context, ids []uint64) ([]domain.CandidateItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var items []domain.CandidateItem
	err := r.DB.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}

	return items, nil
}

// BatchGetMerchants fetches merchant snapshots for a result set in one query.
func (r *CandidateRepository) BatchGetMerchants(ctx context.Context, ids []uint64) (map[uint64]domain.MerchantInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(ids) == 0 {
		return map[uint64]domain.MerchantInfo{}, nil
	}

	var merchants []domain.MerchantInfo
	err := r.DB.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&merchants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to batch get merchants: %w", err)
	}

	out := make(map[uint64]domain.MerchantInfo, len(merchants))
	for _, m := range merchants {
		out[m.ID] = m
	}

	return out, nil
}
