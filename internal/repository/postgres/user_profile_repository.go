package postgres

import (
	"context"
	"errors"
	"fmt"
	"freshMarket/business/exploration"
	"freshMarket/domain"
	"time"

	"gorm.io/gorm"
)

// UserProfileRepository reads the externally-owned user profile: lifecycle
// status, long-term interest weights, and recent activity.
type UserProfileRepository struct {
	DB *gorm.DB
}

func NewUserProfileRepository(db *gorm.DB) *UserProfileRepository {
	return &UserProfileRepository{
		DB: db,
	}
}

type userProfileRow struct {
	UserID          uint64    `gorm:"column:user_id;primaryKey"`
	LifecycleStatus string    `gorm:"column:lifecycle_status"`
	LastActiveAt    time.Time `gorm:"column:last_active_at"`
}

func (userProfileRow) TableName() string {
	return "user_profiles"
}

type userInterestRow struct {
	UserID   uint64  `gorm:"column:user_id"`
	Category string  `gorm:"column:category"`
	Weight   float64 `gorm:"column:weight"`
}

func (userInterestRow) TableName() string {
	return "user_interests"
}

type userEventRow struct {
	UserID    uint64    `gorm:"column:user_id"`
	ItemID    uint64    `gorm:"column:item_id"`
	EventType string    `gorm:"column:event_type"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (userEventRow) TableName() string {
	return "user_events"
}

// GetLifecycleStatus returns the stored status; a user with no profile row is
// a cold start.
func (r *UserProfileRepository) GetLifecycleStatus(ctx context.Context, userID uint64) (domain.UserLifecycleStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context error: %w", err)
	}

	var row userProfileRow
	err := r.DB.WithContext(ctx).First(&row, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.LifecycleColdStart, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query user profile: %w", err)
	}

	switch status := domain.UserLifecycleStatus(row.LifecycleStatus); status {
	case domain.LifecycleColdStart, domain.LifecycleWarming, domain.LifecycleMature,
		domain.LifecycleMatureDeclining, domain.LifecycleInactive:
		return status, nil
	default:
		return domain.LifecycleColdStart, nil
	}
}

// GetActivitySummary counts events in the trailing and prior 7-day windows.
func (r *UserProfileRepository) GetActivitySummary(ctx context.Context, userID uint64) (exploration.ActivitySummary, error) {
	if err := ctx.Err(); err != nil {
		return exploration.ActivitySummary{}, fmt.Errorf("context error: %w", err)
	}

	now := time.Now()
	weekAgo := now.Add(-7 * 24 * time.Hour)
	twoWeeksAgo := now.Add(-14 * 24 * time.Hour)

	var recent, prior int64
	err := r.DB.WithContext(ctx).Model(&userEventRow{}).
		Where("user_id = ? AND created_at >= ?", userID, weekAgo).
		Count(&recent).Error
	if err != nil {
		return exploration.ActivitySummary{}, fmt.Errorf("failed to count recent activity: %w", err)
	}

	err = r.DB.WithContext(ctx).Model(&userEventRow{}).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, twoWeeksAgo, weekAgo).
		Count(&prior).Error
	if err != nil {
		return exploration.ActivitySummary{}, fmt.Errorf("failed to count prior activity: %w", err)
	}

	summary := exploration.ActivitySummary{
		Recent7d: recent,
		Prior7d:  prior,
	}

	var profile userProfileRow
	if err := r.DB.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err == nil {
		summary.LastActive = profile.LastActiveAt
	}

	return summary, nil
}

func (r *UserProfileRepository) GetLongTermInterest(ctx context.Context, userID uint64) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []userInterestRow
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query user interests: %w", err)
	}

	out := make(map[string]float64, len(rows))
	for _, row := range rows {
		out[row.Category] = row.Weight
	}

	return out, nil
}

func (r *UserProfileRepository) GetRecentViewedItems(ctx context.Context, userID uint64, n int) ([]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&userEventRow{}).
		Where("user_id = ? AND event_type = ?", userID, domain.EventView).
		Order("created_at DESC").
		Limit(n).
		Pluck("item_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query recent views: %w", err)
	}

	return ids, nil
}
