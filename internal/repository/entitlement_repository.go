package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sparks/internal/clock"
	"sparks/internal/model"
)

// EntitlementRepository owns the per-user, per-day attempt counters.
type EntitlementRepository struct {
	db *gorm.DB
}

func NewEntitlementRepository(db *gorm.DB) *EntitlementRepository {
	return &EntitlementRepository{db: db}
}

func (r *EntitlementRepository) WithTx(tx *gorm.DB) *EntitlementRepository {
	return &EntitlementRepository{db: tx}
}

// GetOrCreate returns the (user, day) row, inserting a zeroed one first if
// needed. Concurrent callers converge on the same row through the unique
// (user_id, day) index.
func (r *EntitlementRepository) GetOrCreate(ctx context.Context, userID uint, day clock.Date) (*model.DailyEntitlement, error) {
	db := r.db.WithContext(ctx)
	row := model.DailyEntitlement{UserID: userID, Day: day}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("create entitlement: %w", err)
	}

	var current model.DailyEntitlement
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND day = ?", userID, day).
		First(&current).Error
	if err != nil {
		return nil, fmt.Errorf("find entitlement: %w", err)
	}
	return &current, nil
}

// Find returns the row for (user, day) or gorm.ErrRecordNotFound.
func (r *EntitlementRepository) Find(ctx context.Context, userID uint, day clock.Date) (*model.DailyEntitlement, error) {
	var row model.DailyEntitlement
	if err := r.db.WithContext(ctx).Where("user_id = ? AND day = ?", userID, day).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ConsumeFree bumps free_consumed if it is still below limit.
func (r *EntitlementRepository) ConsumeFree(ctx context.Context, id uint, limit int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.DailyEntitlement{}).
		Where("id = ? AND free_consumed < ?", id, limit).
		Update("free_consumed", gorm.Expr("free_consumed + 1"))
	if res.Error != nil {
		return false, fmt.Errorf("consume free slot: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ConsumePaid decrements paid_available if any purchased slot is left.
func (r *EntitlementRepository) ConsumePaid(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.DailyEntitlement{}).
		Where("id = ? AND paid_available > 0", id).
		Update("paid_available", gorm.Expr("paid_available - 1"))
	if res.Error != nil {
		return false, fmt.Errorf("consume paid slot: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *EntitlementRepository) AddPaid(ctx context.Context, id uint, n int) error {
	res := r.db.WithContext(ctx).Model(&model.DailyEntitlement{}).
		Where("id = ?", id).
		Update("paid_available", gorm.Expr("paid_available + ?", n))
	if res.Error != nil {
		return fmt.Errorf("add paid slot: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ResetForDay zeroes free_consumed on every row dated day.
func (r *EntitlementRepository) ResetForDay(ctx context.Context, day clock.Date, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.DailyEntitlement{}).
		Where("day = ?", day).
		Updates(map[string]interface{}{
			"free_consumed": 0,
			"last_reset":    at,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("reset entitlements: %w", res.Error)
	}
	return res.RowsAffected, nil
}
