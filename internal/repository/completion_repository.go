package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sparks/internal/model"
)

// CompletionRepository stores which tasks each user has finished.
type CompletionRepository struct {
	db *gorm.DB
}

func NewCompletionRepository(db *gorm.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

func (r *CompletionRepository) WithTx(tx *gorm.DB) *CompletionRepository {
	return &CompletionRepository{db: tx}
}

func (r *CompletionRepository) Exists(ctx context.Context, userID, taskID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.CompletedTask{}).
		Where("user_id = ? AND task_id = ?", userID, taskID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check completion: %w", err)
	}
	return count > 0, nil
}

// Create inserts the completion or returns ErrDuplicate if the pair exists.
func (r *CompletionRepository) Create(ctx context.Context, row *model.CompletedTask) error {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return fmt.Errorf("create completion: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}
