package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sparks/internal/model"
)

// BonusRepository stores daily streak bonus claims.
type BonusRepository struct {
	db *gorm.DB
}

func NewBonusRepository(db *gorm.DB) *BonusRepository {
	return &BonusRepository{db: db}
}

func (r *BonusRepository) WithTx(tx *gorm.DB) *BonusRepository {
	return &BonusRepository{db: tx}
}

// Last returns the most recent claim, or nil if the user never claimed.
func (r *BonusRepository) Last(ctx context.Context, userID uint) (*model.DailyBonusClaim, error) {
	var claim model.DailyBonusClaim
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("day DESC").First(&claim).Error
	switch {
	case err == nil:
		return &claim, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find last bonus: %w", err)
	}
}

// Create inserts the claim or returns ErrDuplicate if (user, day) is taken.
func (r *BonusRepository) Create(ctx context.Context, claim *model.DailyBonusClaim) error {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(claim)
	if res.Error != nil {
		return fmt.Errorf("create bonus claim: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}
