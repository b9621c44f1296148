package model

import (
	"time"

	"sparks/internal/clock"
)

// CompletedTask is the permanent record that a user finished a task.
type CompletedTask struct {
	ID          uint `gorm:"primaryKey"`
	UserID      uint `gorm:"uniqueIndex:idx_user_task"`
	TaskID      uint `gorm:"uniqueIndex:idx_user_task"`
	CompletedAt time.Time
}

// DailyEntitlement tracks free attempts consumed and purchased attempts left
// for one user on one reference-timezone day.
type DailyEntitlement struct {
	ID            uint       `gorm:"primaryKey"`
	UserID        uint       `gorm:"uniqueIndex:idx_entitlement_user_day"`
	Day           clock.Date `gorm:"uniqueIndex:idx_entitlement_user_day"`
	FreeConsumed  int        `gorm:"not null;default:0"`
	PaidAvailable int        `gorm:"not null;default:0"`
	LastReset     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DailyBonusClaim records one streak bonus payout.
type DailyBonusClaim struct {
	ID          uint       `gorm:"primaryKey"`
	UserID      uint       `gorm:"uniqueIndex:idx_bonus_user_day"`
	Day         clock.Date `gorm:"uniqueIndex:idx_bonus_user_day;index"`
	DayNumber   int        `gorm:"not null"`
	BonusAmount int64      `gorm:"not null"`
	ClaimedAt   time.Time
}
