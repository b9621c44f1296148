package model

import "time"

// GenderTarget is an audience tag on a task.
type GenderTarget string

const (
	TargetMale   GenderTarget = "male"
	TargetFemale GenderTarget = "female"
	TargetCouple GenderTarget = "couple"
	TargetAll    GenderTarget = "all"
)

// Task is a catalogue item shown to users; text lives in TaskTranslation.
type Task struct {
	ID            uint               `gorm:"primaryKey"`
	CategoryID    uint               `gorm:"index"`
	IsActive      bool               `gorm:"not null;default:true"`
	CreatedAt     time.Time          `gorm:"index"`
	Translations  []TaskTranslation  `gorm:"foreignKey:TaskID"`
	GenderTargets []TaskGenderTarget `gorm:"foreignKey:TaskID"`
}

type TaskTranslation struct {
	ID          uint   `gorm:"primaryKey"`
	TaskID      uint   `gorm:"uniqueIndex:idx_task_language"`
	LanguageID  uint   `gorm:"uniqueIndex:idx_task_language"`
	Title       string `gorm:"size:500"`
	Description string `gorm:"size:2000"`
}

// TaskGenderTarget tags a task with one audience; a tag appears once per task.
type TaskGenderTarget struct {
	ID     uint         `gorm:"primaryKey"`
	TaskID uint         `gorm:"uniqueIndex:idx_task_gender"`
	Gender GenderTarget `gorm:"size:16;uniqueIndex:idx_task_gender"`
}

// VisibleTo reports whether the task targets g directly or targets everyone.
func (t *Task) VisibleTo(g Gender) bool {
	for _, target := range t.GenderTargets {
		if target.Gender == TargetAll || string(target.Gender) == string(g) {
			return true
		}
	}
	return false
}
