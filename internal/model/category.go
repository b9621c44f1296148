package model

import "time"

// Category groups tasks by theme (romance, adventure, etc.).
type Category struct {
	ID           uint   `gorm:"primaryKey"`
	Slug         string `gorm:"size:100;uniqueIndex"`
	Color        string `gorm:"size:7"`
	IsActive     bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	Translations []CategoryTranslation `gorm:"foreignKey:CategoryID"`
	Tasks        []Task                `gorm:"foreignKey:CategoryID"`
}

// CategoryTranslation holds the display name of a category in one language.
type CategoryTranslation struct {
	ID         uint `gorm:"primaryKey"`
	CategoryID uint `gorm:"uniqueIndex:idx_category_language"`
	LanguageID uint `gorm:"uniqueIndex:idx_category_language"`
	Name       string
}
