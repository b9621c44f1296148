package model

import "time"

type Language struct {
	ID        uint   `gorm:"primaryKey"`
	Code      string `gorm:"size:10;uniqueIndex"`
	Name      string `gorm:"size:100"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
}
