package model

import "time"

// Gender is the declared gender of an account.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderCouple Gender = "couple"
)

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderCouple:
		return true
	}
	return false
}

// User stores Telegram user metadata, preferences and the sparks balance.
type User struct {
	ID            uint  `gorm:"primaryKey"`
	TelegramID    int64 `gorm:"uniqueIndex"`
	FirstName     string
	LastName      string
	Username      string
	Gender        Gender  `gorm:"size:16;not null;default:couple"`
	LanguageID    uint    `gorm:"index"`
	Balance       int64   `gorm:"not null;default:0"`
	IsActive      bool    `gorm:"not null;default:true"`
	WalletAddress *string `gorm:"size:48;uniqueIndex"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Interests     []UserCategory `gorm:"foreignKey:UserID"`
}

// UserCategory marks a category the user declared interest in.
type UserCategory struct {
	ID         uint `gorm:"primaryKey"`
	UserID     uint `gorm:"uniqueIndex:idx_user_category"`
	CategoryID uint `gorm:"uniqueIndex:idx_user_category"`
	CreatedAt  time.Time
}

// InterestIDs returns the declared category ids.
func (u *User) InterestIDs() []uint {
	ids := make([]uint, 0, len(u.Interests))
	for _, in := range u.Interests {
		ids = append(ids, in.CategoryID)
	}
	return ids
}
