package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sparks/internal/model"
)

// UserRepository handles users, their interests and balances.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx binds the repository to a running transaction.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Interests").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Interests").Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByWalletAddress looks a user up by the linked TON wallet.
func (r *UserRepository) FindByWalletAddress(ctx context.Context, address string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Interests").Where("wallet_address = ?", address).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SyncTelegramProfile refreshes the display fields of an already registered user.
func (r *UserRepository) SyncTelegramProfile(ctx context.Context, telegramID int64, firstName, lastName, username string) (*model.User, error) {
	user, err := r.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"first_name": firstName,
		"last_name":  lastName,
		"username":   username,
	}
	if err := r.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	user.FirstName, user.LastName, user.Username = firstName, lastName, username
	return user, nil
}

// SetInterests replaces the user's declared interest categories.
func (r *UserRepository) SetInterests(ctx context.Context, userID uint, categoryIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.UserCategory{}).Error; err != nil {
			return fmt.Errorf("clear interests: %w", err)
		}
		for _, id := range categoryIDs {
			row := model.UserCategory{UserID: userID, CategoryID: id}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return fmt.Errorf("add interest: %w", err)
			}
		}
		return nil
	})
}

func (r *UserRepository) SetActive(ctx context.Context, userID uint, active bool) error {
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		Update("is_active", active).Error; err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	return nil
}

func (r *UserRepository) Balance(ctx context.Context, userID uint) (int64, error) {
	var balance int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		Select("balance").Scan(&balance).Error
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

// Debit subtracts amount only if the balance covers it. It reports false
// without touching the row when funds are short.
func (r *UserRepository) Debit(ctx context.Context, userID uint, amount int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND balance >= ?", userID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return false, fmt.Errorf("debit balance: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *UserRepository) Credit(ctx context.Context, userID uint, amount int64) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("credit balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// ListActive returns every active user, oldest first.
func (r *UserRepository) ListActive(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
