package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sparks/internal/model"
)

// TransactionRepository appends to and reads the currency audit trail.
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) WithTx(tx *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

// Append inserts an audit row, assigning a public reference if missing.
func (r *TransactionRepository) Append(ctx context.Context, t *model.Transaction) error {
	if t.Reference == "" {
		t.Reference = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

// FindByTonHash returns the transaction recorded for a TON transfer hash.
func (r *TransactionRepository) FindByTonHash(ctx context.Context, hash string) (*model.Transaction, error) {
	var t model.Transaction
	if err := r.db.WithContext(ctx).Where("ton_transaction_hash = ?", hash).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByUser returns the newest transactions first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]model.Transaction, error) {
	var rows []model.Transaction
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return rows, nil
}
