package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sparks/internal/metrics"
	"sparks/internal/model"
	"sparks/internal/repository"
)

// CurrencyLedger is the single path for balance changes: every credit or
// debit updates the running balance and appends an audit Transaction in the
// same database transaction.
type CurrencyLedger struct {
	db           *gorm.DB
	users        *repository.UserRepository
	transactions *repository.TransactionRepository
	log          *zap.Logger
}

func NewCurrencyLedger(db *gorm.DB, users *repository.UserRepository, transactions *repository.TransactionRepository, log *zap.Logger) *CurrencyLedger {
	if log == nil {
		log = zap.NewNop()
	}
	return &CurrencyLedger{db: db, users: users, transactions: transactions, log: log.Named("ledger")}
}

// CreditTx adds amount to the balance inside tx and records entry.
func (l *CurrencyLedger) CreditTx(ctx context.Context, tx *gorm.DB, userID uint, amount int64, entry model.Transaction) (*model.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := l.users.WithTx(tx).Credit(ctx, userID, amount); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	entry.UserID = userID
	entry.Amount = amount
	if entry.Status == "" {
		entry.Status = model.StatusCompleted
	}
	if err := l.transactions.WithTx(tx).Append(ctx, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DebitTx subtracts amount inside tx if the balance covers it, recording entry
// with a negative amount. Nothing is written on ErrInsufficientBalance.
func (l *CurrencyLedger) DebitTx(ctx context.Context, tx *gorm.DB, userID uint, amount int64, entry model.Transaction) (*model.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	ok, err := l.users.WithTx(tx).Debit(ctx, userID, amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, err := l.users.WithTx(tx).FindByID(ctx, userID); repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, ErrInsufficientBalance
	}
	entry.UserID = userID
	entry.Amount = -amount
	if entry.Status == "" {
		entry.Status = model.StatusCompleted
	}
	if err := l.transactions.WithTx(tx).Append(ctx, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// TopUp describes sparks bought outside the core, e.g. with TON.
type TopUp struct {
	UserID      uint
	Sparks      int64
	TonAmount   *decimal.Decimal
	TonHash     string
	FromAddress string
	Description string
}

// CreditTopUp credits an externally paid top-up and returns the new balance.
func (l *CurrencyLedger) CreditTopUp(ctx context.Context, in TopUp) (*model.Transaction, int64, error) {
	entry := model.Transaction{
		Type:        model.TxPurchase,
		Method:      model.MethodTON,
		Description: in.Description,
	}
	if entry.Description == "" {
		entry.Description = fmt.Sprintf("Top-up of %d sparks", in.Sparks)
	}
	if in.TonHash != "" {
		entry.TonTransactionHash = &in.TonHash
	}
	if in.FromAddress != "" {
		entry.TonFromAddress = &in.FromAddress
	}
	if in.TonAmount != nil {
		entry.TonAmount = decimal.NewNullDecimal(*in.TonAmount)
	}

	var (
		saved   *model.Transaction
		balance int64
	)
	err := repository.InTx(ctx, l.db, func(tx *gorm.DB) error {
		if in.TonHash != "" {
			existing, err := l.transactions.WithTx(tx).FindByTonHash(ctx, in.TonHash)
			switch {
			case err == nil:
				return fmt.Errorf("%w: hash %s is transaction %s", ErrDuplicateTopUp, in.TonHash, existing.Reference)
			case !repository.IsNotFound(err):
				return fmt.Errorf("find top-up by hash: %w", err)
			}
		}
		var err error
		saved, err = l.CreditTx(ctx, tx, in.UserID, in.Sparks, entry)
		if err != nil {
			return err
		}
		balance, err = l.users.WithTx(tx).Balance(ctx, in.UserID)
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	metrics.SparksCredited.WithLabelValues("topup").Add(float64(in.Sparks))
	l.log.Info("top-up credited",
		zap.Uint("user_id", in.UserID),
		zap.Int64("sparks", in.Sparks),
		zap.String("reference", saved.Reference))
	return saved, balance, nil
}

// History returns the user's most recent transactions.
func (l *CurrencyLedger) History(ctx context.Context, userID uint, limit int) ([]model.Transaction, error) {
	return l.transactions.ListByUser(ctx, userID, limit)
}
