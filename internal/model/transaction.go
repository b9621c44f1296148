package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxPurchase    TransactionType = "purchase"
	TxTaskPayment TransactionType = "task_payment"
	TxBonus       TransactionType = "bonus"
	TxRefund      TransactionType = "refund"
)

type PaymentMethod string

const (
	MethodTON        PaymentMethod = "ton"
	MethodDailyBonus PaymentMethod = "daily_bonus"
	MethodSystem     PaymentMethod = "system"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
	StatusRefunded  TransactionStatus = "refunded"
)

// Transaction is an append-only audit row for every balance change.
// Positive Amount credits the user, negative debits.
type Transaction struct {
	ID                 uint                `gorm:"primaryKey"`
	Reference          string              `gorm:"size:36;uniqueIndex"`
	UserID             uint                `gorm:"index"`
	Amount             int64               `gorm:"not null"`
	Type               TransactionType     `gorm:"size:32;not null"`
	Method             PaymentMethod       `gorm:"size:32"`
	Status             TransactionStatus   `gorm:"size:16;not null;default:pending"`
	Description        string              `gorm:"size:500"`
	TonTransactionHash *string             `gorm:"size:64;uniqueIndex"`
	TonFromAddress     *string             `gorm:"size:48"`
	TonToAddress       *string             `gorm:"size:48"`
	TonAmount          decimal.NullDecimal `gorm:"type:text"`
	CreatedAt          time.Time           `gorm:"index"`
}
