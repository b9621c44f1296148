package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"sparks/internal/model"
)

func TestCreditTopUp(t *testing.T) {
	env := newTestEnv(t)
	user := env.newUser(t, model.GenderCouple, 5)
	ton := decimal.RequireFromString("1.25")

	tx, balance, err := env.ledger.CreditTopUp(context.Background(), TopUp{
		UserID:      user.ID,
		Sparks:      100,
		TonAmount:   &ton,
		TonHash:     "abc123",
		FromAddress: "EQ-sender",
	})
	if err != nil {
		t.Fatalf("CreditTopUp() error: %v", err)
	}
	if balance != 105 {
		t.Errorf("balance = %d, want 105", balance)
	}
	if tx.Reference == "" || tx.Type != model.TxPurchase || tx.Method != model.MethodTON {
		t.Errorf("transaction = %+v", tx)
	}

	history, err := env.ledger.History(context.Background(), user.ID, 10)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history has %d entries, want 1", len(history))
	}
	got := history[0]
	if !got.TonAmount.Valid || !got.TonAmount.Decimal.Equal(ton) {
		t.Errorf("TonAmount = %v, want 1.25", got.TonAmount)
	}
	if got.TonTransactionHash == nil || *got.TonTransactionHash != "abc123" {
		t.Errorf("TonTransactionHash = %v, want abc123", got.TonTransactionHash)
	}
	if got.Status != model.StatusCompleted {
		t.Errorf("Status = %s, want completed", got.Status)
	}
}

func TestCreditTopUp_Rejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.newUser(t, model.GenderCouple, 0)

	if _, _, err := env.ledger.CreditTopUp(ctx, TopUp{UserID: user.ID, Sparks: 0}); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero top-up error = %v, want ErrInvalidAmount", err)
	}
	if _, _, err := env.ledger.CreditTopUp(ctx, TopUp{UserID: 9999, Sparks: 10}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user error = %v, want ErrUserNotFound", err)
	}
	if n := env.count(t, &model.Transaction{}, "1 = 1"); n != 0 {
		t.Errorf("transactions = %d, want 0", n)
	}
}

func TestCreditTopUp_SameHashCreditsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.newUser(t, model.GenderCouple, 0)
	in := TopUp{UserID: user.ID, Sparks: 50, TonHash: "dup-hash"}

	if _, _, err := env.ledger.CreditTopUp(ctx, in); err != nil {
		t.Fatalf("first CreditTopUp() error: %v", err)
	}
	if _, _, err := env.ledger.CreditTopUp(ctx, in); !errors.Is(err, ErrDuplicateTopUp) {
		t.Fatalf("second CreditTopUp() error = %v, want ErrDuplicateTopUp", err)
	}
	if got := env.balance(t, user.ID); got != 50 {
		t.Errorf("balance = %d, want 50", got)
	}
	if n := env.count(t, &model.Transaction{}, "ton_transaction_hash = ?", "dup-hash"); n != 1 {
		t.Errorf("transactions with hash = %d, want 1", n)
	}

	// Top-ups without a hash are not deduplicated.
	for i := 0; i < 2; i++ {
		if _, _, err := env.ledger.CreditTopUp(ctx, TopUp{UserID: user.ID, Sparks: 5}); err != nil {
			t.Fatalf("CreditTopUp() without hash error: %v", err)
		}
	}
	if got := env.balance(t, user.ID); got != 60 {
		t.Errorf("balance = %d, want 60", got)
	}
}

func TestHistory_NewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.newUser(t, model.GenderCouple, 0)

	if _, err := env.bonus.Claim(ctx, user.ID); err != nil {
		t.Fatalf("Claim() error: %v", err)
	}
	if _, err := env.entitlements.PurchaseSlot(ctx, user.ID, 10); err != nil {
		t.Fatalf("PurchaseSlot() error: %v", err)
	}

	history, err := env.ledger.History(ctx, user.ID, 0)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history has %d entries, want 2", len(history))
	}
	if history[0].Amount != -10 || history[1].Amount != 10 {
		t.Errorf("amounts = %d, %d, want -10 then 10", history[0].Amount, history[1].Amount)
	}
}
