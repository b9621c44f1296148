package service

import (
	"context"
	"errors"
	"testing"

	"sparks/internal/model"
)

func TestUserService_Resolve(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	users := NewUserService(env.users)

	active := env.newUser(t, model.GenderFemale, 0)
	inactive := env.newUser(t, model.GenderMale, 0)
	if err := env.users.SetActive(ctx, inactive.ID, false); err != nil {
		t.Fatalf("SetActive() error: %v", err)
	}
	wallet := "EQ-wallet"
	if err := env.db.Model(active).Update("wallet_address", wallet).Error; err != nil {
		t.Fatalf("set wallet: %v", err)
	}

	if u, err := users.ByTelegramID(ctx, active.TelegramID); err != nil || u.ID != active.ID {
		t.Errorf("ByTelegramID(active) = %v, %v", u, err)
	}
	if _, err := users.ByTelegramID(ctx, inactive.TelegramID); !errors.Is(err, ErrUserInactive) {
		t.Errorf("ByTelegramID(inactive) error = %v, want ErrUserInactive", err)
	}
	if _, err := users.ByTelegramID(ctx, -1); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("ByTelegramID(unknown) error = %v, want ErrUserNotFound", err)
	}
	if u, err := users.ByWallet(ctx, " "+wallet+" "); err != nil || u.ID != active.ID {
		t.Errorf("ByWallet() = %v, %v", u, err)
	}
	if _, err := users.ByWallet(ctx, ""); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("ByWallet(empty) error = %v, want ErrUserNotFound", err)
	}

	u, err := users.SyncProfile(ctx, active.TelegramID, "Anna", "K", "anna")
	if err != nil {
		t.Fatalf("SyncProfile() error: %v", err)
	}
	if u.FirstName != "Anna" || u.Username != "anna" {
		t.Errorf("SyncProfile() = %+v", u)
	}
}
