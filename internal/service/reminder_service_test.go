package service

import (
	"context"
	"strings"
	"testing"

	"sparks/internal/model"
)

func TestDailySummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reminders := NewReminderService(env.entitlements, env.bonus)
	user := env.newUser(t, model.GenderCouple, 30)

	text, err := reminders.DailySummary(ctx, user)
	if err != nil {
		t.Fatalf("DailySummary() error: %v", err)
	}
	for _, want := range []string{"01.06.2025", "<b>3</b>", "+10"} {
		if !strings.Contains(text, want) {
			t.Errorf("summary lacks %q:\n%s", want, text)
		}
	}

	if _, err := env.bonus.Claim(ctx, user.ID); err != nil {
		t.Fatalf("Claim() error: %v", err)
	}
	text, err = reminders.DailySummary(ctx, user)
	if err != nil {
		t.Fatalf("DailySummary() error: %v", err)
	}
	if !strings.Contains(text, "получен") {
		t.Errorf("summary after claim should mark the bonus as received:\n%s", text)
	}
}
