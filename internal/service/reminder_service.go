package service

import (
	"context"
	"fmt"
	"strings"

	"sparks/internal/model"
)

// ReminderService builds the morning digest sent through the bot.
type ReminderService struct {
	entitlements *EntitlementService
	bonus        *BonusService
}

func NewReminderService(entitlements *EntitlementService, bonus *BonusService) *ReminderService {
	return &ReminderService{entitlements: entitlements, bonus: bonus}
}

// DailySummary describes today's free tasks and the bonus streak for user.
func (s *ReminderService) DailySummary(ctx context.Context, user *model.User) (string, error) {
	summary, err := s.entitlements.Summary(ctx, user.ID)
	if err != nil {
		return "", err
	}
	status, err := s.bonus.Status(ctx, user.ID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("✨ <b>Sparks на сегодня</b>\n")
	b.WriteString(fmt.Sprintf("🗓 %s\n\n", summary.Day.In(summary.ResetAt.Location()).Format("02.01.2006")))
	b.WriteString(fmt.Sprintf("🎯 Бесплатных заданий: <b>%d</b>\n", summary.FreeRemaining))
	if summary.PaidAvailable > 0 {
		b.WriteString(fmt.Sprintf("💎 Платных заданий: <b>%d</b>\n", summary.PaidAvailable))
	}
	b.WriteString(fmt.Sprintf("💰 Баланс: <b>%d</b> искр\n", user.Balance))
	if status.CanClaim {
		b.WriteString(fmt.Sprintf("\n🎁 Бонус дня %d ждёт: +%d искр", status.DayNumber, status.BonusAmount))
	} else {
		b.WriteString(fmt.Sprintf("\n✅ Бонус дня %d получен", status.DayNumber))
	}
	return strings.TrimSpace(b.String()), nil
}
