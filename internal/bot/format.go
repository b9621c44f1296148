package bot

import (
	"fmt"
	"html"
	"strings"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sparks/internal/config"
	"sparks/internal/service"
)

const (
	iconFree = "🟢"
	iconPaid = "💎"
)

// formatTaskPage renders today's feed with one complete button per task.
func formatTaskPage(page *service.TaskPage, extraCost int64) (string, [][]tgbotapi.InlineKeyboardButton) {
	var sb strings.Builder
	var buttons [][]tgbotapi.InlineKeyboardButton

	if len(page.Tasks) == 0 {
		if page.FreeRemaining == 0 && page.PaidAvailable == 0 && page.Total > 0 {
			sb.WriteString("На сегодня бесплатные задания закончились.\n")
			sb.WriteString(fmt.Sprintf("Купи дополнительное задание за %d искр или возвращайся завтра.", extraCost))
			buttons = append(buttons, buyRow(extraCost))
			return sb.String(), buttons
		}
		return "Новых заданий пока нет. Загляни позже!", nil
	}

	sb.WriteString("🎯 <b>Задания на сегодня</b>\n")
	sb.WriteString(fmt.Sprintf("Бесплатных осталось: <b>%d</b>", page.FreeRemaining))
	if page.PaidAvailable > 0 {
		sb.WriteString(fmt.Sprintf(" · платных: <b>%d</b>", page.PaidAvailable))
	}
	sb.WriteString("\n\n")

	for _, it := range page.Tasks {
		icon := iconFree
		if !it.IsFree {
			icon = iconPaid
		}
		sb.WriteString(fmt.Sprintf("%s <b>#%d</b> %s\n", icon, it.ID, escape(normalizeTitle(it.Title))))
		sb.WriteString(fmt.Sprintf("   🏷 %s\n", escape(it.Category.Name)))
		if it.Description != "" {
			sb.WriteString(fmt.Sprintf("   📝 %s\n", escape(it.Description)))
		}
		sb.WriteByte('\n')
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✅ #%d · %s", it.ID, shortTitle(it.Title, 24)),
				fmt.Sprintf("%s%d", cbCompletePrefix, it.ID)),
		))
	}
	if page.Total > int64(len(page.Tasks)) {
		buttons = append(buttons, buyRow(extraCost))
	}
	return strings.TrimSpace(sb.String()), buttons
}

func formatBonusStatus(st *service.BonusStatus) string {
	var sb strings.Builder
	sb.WriteString("🎁 <b>Ежедневный бонус</b>\n")
	for day := 1; day <= config.BonusDays; day++ {
		mark := "▫️"
		for _, claimed := range st.ClaimedDays {
			if claimed == day {
				mark = "✅"
				break
			}
		}
		sb.WriteString(mark)
	}
	sb.WriteByte('\n')
	if st.IsClaimed {
		sb.WriteString(fmt.Sprintf("Бонус дня %d уже получен. Следующий: %s.",
			st.DayNumber, st.NextResetAt.Format("02.01 15:04")))
	} else {
		sb.WriteString(fmt.Sprintf("День %d: можно забрать +%d искр.", st.DayNumber, st.BonusAmount))
	}
	return sb.String()
}

func formatBalance(balance int64, summary service.Summary) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("💰 Баланс: <b>%d</b> искр\n", balance))
	sb.WriteString(fmt.Sprintf("🎯 Бесплатных заданий сегодня: <b>%d</b>\n", summary.FreeRemaining))
	if summary.PaidAvailable > 0 {
		sb.WriteString(fmt.Sprintf("💎 Платных заданий: <b>%d</b>\n", summary.PaidAvailable))
	}
	sb.WriteString(fmt.Sprintf("⏰ Обновление: %s", summary.ResetAt.Format("02.01 15:04")))
	return sb.String()
}

func buyRow(extraCost int64) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("💎 Ещё задание за %d искр", extraCost), cbBuy),
	)
}

func buyKeyboard(extraCost int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(buyRow(extraCost))
}

func confirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить", cbBuyConfirm),
			tgbotapi.NewInlineKeyboardButtonData("↩️ Отмена", cbBuyCancel),
		),
	)
}

func appKeyboard(appURL string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("✨ Открыть Sparks", appURL),
		),
	)
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelTasks),
			tgbotapi.NewKeyboardButton(menuLabelBonus),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelBalance),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(title)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
