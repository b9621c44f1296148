package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"sparks/internal/model"
	"sparks/internal/service"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if msg.IsCommand() {
		b.log.Debug("command",
			zap.Int64("telegram_id", msg.From.ID),
			zap.String("command", msg.Command()),
			zap.String("args", msg.CommandArguments()))
		return b.handleCommand(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}
	return b.sendText(msg.Chat.ID, "Я пока не понял сообщение. Набери /help для списка команд.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "tasks":
		return b.handleListTasks(ctx, msg.Chat.ID, msg.From)
	case "complete":
		return b.handleComplete(ctx, msg)
	case "buy":
		return b.askPurchase(ctx, msg.Chat.ID, msg.From)
	case "bonus":
		return b.handleBonus(ctx, msg.Chat.ID, msg.From)
	case "balance":
		return b.handleBalance(ctx, msg.Chat.ID, msg.From)
	case "categories":
		return b.handleCategories(ctx, msg)
	case "report":
		return b.handleReport(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Команда не поддерживается. Загляни в /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "друг"
	}

	text := fmt.Sprintf(
		"👋 Привет, %s!\n<b>Sparks — задания для пар.</b>\n\n"+
			"Каждый день доступно %d бесплатных задания, а за ежедневный вход начисляются искры.\n"+
			"Открой приложение, чтобы выбрать интересы и начать.",
		escape(name), b.deps.Entitlements.FreeLimit(),
	)

	if _, err := b.user(ctx, msg.From); err == nil {
		text += "\n\nКоманды: /tasks, /bonus, /balance, /help"
	}

	if b.deps.AppURL == "" {
		return b.sendText(msg.Chat.ID, text)
	}
	return b.sendWithReplyMarkup(msg.Chat.ID, text, appKeyboard(b.deps.AppURL))
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Подсказки</b>\n" +
		"• /tasks — задания на сегодня, выполнить по кнопке\n" +
		"• /complete &lt;id&gt; — отметить задание по номеру\n" +
		fmt.Sprintf("• /buy — купить дополнительное задание за %d искр\n", b.deps.Tasks.ExtraCost()) +
		"• /bonus — забрать ежедневный бонус\n" +
		"• /balance — баланс и история искр\n" +
		"• /categories — категории заданий\n" +
		"• /report — сводка на сегодня"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleListTasks(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	user, err := b.user(ctx, from)
	if err != nil {
		return b.userError(chatID, err)
	}
	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User) error {
	page, err := b.deps.Tasks.EligibleTasks(ctx, user, service.TaskQuery{Limit: 20})
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось получить задания: %s", escape(err.Error())))
	}

	text, buttons := formatTaskPage(page, b.deps.Tasks.ExtraCost())
	if len(buttons) == 0 {
		return b.sendText(chatID, text)
	}
	return b.sendWithReplyMarkup(chatID, text, tgbotapi.NewInlineKeyboardMarkup(buttons...))
}

func (b *Bot) handleComplete(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "Укажи ID задания: /complete 12")
	}
	taskID, err := strconv.ParseUint(args, 10, 64)
	if err != nil {
		return b.sendText(msg.Chat.ID, "ID задания должен быть числом.")
	}
	return b.completeTask(ctx, msg.Chat.ID, msg.From, uint(taskID))
}

func (b *Bot) completeTask(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.user(ctx, from)
	if err != nil {
		return b.userError(chatID, err)
	}

	res, err := b.deps.Tasks.CompleteTask(ctx, user, taskID)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrTaskNotFound):
		return b.sendText(chatID, "Задание не найдено.")
	case errors.Is(err, service.ErrAlreadyCompleted):
		return b.sendText(chatID, "Задание уже выполнено.")
	case errors.Is(err, service.ErrEntitlementExhausted):
		return b.sendWithReplyMarkup(chatID,
			fmt.Sprintf("Бесплатные задания закончились. Купи дополнительное задание за %d искр.", b.deps.Tasks.ExtraCost()),
			buyKeyboard(b.deps.Tasks.ExtraCost()))
	default:
		return b.sendText(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}

	info := "✅ Задание выполнено!"
	if res.Slot == service.SlotPaid {
		info = "✅ Дополнительное задание выполнено!"
	}
	if err := b.sendText(chatID, info); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) askPurchase(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	user, err := b.user(ctx, from)
	if err != nil {
		return b.userError(chatID, err)
	}
	balance, err := b.deps.Users.Balance(ctx, user.ID)
	if err != nil {
		return err
	}
	cost := b.deps.Tasks.ExtraCost()
	if balance < cost {
		return b.sendText(chatID, fmt.Sprintf("Недостаточно искр: нужно %d, на балансе %d.", cost, balance))
	}

	b.setPending(from.ID, cbBuy)
	text := fmt.Sprintf("Купить дополнительное задание за %d искр? На балансе %d.", cost, balance)
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) purchase(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	user, err := b.user(ctx, from)
	if err != nil {
		return b.userError(chatID, err)
	}
	res, err := b.deps.Tasks.PurchaseExtraTask(ctx, user)
	if errors.Is(err, service.ErrInsufficientBalance) {
		return b.sendText(chatID, "Недостаточно искр для покупки задания.")
	}
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}
	text := fmt.Sprintf("💎 Дополнительное задание куплено. Баланс: <b>%d</b>, доступно платных: <b>%d</b>.",
		res.Balance, res.PaidAvailable)
	if err := b.sendText(chatID, text); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) handleBonus(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	user, err := b.user(ctx, from)
	if err != nil {
		return b.userError(chatID, err)
	}
	res, err := b.deps.Bonus.Claim(ctx, user.ID)
	if errors.Is(err, service.ErrAlreadyClaimedToday) {
		status, serr := b.deps.Bonus.Status(ctx, user.ID)
		if serr != nil {
			return serr
		}
		return b.sendText(chatID, formatBonusStatus(status))
	}
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}
	return b.sendText(chatID, fmt.Sprintf("🎁 День %d: +%d искр! Баланс: <b>%d</b>.",
		res.DayNumber, res.BonusAmount, res.NewBalance))
}

func (b *Bot) handleBalance(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	user, err := b.user(ctx, from)
	if err != nil {
		return b.userError(chatID, err)
	}
	balance, err := b.deps.Users.Balance(ctx, user.ID)
	if err != nil {
		return err
	}
	summary, err := b.deps.Entitlements.Summary(ctx, user.ID)
	if err != nil {
		return err
	}
	return b.sendText(chatID, formatBalance(balance, summary))
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.user(ctx, msg.From)
	if err != nil {
		return b.userError(msg.Chat.ID, err)
	}
	categories, err := b.deps.Categories.List(ctx, user)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось получить категории: %s", escape(err.Error())))
	}
	if len(categories) == 0 {
		return b.sendText(msg.Chat.ID, "Категорий пока нет.")
	}
	var sb strings.Builder
	sb.WriteString("📂 <b>Категории</b>\n")
	for _, c := range categories {
		sb.WriteString(fmt.Sprintf("• %s\n", escape(c.Name)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.user(ctx, msg.From)
	if err != nil {
		return b.userError(msg.Chat.ID, err)
	}
	text, err := b.deps.Reminders.DailySummary(ctx, user)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось сформировать сводку: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	chatID := cb.Message.Chat.ID
	data := cb.Data
	b.log.Debug("callback", zap.Int64("telegram_id", cb.From.ID), zap.String("data", data))

	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		b.ack(cb, "")
		taskID, err := parseTaskID(data, cbCompletePrefix)
		if err != nil {
			return nil
		}
		return b.completeTask(ctx, chatID, cb.From, taskID)
	case data == cbBuy:
		b.ack(cb, "")
		return b.askPurchase(ctx, chatID, cb.From)
	case data == cbBuyConfirm:
		b.ack(cb, "")
		if action, ok := b.takePending(cb.From.ID); !ok || action != cbBuy {
			return b.sendText(chatID, "Нет покупки для подтверждения.")
		}
		return b.purchase(ctx, chatID, cb.From)
	case data == cbBuyCancel:
		b.takePending(cb.From.ID)
		b.ack(cb, "Отменено")
		return nil
	case data == cbBonus:
		b.ack(cb, "")
		return b.handleBonus(ctx, chatID, cb.From)
	default:
		b.ack(cb, "")
		return nil
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelTasks):
		return true, b.handleListTasks(ctx, msg.Chat.ID, msg.From)
	case strings.ToLower(menuLabelBonus):
		return true, b.handleBonus(ctx, msg.Chat.ID, msg.From)
	case strings.ToLower(menuLabelBalance):
		return true, b.handleBalance(ctx, msg.Chat.ID, msg.From)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

// user resolves a registered, active user and refreshes their Telegram name.
func (b *Bot) user(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.deps.Users.SyncProfile(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) userError(chatID int64, err error) error {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		text := "Сначала открой приложение Sparks, чтобы зарегистрироваться."
		if b.deps.AppURL != "" {
			return b.sendWithReplyMarkup(chatID, text, appKeyboard(b.deps.AppURL))
		}
		return b.sendText(chatID, text)
	case errors.Is(err, service.ErrUserInactive):
		return b.sendText(chatID, "Аккаунт отключён.")
	default:
		return err
	}
}

func parseTaskID(data, prefix string) (uint, error) {
	raw := strings.TrimPrefix(data, prefix)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}
