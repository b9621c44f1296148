package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"sparks/internal/service"
)

const (
	cbCompletePrefix = "complete:"
	cbBuy            = "buy"
	cbBuyConfirm     = "buy:confirm"
	cbBuyCancel      = "buy:cancel"
	cbBonus          = "bonus"
)

const (
	menuLabelTasks   = "🎯 Задания"
	menuLabelBonus   = "🎁 Бонус"
	menuLabelBalance = "💰 Баланс"
	menuLabelHelp    = "ℹ️ Помощь"
)

// sender is the subset of the Telegram client used to reply.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Deps are the core services the bot exposes to chat users.
type Deps struct {
	Users        *service.UserService
	Tasks        *service.TaskService
	Entitlements *service.EntitlementService
	Bonus        *service.BonusService
	Categories   *service.CategoryService
	Reminders    *service.ReminderService
	AppURL       string
}

// Bot aggregates Telegram API with services.
type Bot struct {
	client *tgbotapi.BotAPI
	api    sender
	deps   Deps
	log    *zap.Logger

	mu      sync.Mutex
	pending map[int64]string
}

func New(token string, deps Deps, log *zap.Logger) (*Bot, error) {
	client, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	b := newBot(client, deps, log)
	b.client = client
	b.log.Info("bot authorized", zap.String("account", client.Self.UserName))
	return b, nil
}

func newBot(api sender, deps Deps, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		api:     api,
		deps:    deps,
		log:     log.Named("bot"),
		pending: make(map[int64]string),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.client == nil {
		return fmt.Errorf("bot has no telegram client")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.client.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.client.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	log := b.log.With(zap.Int("update_id", update.UpdateID))
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			log.Error("handle callback", zap.Error(err))
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			log.Error("handle message", zap.Error(err))
		}
	}
}

// SendDailyReports sends the morning digest to every active user.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.deps.Users.ListActive(ctx)
	if err != nil {
		return err
	}
	sent := 0
	for i := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		user := &users[i]
		text, err := b.deps.Reminders.DailySummary(ctx, user)
		if err != nil {
			b.log.Warn("build summary", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
			continue
		}
		if err := b.sendText(user.TelegramID, text); err != nil {
			b.log.Warn("send summary", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
			continue
		}
		sent++
	}
	b.log.Info("daily reports sent", zap.Int("sent", sent), zap.Int("users", len(users)))
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) ack(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		b.log.Warn("callback ack", zap.Error(err))
	}
}

func (b *Bot) setPending(userID int64, action string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[userID] = action
}

// takePending returns and clears the action awaiting confirmation.
func (b *Bot) takePending(userID int64) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	action, ok := b.pending[userID]
	delete(b.pending, userID)
	return action, ok
}
