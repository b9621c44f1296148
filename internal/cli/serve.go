package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sparks/internal/api"
	"sparks/internal/bot"
	"sparks/internal/config"
	"sparks/internal/service"
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides HTTP_ADDR)")
	serveCmd.Flags().BoolVar(&serveNoBot, "no-bot", false, "Do not start the Telegram bot")
	rootCmd.AddCommand(serveCmd)
}

var (
	serveAddr  string
	serveNoBot bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server, scheduler and Telegram bot",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if serveAddr != "" {
		a.cfg.HTTPAddr = serveAddr
	}

	var telegramBot *bot.Bot
	if a.cfg.BotEnabled() && !serveNoBot {
		telegramBot, err = bot.New(a.cfg.TelegramToken, bot.Deps{
			Users:        a.users,
			Tasks:        a.tasks,
			Entitlements: a.entitlements,
			Bonus:        a.bonus,
			Categories:   a.categories,
			Reminders:    a.reminders,
			AppURL:       a.cfg.AppURL,
		}, a.log)
		if err != nil {
			return err
		}
	}

	scheduler := service.NewSchedulerService(a.calendar.Location(), a.log)
	if _, err := scheduler.ScheduleDaily("daily-reset", config.ResetTime, time.Minute, func(ctx context.Context) error {
		_, err := a.entitlements.ResetToday(ctx)
		return err
	}); err != nil {
		return err
	}
	if telegramBot != nil && a.cfg.RemindersEnabled() {
		if _, err := scheduler.ScheduleDaily("daily-reports", a.cfg.ReminderTime, 5*time.Minute, telegramBot.SendDailyReports); err != nil {
			return err
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := api.NewServer(api.Services{
		Users:        a.users,
		Tasks:        a.tasks,
		Entitlements: a.entitlements,
		Bonus:        a.bonus,
		Categories:   a.categories,
		Ledger:       a.ledger,
	}, a.cfg.APIPrefix, a.log)
	if a.cfg.MetricsEnabled {
		srv.EnableMetrics()
	}
	httpServer := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		a.log.Info("http server listening", zap.String("addr", a.cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	if telegramBot != nil {
		go func() {
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- err
			}
		}()
	} else {
		a.log.Info("telegram bot disabled")
	}

	select {
	case <-ctx.Done():
	case err = <-errCh:
		a.log.Error("component stopped", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := httpServer.Shutdown(shutdownCtx); serr != nil {
		a.log.Warn("http shutdown", zap.Error(serr))
	}
	a.log.Info("shutdown complete")
	return err
}
