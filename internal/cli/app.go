package cli

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"sparks/internal/clock"
	"sparks/internal/config"
	"sparks/internal/logger"
	"sparks/internal/repository"
	"sparks/internal/service"
)

// app holds the wired core shared by every subcommand.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	db       *gorm.DB
	calendar *clock.Calendar

	users        *service.UserService
	ledger       *service.CurrencyLedger
	entitlements *service.EntitlementService
	bonus        *service.BonusService
	tasks        *service.TaskService
	categories   *service.CategoryService
	reminders    *service.ReminderService
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding})

	loc, err := cfg.Economy.Location()
	if err != nil {
		return nil, err
	}

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	a := &app{cfg: cfg, log: log, db: db, calendar: clock.NewCalendar(loc, nil)}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	localizer := service.NewTranslationService(repository.NewTranslationRepository(db), cfg.Economy.FallbackLanguage, log)

	a.users = service.NewUserService(userRepo)
	a.ledger = service.NewCurrencyLedger(db, userRepo, repository.NewTransactionRepository(db), log)
	a.entitlements = service.NewEntitlementService(db, repository.NewEntitlementRepository(db), a.ledger, a.calendar, cfg.Economy.FreeTasksPerDay, log)
	a.bonus = service.NewBonusService(db, repository.NewBonusRepository(db), a.ledger, a.calendar, cfg.Economy.BonusTable, log)
	a.categories = service.NewCategoryService(categoryRepo, localizer)
	a.reminders = service.NewReminderService(a.entitlements, a.bonus)
	a.tasks = service.NewTaskService(service.TaskServiceDeps{
		DB:           db,
		Tasks:        repository.NewTaskRepository(db),
		Categories:   categoryRepo,
		Completions:  repository.NewCompletionRepository(db),
		Users:        userRepo,
		Entitlements: a.entitlements,
		Localizer:    localizer,
		ExtraCost:    cfg.Economy.ExtraTaskCost,
		Policy:       service.EmptyInterestsSeeAll,
		Log:          log,
	})
	return a, nil
}

func (a *app) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
	_ = a.log.Sync()
}
