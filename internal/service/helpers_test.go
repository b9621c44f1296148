package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"sparks/internal/clock"
	"sparks/internal/config"
	"sparks/internal/model"
	"sparks/internal/repository"
)

var msk = time.FixedZone("MSK", 3*60*60)

type testEnv struct {
	db       *gorm.DB
	now      time.Time
	calendar *clock.Calendar

	users        *repository.UserRepository
	tasksRepo    *repository.TaskRepository
	categoryRepo *repository.CategoryRepository
	translations *repository.TranslationRepository
	completions  *repository.CompletionRepository
	entRepo      *repository.EntitlementRepository
	bonusRepo    *repository.BonusRepository
	txRepo       *repository.TransactionRepository

	ledger       *CurrencyLedger
	entitlements *EntitlementService
	bonus        *BonusService
	tasks        *TaskService

	ru, en   model.Language
	category model.Category

	taskSeq int
	userSeq int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "sparks.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewDB() error: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	env := &testEnv{
		db:  db,
		now: time.Date(2025, 6, 1, 12, 0, 0, 0, msk),
	}
	env.calendar = clock.NewCalendar(msk, func() time.Time { return env.now })

	env.users = repository.NewUserRepository(db)
	env.tasksRepo = repository.NewTaskRepository(db)
	env.categoryRepo = repository.NewCategoryRepository(db)
	env.translations = repository.NewTranslationRepository(db)
	env.completions = repository.NewCompletionRepository(db)
	env.entRepo = repository.NewEntitlementRepository(db)
	env.bonusRepo = repository.NewBonusRepository(db)
	env.txRepo = repository.NewTransactionRepository(db)

	economy := config.DefaultEconomy()
	env.ledger = NewCurrencyLedger(db, env.users, env.txRepo, nil)
	env.entitlements = NewEntitlementService(db, env.entRepo, env.ledger, env.calendar, economy.FreeTasksPerDay, nil)
	env.bonus = NewBonusService(db, env.bonusRepo, env.ledger, env.calendar, economy.BonusTable, nil)
	env.tasks = NewTaskService(TaskServiceDeps{
		DB:           db,
		Tasks:        env.tasksRepo,
		Categories:   env.categoryRepo,
		Completions:  env.completions,
		Users:        env.users,
		Entitlements: env.entitlements,
		Localizer:    NewTranslationService(env.translations, economy.FallbackLanguage, nil),
		ExtraCost:    economy.ExtraTaskCost,
	})

	ctx := context.Background()
	env.ru = model.Language{Code: "ru", Name: "Русский"}
	env.en = model.Language{Code: "en", Name: "English"}
	for _, lang := range []*model.Language{&env.ru, &env.en} {
		if err := env.translations.CreateLanguage(ctx, lang); err != nil {
			t.Fatalf("CreateLanguage() error: %v", err)
		}
	}
	env.category = env.newCategory(t, "romance", "#ff0066")
	return env
}

func (e *testEnv) advanceDays(n int) {
	e.now = e.now.AddDate(0, 0, n)
}

func (e *testEnv) newCategory(t *testing.T, slug, color string) model.Category {
	t.Helper()
	c := model.Category{
		Slug:  slug,
		Color: color,
		Translations: []model.CategoryTranslation{
			{LanguageID: e.ru.ID, Name: slug + "-ru"},
		},
	}
	if err := e.categoryRepo.Create(context.Background(), &c); err != nil {
		t.Fatalf("create category: %v", err)
	}
	return c
}

func (e *testEnv) newUser(t *testing.T, gender model.Gender, balance int64) *model.User {
	t.Helper()
	e.userSeq++
	u := &model.User{
		TelegramID: 1000 + e.userSeq,
		FirstName:  "Test",
		Gender:     gender,
		LanguageID: e.ru.ID,
		Balance:    balance,
		IsActive:   true,
	}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

type taskOpt func(*model.Task)

func inCategory(id uint) taskOpt {
	return func(task *model.Task) { task.CategoryID = id }
}

func withTargets(targets ...model.GenderTarget) taskOpt {
	return func(task *model.Task) {
		task.GenderTargets = nil
		for _, g := range targets {
			task.GenderTargets = append(task.GenderTargets, model.TaskGenderTarget{Gender: g})
		}
	}
}

func withText(languageID uint, title string) taskOpt {
	return func(task *model.Task) {
		task.Translations = []model.TaskTranslation{
			{LanguageID: languageID, Title: title, Description: title + " description"},
		}
	}
}

func withoutText() taskOpt {
	return func(task *model.Task) { task.Translations = nil }
}

// newTask creates an active task for everyone with Russian text. Each call
// is one minute newer than the previous one.
func (e *testEnv) newTask(t *testing.T, opts ...taskOpt) *model.Task {
	t.Helper()
	e.taskSeq++
	task := &model.Task{
		CategoryID:    e.category.ID,
		IsActive:      true,
		CreatedAt:     time.Date(2025, 1, 1, 0, e.taskSeq, 0, 0, time.UTC),
		GenderTargets: []model.TaskGenderTarget{{Gender: model.TargetAll}},
		Translations: []model.TaskTranslation{
			{LanguageID: e.ru.ID, Title: "task", Description: "task description"},
		},
	}
	for _, opt := range opts {
		opt(task)
	}
	if err := e.tasksRepo.Create(context.Background(), task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func (e *testEnv) entitlement(t *testing.T, userID uint) *model.DailyEntitlement {
	t.Helper()
	row, err := e.entRepo.Find(context.Background(), userID, e.calendar.Today())
	if err != nil {
		t.Fatalf("find entitlement: %v", err)
	}
	return row
}

func (e *testEnv) balance(t *testing.T, userID uint) int64 {
	t.Helper()
	b, err := e.users.Balance(context.Background(), userID)
	if err != nil {
		t.Fatalf("Balance() error: %v", err)
	}
	return b
}

func (e *testEnv) count(t *testing.T, m interface{}, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(m).Where(where, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
