package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"sparks/internal/metrics"
	"sparks/internal/model"
	"sparks/internal/repository"
)

const defaultCategoryColor = "#000000"

// InterestPolicy decides what a user with no declared interests is shown.
type InterestPolicy int

const (
	// EmptyInterestsSeeAll applies no category restriction.
	EmptyInterestsSeeAll InterestPolicy = iota
	// EmptyInterestsSeeNone hides every task until interests are declared.
	EmptyInterestsSeeNone
)

// TaskQuery is a page request for the task feed.
type TaskQuery struct {
	CategoryID uint
	Limit      int
	Offset     int
}

// CategoryRef is the category block attached to each task item.
type CategoryRef struct {
	ID    uint
	Name  string
	Color string
}

// TaskItem is one localized task in a listing.
type TaskItem struct {
	ID          uint
	Title       string
	Description string
	Category    CategoryRef
	IsFree      bool
	IsCompleted bool
}

// TaskPage is the feed response. Total counts every eligible task, ignoring
// pagination and today's budget.
type TaskPage struct {
	Tasks         []TaskItem
	Total         int64
	FreeRemaining int
	PaidAvailable int
}

// TaskService filters the catalogue per user and coordinates completions.
type TaskService struct {
	db           *gorm.DB
	tasks        *repository.TaskRepository
	categories   *repository.CategoryRepository
	completions  *repository.CompletionRepository
	users        *repository.UserRepository
	entitlements *EntitlementService
	localizer    Localizer
	extraCost    int64
	policy       InterestPolicy
	log          *zap.Logger
}

// TaskServiceDeps groups the collaborators of TaskService.
type TaskServiceDeps struct {
	DB           *gorm.DB
	Tasks        *repository.TaskRepository
	Categories   *repository.CategoryRepository
	Completions  *repository.CompletionRepository
	Users        *repository.UserRepository
	Entitlements *EntitlementService
	Localizer    Localizer
	ExtraCost    int64
	Policy       InterestPolicy
	Log          *zap.Logger
}

func NewTaskService(d TaskServiceDeps) *TaskService {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskService{
		db:           d.DB,
		tasks:        d.Tasks,
		categories:   d.Categories,
		completions:  d.Completions,
		users:        d.Users,
		entitlements: d.Entitlements,
		localizer:    d.Localizer,
		extraCost:    d.ExtraCost,
		policy:       d.Policy,
		log:          log.Named("tasks"),
	}
}

// ExtraCost is the price of one extra task in sparks.
func (s *TaskService) ExtraCost() int64 {
	return s.extraCost
}

// EligibleTasks lists the tasks the user may do today. The returned page is
// cut to the remaining free plus paid budget; the first FreeRemaining items
// are marked free. Tasks with no usable translation are skipped.
func (s *TaskService) EligibleTasks(ctx context.Context, user *model.User, q TaskQuery) (*TaskPage, error) {
	e, err := s.entitlements.GetOrCreateToday(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	freeRemaining := s.entitlements.RemainingFree(e)
	page := &TaskPage{
		Tasks:         []TaskItem{},
		FreeRemaining: freeRemaining,
		PaidAvailable: e.PaidAvailable,
	}

	interests := user.InterestIDs()
	if len(interests) == 0 && s.policy == EmptyInterestsSeeNone {
		return page, nil
	}

	tasks, total, err := s.tasks.ListEligible(ctx, repository.EligibleFilter{
		UserID:     user.ID,
		Gender:     user.Gender,
		Interests:  interests,
		CategoryID: q.CategoryID,
		Limit:      q.Limit,
		Offset:     q.Offset,
	})
	if err != nil {
		return nil, err
	}
	page.Total = total

	budget := s.entitlements.Budget(e)
	if len(tasks) > budget {
		tasks = tasks[:budget]
	}

	categories, err := s.categories.GetByIDs(ctx, categoryIDs(tasks))
	if err != nil {
		return nil, err
	}

	for _, task := range tasks {
		title, description, err := s.localizer.TaskText(ctx, task.ID, user.LanguageID)
		if errors.Is(err, ErrTranslationMissing) {
			continue
		}
		if err != nil {
			return nil, err
		}
		category, err := s.categoryRef(ctx, categories, task.CategoryID, user.LanguageID)
		if err != nil {
			return nil, err
		}
		page.Tasks = append(page.Tasks, TaskItem{
			ID:          task.ID,
			Title:       title,
			Description: description,
			Category:    category,
			IsFree:      len(page.Tasks) < freeRemaining,
		})
	}
	return page, nil
}

// GetTask returns a single localized task. IsFree reports whether today's
// free budget still has room.
func (s *TaskService) GetTask(ctx context.Context, user *model.User, taskID uint) (*TaskItem, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	title, description, err := s.localizer.TaskText(ctx, task.ID, user.LanguageID)
	if err != nil {
		return nil, err
	}

	completed, err := s.completions.Exists(ctx, user.ID, task.ID)
	if err != nil {
		return nil, err
	}

	e, err := s.entitlements.GetOrCreateToday(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	categories, err := s.categories.GetByIDs(ctx, []uint{task.CategoryID})
	if err != nil {
		return nil, err
	}
	category, err := s.categoryRef(ctx, categories, task.CategoryID, user.LanguageID)
	if err != nil {
		return nil, err
	}

	return &TaskItem{
		ID:          task.ID,
		Title:       title,
		Description: description,
		Category:    category,
		IsFree:      s.entitlements.RemainingFree(e) > 0,
		IsCompleted: completed,
	}, nil
}

// CompletionResult is returned by a successful completion.
type CompletionResult struct {
	TaskID  uint
	Slot    SlotKind
	Balance int64
}

// CompleteTask spends one slot and records the completion as one unit.
// Soft outcomes come back as ErrAlreadyCompleted or ErrEntitlementExhausted
// with nothing written.
func (s *TaskService) CompleteTask(ctx context.Context, user *model.User, taskID uint) (*CompletionResult, error) {
	var slot SlotKind
	err := repository.InTx(ctx, s.db, func(tx *gorm.DB) error {
		completions := s.completions.WithTx(tx)
		done, err := completions.Exists(ctx, user.ID, taskID)
		if err != nil {
			return err
		}
		if done {
			return ErrAlreadyCompleted
		}

		if _, err := s.tasks.WithTx(tx).FindByID(ctx, taskID); err != nil {
			if repository.IsNotFound(err) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("find task: %w", err)
		}

		slot, err = s.entitlements.ConsumeOneSlotTx(ctx, tx, user.ID)
		if err != nil {
			return err
		}

		err = completions.Create(ctx, &model.CompletedTask{
			UserID:      user.ID,
			TaskID:      taskID,
			CompletedAt: time.Now(),
		})
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrAlreadyCompleted
		}
		return err
	})
	if err != nil {
		s.rejectMetric(err)
		return nil, err
	}

	balance, err := s.users.Balance(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	metrics.TasksCompleted.WithLabelValues(string(slot)).Inc()
	s.log.Info("task completed",
		zap.Uint("user_id", user.ID),
		zap.Uint("task_id", taskID),
		zap.String("slot", string(slot)))
	return &CompletionResult{TaskID: taskID, Slot: slot, Balance: balance}, nil
}

// PurchaseExtraTask buys one paid slot for today at the configured price.
func (s *TaskService) PurchaseExtraTask(ctx context.Context, user *model.User) (*PurchaseResult, error) {
	res, err := s.entitlements.PurchaseSlot(ctx, user.ID, s.extraCost)
	if errors.Is(err, ErrInsufficientBalance) {
		metrics.PurchasesRejected.Inc()
	}
	return res, err
}

func (s *TaskService) categoryRef(ctx context.Context, categories map[uint]model.Category, id, languageID uint) (CategoryRef, error) {
	ref := CategoryRef{ID: id, Color: defaultCategoryColor}
	if c, ok := categories[id]; ok {
		ref.Name = c.Slug
		ref.Color = c.Color
	}
	name, err := s.localizer.CategoryName(ctx, id, languageID)
	if err != nil {
		return ref, err
	}
	if name != "" {
		ref.Name = name
	}
	return ref, nil
}

func (s *TaskService) rejectMetric(err error) {
	switch {
	case errors.Is(err, ErrAlreadyCompleted):
		metrics.CompletionsRejected.WithLabelValues("already_completed").Inc()
	case errors.Is(err, ErrEntitlementExhausted):
		metrics.CompletionsRejected.WithLabelValues("exhausted").Inc()
	case errors.Is(err, ErrTaskNotFound):
		metrics.CompletionsRejected.WithLabelValues("not_found").Inc()
	}
}

func categoryIDs(tasks []model.Task) []uint {
	seen := make(map[uint]struct{}, len(tasks))
	ids := make([]uint, 0, len(tasks))
	for _, t := range tasks {
		if _, ok := seen[t.CategoryID]; ok {
			continue
		}
		seen[t.CategoryID] = struct{}{}
		ids = append(ids, t.CategoryID)
	}
	return ids
}
