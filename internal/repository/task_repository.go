package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"sparks/internal/model"
)

// TaskRepository reads and writes the task catalogue.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) WithTx(tx *gorm.DB) *TaskRepository {
	return &TaskRepository{db: tx}
}

// Create stores a task together with its translations and gender targets.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Preload("GenderTargets").First(&task, taskID).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) SetActive(ctx context.Context, taskID uint, active bool) error {
	if err := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", taskID).
		Update("is_active", active).Error; err != nil {
		return fmt.Errorf("set task active: %w", err)
	}
	return nil
}

// EligibleFilter narrows the active catalogue for one user.
type EligibleFilter struct {
	UserID uint
	Gender model.Gender
	// Interests restricts to these categories; empty means no restriction.
	Interests  []uint
	CategoryID uint
	Limit      int
	Offset     int
}

// ListEligible returns one page of active, audience-matching tasks the user
// has not completed, newest first, plus the unpaginated count.
func (r *TaskRepository) ListEligible(ctx context.Context, f EligibleFilter) ([]model.Task, int64, error) {
	query := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&model.Task{}).Where("tasks.is_active = ?", true)
		if len(f.Interests) > 0 {
			q = q.Where("tasks.category_id IN ?", f.Interests)
		}
		if f.CategoryID != 0 {
			q = q.Where("tasks.category_id = ?", f.CategoryID)
		}
		q = q.Where("EXISTS (SELECT 1 FROM task_gender_targets g WHERE g.task_id = tasks.id AND g.gender IN ?)",
			[]string{string(model.TargetAll), string(f.Gender)})
		q = q.Where("NOT EXISTS (SELECT 1 FROM completed_tasks c WHERE c.task_id = tasks.id AND c.user_id = ?)", f.UserID)
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count eligible tasks: %w", err)
	}

	var tasks []model.Task
	q := query().Preload("GenderTargets").Order("tasks.created_at DESC, tasks.id DESC").Offset(f.Offset)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Find(&tasks).Error; err != nil {
		return nil, 0, fmt.Errorf("list eligible tasks: %w", err)
	}
	return tasks, total, nil
}
