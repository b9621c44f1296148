package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"sparks/internal/model"
)

// TranslationRepository reads localized task and category text.
type TranslationRepository struct {
	db *gorm.DB
}

func NewTranslationRepository(db *gorm.DB) *TranslationRepository {
	return &TranslationRepository{db: db}
}

func (r *TranslationRepository) CreateLanguage(ctx context.Context, lang *model.Language) error {
	if err := r.db.WithContext(ctx).Create(lang).Error; err != nil {
		return fmt.Errorf("create language: %w", err)
	}
	return nil
}

func (r *TranslationRepository) LanguageByCode(ctx context.Context, code string) (*model.Language, error) {
	var lang model.Language
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&lang).Error; err != nil {
		return nil, err
	}
	return &lang, nil
}

// TaskText returns the translation or nil when none exists for the language.
func (r *TranslationRepository) TaskText(ctx context.Context, taskID, languageID uint) (*model.TaskTranslation, error) {
	var tr model.TaskTranslation
	err := r.db.WithContext(ctx).Where("task_id = ? AND language_id = ?", taskID, languageID).First(&tr).Error
	switch {
	case err == nil:
		return &tr, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find task translation: %w", err)
	}
}

// CategoryName returns the localized name or "" when none exists.
func (r *TranslationRepository) CategoryName(ctx context.Context, categoryID, languageID uint) (string, error) {
	var tr model.CategoryTranslation
	err := r.db.WithContext(ctx).Where("category_id = ? AND language_id = ?", categoryID, languageID).First(&tr).Error
	switch {
	case err == nil:
		return tr.Name, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", nil
	default:
		return "", fmt.Errorf("find category translation: %w", err)
	}
}
