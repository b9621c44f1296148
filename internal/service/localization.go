package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"sparks/internal/metrics"
	"sparks/internal/repository"
)

// Localizer resolves user-facing text for tasks and categories.
type Localizer interface {
	TaskText(ctx context.Context, taskID, languageID uint) (title, description string, err error)
	CategoryName(ctx context.Context, categoryID, languageID uint) (string, error)
}

// TranslationService looks text up in the user's language and falls back to
// a fixed default language when no translation exists.
type TranslationService struct {
	repo     *repository.TranslationRepository
	fallback string
	log      *zap.Logger

	mu         sync.Mutex
	fallbackID uint
}

func NewTranslationService(repo *repository.TranslationRepository, fallbackCode string, log *zap.Logger) *TranslationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TranslationService{repo: repo, fallback: fallbackCode, log: log.Named("i18n")}
}

// TaskText returns ErrTranslationMissing when neither language has text.
func (s *TranslationService) TaskText(ctx context.Context, taskID, languageID uint) (string, string, error) {
	tr, err := s.repo.TaskText(ctx, taskID, languageID)
	if err != nil {
		return "", "", err
	}
	if tr == nil {
		fallbackID, err := s.fallbackLanguageID(ctx)
		if err != nil {
			return "", "", err
		}
		if fallbackID != 0 && fallbackID != languageID {
			tr, err = s.repo.TaskText(ctx, taskID, fallbackID)
			if err != nil {
				return "", "", err
			}
		}
	}
	if tr == nil {
		metrics.TranslationsMissing.Inc()
		s.log.Warn("task has no translation",
			zap.Uint("task_id", taskID),
			zap.Uint("language_id", languageID),
			zap.String("fallback", s.fallback))
		return "", "", ErrTranslationMissing
	}
	return tr.Title, tr.Description, nil
}

// CategoryName returns "" when no translation exists in the user's language;
// callers show the slug instead.
func (s *TranslationService) CategoryName(ctx context.Context, categoryID, languageID uint) (string, error) {
	return s.repo.CategoryName(ctx, categoryID, languageID)
}

func (s *TranslationService) fallbackLanguageID(ctx context.Context) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fallbackID != 0 {
		return s.fallbackID, nil
	}
	lang, err := s.repo.LanguageByCode(ctx, s.fallback)
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	s.fallbackID = lang.ID
	return s.fallbackID, nil
}
