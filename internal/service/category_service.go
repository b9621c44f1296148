package service

import (
	"context"

	"sparks/internal/model"
	"sparks/internal/repository"
)

// CategoryService lists active categories with localized names.
type CategoryService struct {
	repo      *repository.CategoryRepository
	localizer Localizer
}

func NewCategoryService(repo *repository.CategoryRepository, localizer Localizer) *CategoryService {
	return &CategoryService{repo: repo, localizer: localizer}
}

// List returns active categories named in the user's language, or by slug.
func (s *CategoryService) List(ctx context.Context, user *model.User) ([]CategoryRef, error) {
	categories, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryRef, 0, len(categories))
	for _, c := range categories {
		name, err := s.localizer.CategoryName(ctx, c.ID, user.LanguageID)
		if err != nil {
			return nil, err
		}
		if name == "" {
			name = c.Slug
		}
		out = append(out, CategoryRef{ID: c.ID, Name: name, Color: c.Color})
	}
	return out, nil
}
