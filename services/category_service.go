package services

import (
	"context"
	"fmt"

	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg"
	"github.com/tokyoedge/portal/repository"
)

// CategoryService, haber kategorisi iş mantığı interface'i.
// Yetki kontrolü route seviyesinde (admin middleware) yapılır.
type CategoryService interface {
	GetAll(ctx context.Context) ([]models.NewsCategory, error)
	Create(ctx context.Context, req *models.CreateCategoryRequest) (*models.NewsCategory, error)
	Update(ctx context.Context, id int64, req *models.UpdateCategoryRequest) (*models.NewsCategory, error)
	Delete(ctx context.Context, id int64) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

func (s *categoryService) GetAll(ctx context.Context) ([]models.NewsCategory, error) {
	return s.categoryRepo.GetAll(ctx)
}

func (s *categoryService) Create(ctx context.Context, req *models.CreateCategoryRequest) (*models.NewsCategory, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	category := &models.NewsCategory{
		Name:  req.Name,
		Slug:  req.Slug,
		Color: req.Color,
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err // slug çakışması → ErrAlreadyExists
	}
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id int64, req *models.UpdateCategoryRequest) (*models.NewsCategory, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Slug != nil {
		category.Slug = *req.Slug
	}
	if req.Color != nil {
		category.Color = *req.Color
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete, kategoriyi siler. Bu kategorideki haberler kategorisiz kalır (ON DELETE SET NULL).
func (s *categoryService) Delete(ctx context.Context, id int64) error {
	return s.categoryRepo.Delete(ctx, id)
}
