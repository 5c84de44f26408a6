package repository

import (
	"context"

	"github.com/tokyoedge/portal/models"
)

// CategoryRepository, haber kategorileri için veritabanı interface'i.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.NewsCategory) error
	GetByID(ctx context.Context, id int64) (*models.NewsCategory, error)
	GetBySlug(ctx context.Context, slug string) (*models.NewsCategory, error)
	// GetByIDs, haber listelerini kategoriyle zenginleştirmek için toplu okuma.
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.NewsCategory, error)
	GetAll(ctx context.Context) ([]models.NewsCategory, error)
	Update(ctx context.Context, category *models.NewsCategory) error
	Delete(ctx context.Context, id int64) error
}
