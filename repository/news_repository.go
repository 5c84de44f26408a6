package repository

import (
	"context"

	"github.com/tokyoedge/portal/models"
)

// NewsRepository, haber makaleleri için veritabanı interface'i.
type NewsRepository interface {
	Create(ctx context.Context, news *models.News) error
	GetByID(ctx context.Context, id int64) (*models.News, error)
	GetBySlug(ctx context.Context, slug string) (*models.News, error)
	// List, haberleri published_at'e göre yeniden eskiye döner.
	// publishedOnly false ise taslaklar da listelenir (admin).
	List(ctx context.Context, filter models.NewsFilter, publishedOnly bool) ([]models.News, error)
	Featured(ctx context.Context, limit int) ([]models.News, error)
	Count(ctx context.Context, publishedOnly bool) (int, error)
	Update(ctx context.Context, news *models.News) error
	Delete(ctx context.Context, id int64) error
}
