package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg"
	"github.com/tokyoedge/portal/repository"
)

// NewsService, haber/duyuru CMS'i.
//
// Public okumalar sadece yayınlanmış haberleri görür; taslak bir haberin
// slug'ı public endpoint'te 404 döner. Admin listesi taslakları da içerir.
type NewsService interface {
	List(ctx context.Context, categorySlug string, limit, offset int) ([]models.NewsWithCategory, error)
	Featured(ctx context.Context) ([]models.NewsWithCategory, error)
	GetBySlug(ctx context.Context, slug string) (*models.NewsArticle, error)

	ListAll(ctx context.Context, limit, offset int) ([]models.NewsWithCategory, error)
	Create(ctx context.Context, authorID int64, req *models.CreateNewsRequest) (*models.News, error)
	Update(ctx context.Context, id int64, req *models.UpdateNewsRequest) (*models.News, error)
	Delete(ctx context.Context, id int64) error
}

type newsService struct {
	newsRepo     repository.NewsRepository
	categoryRepo repository.CategoryRepository
	userRepo     repository.UserRepository
	now          func() time.Time
}

func NewNewsService(
	newsRepo repository.NewsRepository,
	categoryRepo repository.CategoryRepository,
	userRepo repository.UserRepository,
) NewsService {
	return &newsService{
		newsRepo:     newsRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		now:          time.Now,
	}
}

// List, yayınlanmış haberler, en yeni önce. categorySlug boş değilse
// o kategoriye filtrelenir; bilinmeyen slug boş liste döner.
func (s *newsService) List(ctx context.Context, categorySlug string, limit, offset int) ([]models.NewsWithCategory, error) {
	filter := models.NewsFilter{Limit: limit, Offset: offset}
	filter.Normalize()

	if categorySlug != "" {
		category, err := s.categoryRepo.GetBySlug(ctx, categorySlug)
		if errors.Is(err, pkg.ErrNotFound) {
			return []models.NewsWithCategory{}, nil
		}
		if err != nil {
			return nil, err
		}
		filter.CategoryID = &category.ID
	}

	items, err := s.newsRepo.List(ctx, filter, true)
	if err != nil {
		return nil, err
	}
	return s.withCategories(ctx, items)
}

func (s *newsService) Featured(ctx context.Context) ([]models.NewsWithCategory, error) {
	items, err := s.newsRepo.Featured(ctx, models.FeaturedNewsLimit)
	if err != nil {
		return nil, err
	}
	return s.withCategories(ctx, items)
}

// GetBySlug, tekil haber: kategori ve yazar özeti ile.
func (s *newsService) GetBySlug(ctx context.Context, slug string) (*models.NewsArticle, error) {
	news, err := s.newsRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !news.Published {
		return nil, fmt.Errorf("%w: news not found", pkg.ErrNotFound)
	}

	article := &models.NewsArticle{News: *news}

	if news.CategoryID != nil {
		category, err := s.categoryRepo.GetByID(ctx, *news.CategoryID)
		if err != nil && !errors.Is(err, pkg.ErrNotFound) {
			return nil, err
		}
		article.Category = category
	}

	if news.AuthorID != nil {
		authors, err := s.userRepo.GetSummaries(ctx, []int64{*news.AuthorID})
		if err != nil {
			return nil, err
		}
		article.Author = authors[*news.AuthorID]
	}

	return article, nil
}

// ListAll, admin listesi: taslaklar dahil.
func (s *newsService) ListAll(ctx context.Context, limit, offset int) ([]models.NewsWithCategory, error) {
	filter := models.NewsFilter{Limit: limit, Offset: offset}
	filter.Normalize()

	items, err := s.newsRepo.List(ctx, filter, false)
	if err != nil {
		return nil, err
	}
	return s.withCategories(ctx, items)
}

func (s *newsService) Create(ctx context.Context, authorID int64, req *models.CreateNewsRequest) (*models.News, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	published := true
	if req.Published != nil {
		published = *req.Published
	}

	news := &models.News{
		Title:       req.Title,
		Slug:        req.Slug,
		Content:     req.Content,
		Excerpt:     req.Excerpt,
		CoverImage:  req.CoverImage,
		PublishedAt: s.now().UTC(),
		AuthorID:    &authorID,
		CategoryID:  req.CategoryID,
		Published:   published,
	}

	if err := s.newsRepo.Create(ctx, news); err != nil {
		return nil, err
	}
	return news, nil
}

// Update, partial update. Taslak ilk kez yayınlandığında published_at yenilenir.
func (s *newsService) Update(ctx context.Context, id int64, req *models.UpdateNewsRequest) (*models.News, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	news, err := s.newsRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
		news.CategoryID = req.CategoryID
	}
	if req.Title != nil {
		news.Title = *req.Title
	}
	if req.Slug != nil {
		news.Slug = *req.Slug
	}
	if req.Content != nil {
		news.Content = *req.Content
	}
	if req.Excerpt != nil {
		news.Excerpt = *req.Excerpt
	}
	if req.CoverImage != nil {
		news.CoverImage = *req.CoverImage
	}
	if req.Published != nil {
		if *req.Published && !news.Published {
			news.PublishedAt = s.now().UTC()
		}
		news.Published = *req.Published
	}

	if err := s.newsRepo.Update(ctx, news); err != nil {
		return nil, err
	}
	return news, nil
}

func (s *newsService) Delete(ctx context.Context, id int64) error {
	return s.newsRepo.Delete(ctx, id)
}

func (s *newsService) checkCategory(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := s.categoryRepo.GetByID(ctx, *id); err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return pkg.NewValidationError("category_id", "unknown category")
		}
		return err
	}
	return nil
}

// withCategories, haberlere kategorilerini tek sorguda iliştirir.
func (s *newsService) withCategories(ctx context.Context, items []models.News) ([]models.NewsWithCategory, error) {
	out := make([]models.NewsWithCategory, len(items))

	var ids []int64
	for _, n := range items {
		if n.CategoryID != nil {
			ids = append(ids, *n.CategoryID)
		}
	}

	categories := map[int64]*models.NewsCategory{}
	if len(ids) > 0 {
		var err error
		categories, err = s.categoryRepo.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	for i, n := range items {
		out[i] = models.NewsWithCategory{News: n}
		if n.CategoryID != nil {
			out[i].Category = categories[*n.CategoryID]
		}
	}
	return out, nil
}
