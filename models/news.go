package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// News, bir haber/duyuru makalesi.
type News struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Content     string    `json:"content"`
	Excerpt     string    `json:"excerpt"`
	CoverImage  string    `json:"cover_image"`
	PublishedAt time.Time `json:"published_at"`
	AuthorID    *int64    `json:"author_id"`
	CategoryID  *int64    `json:"category_id"`
	Published   bool      `json:"published"`
}

// NewsWithCategory, liste endpoint'lerinde kategorisi iliştirilmiş haber.
type NewsWithCategory struct {
	News
	Category *NewsCategory `json:"category"`
}

// NewsArticle, tekil haber: kategori + yazar özeti.
type NewsArticle struct {
	News
	Category *NewsCategory `json:"category"`
	Author   *UserSummary  `json:"author"`
}

// NewsFilter, public haber listesi filtresi. Sadece yayınlanmış haberler listelenir.
type NewsFilter struct {
	CategoryID *int64
	Limit      int
	Offset     int
}

// Haber listesi sınırları.
const (
	DefaultNewsLimit  = 10
	MaxNewsLimit      = 50
	FeaturedNewsLimit = 3
)

// Normalize, limit/offset'i sınırlar içine çeker.
func (f *NewsFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultNewsLimit
	}
	if f.Limit > MaxNewsLimit {
		f.Limit = MaxNewsLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// CreateNewsRequest, yeni haber oluşturma isteği.
type CreateNewsRequest struct {
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	Content    string `json:"content"`
	Excerpt    string `json:"excerpt"`
	CoverImage string `json:"cover_image"`
	CategoryID *int64 `json:"category_id"`
	Published  *bool  `json:"published"` // nil → true
}

// Validate, CreateNewsRequest'in geçerli olup olmadığını kontrol eder.
func (r *CreateNewsRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if n := utf8.RuneCountInString(r.Title); n < 1 || n > 200 {
		return fmt.Errorf("title must be between 1 and 200 characters")
	}

	r.Slug = strings.TrimSpace(r.Slug)
	if r.Slug == "" {
		r.Slug = Slugify(r.Title)
	}
	if !slugRegex.MatchString(r.Slug) {
		return fmt.Errorf("slug must contain only lowercase letters, numbers and dashes")
	}

	if strings.TrimSpace(r.Content) == "" {
		return fmt.Errorf("content is required")
	}
	r.Excerpt = strings.TrimSpace(r.Excerpt)
	if r.Excerpt == "" {
		return fmt.Errorf("excerpt is required")
	}
	r.CoverImage = strings.TrimSpace(r.CoverImage)
	if r.CoverImage == "" {
		return fmt.Errorf("cover_image is required")
	}
	return nil
}

// UpdateNewsRequest, haber güncelleme isteği (partial update).
type UpdateNewsRequest struct {
	Title      *string `json:"title"`
	Slug       *string `json:"slug"`
	Content    *string `json:"content"`
	Excerpt    *string `json:"excerpt"`
	CoverImage *string `json:"cover_image"`
	CategoryID *int64  `json:"category_id"`
	Published  *bool   `json:"published"`
}

// Validate, verilen alanları kontrol eder.
func (r *UpdateNewsRequest) Validate() error {
	if r.Title != nil {
		*r.Title = strings.TrimSpace(*r.Title)
		if n := utf8.RuneCountInString(*r.Title); n < 1 || n > 200 {
			return fmt.Errorf("title must be between 1 and 200 characters")
		}
	}
	if r.Slug != nil {
		*r.Slug = strings.TrimSpace(*r.Slug)
		if !slugRegex.MatchString(*r.Slug) {
			return fmt.Errorf("slug must contain only lowercase letters, numbers and dashes")
		}
	}
	if r.Content != nil && strings.TrimSpace(*r.Content) == "" {
		return fmt.Errorf("content cannot be empty")
	}
	if r.Excerpt != nil && strings.TrimSpace(*r.Excerpt) == "" {
		return fmt.Errorf("excerpt cannot be empty")
	}
	if r.CoverImage != nil && strings.TrimSpace(*r.CoverImage) == "" {
		return fmt.Errorf("cover_image cannot be empty")
	}
	return nil
}
