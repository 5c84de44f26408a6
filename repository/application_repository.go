package repository

import (
	"context"
	"time"

	"github.com/tokyoedge/portal/models"
)

// ApplicationRepository, staff başvuruları için veritabanı interface'i.
//
// Başvurular silinmez; sadece review ile status/notes/reviewer değişir.
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	// CreateIfNoneOpen, kullanıcının açık (pending/in_review) başvurusu yoksa
	// başvuruyu ekler. Kontrol ve ekleme tek SQL statement'ıdır;
	// açık başvuru varsa pkg.ErrAlreadyExists döner.
	CreateIfNoneOpen(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id int64) (*models.Application, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error)
	Count(ctx context.Context, status *models.ApplicationStatus) (int, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Application, error)
	// HasOpen, kullanıcının pending veya in_review başvurusu var mı?
	HasOpen(ctx context.Context, userID int64) (bool, error)
	UpdateReview(ctx context.Context, id int64, status models.ApplicationStatus, adminNotes *string, reviewedBy int64, updatedAt time.Time) error
	// UpdateReviewFrom, UpdateReview'un koşullu hali: satır sadece durumu hâlâ
	// from ise güncellenir. Durum değişmişse pkg.ErrConflict, satır yoksa
	// pkg.ErrNotFound döner.
	UpdateReviewFrom(ctx context.Context, id int64, from, status models.ApplicationStatus, adminNotes *string, reviewedBy int64, updatedAt time.Time) error
	CountByStatus(ctx context.Context) (map[models.ApplicationStatus]int, error)
}
