package repository

import (
	"context"

	"github.com/tokyoedge/portal/models"
)

// StaffRepository, public ekip kadrosu için veritabanı interface'i.
type StaffRepository interface {
	// List, üyeleri display_order'a göre sıralı döner. activeOnly true ise
	// sadece is_active üyeler listelenir (public sayfa).
	List(ctx context.Context, activeOnly bool) ([]models.StaffMember, error)
	GetByID(ctx context.Context, id int64) (*models.StaffMember, error)
	Create(ctx context.Context, member *models.StaffMember) error
	Update(ctx context.Context, member *models.StaffMember) error
	Delete(ctx context.Context, id int64) error
	CountActive(ctx context.Context) (int, error)
}
