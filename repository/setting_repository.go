package repository

import (
	"context"

	"github.com/tokyoedge/portal/models"
)

// SettingRepository, key-value portal ayarları için interface.
// Ayarlar silinmez; Upsert ile oluşturulur veya güncellenir.
type SettingRepository interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	List(ctx context.Context) ([]models.Setting, error)
	ListByCategory(ctx context.Context, category string) ([]models.Setting, error)
	// GetMany, verilen anahtarların mevcut olanlarını key → value map'i olarak döner.
	GetMany(ctx context.Context, keys ...string) (map[string]string, error)
	Upsert(ctx context.Context, setting *models.Setting) error
}
