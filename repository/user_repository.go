// Package repository, veritabanı erişim katmanını tanımlar.
//
// Service katmanı doğrudan SQL yazmaz, buradaki interface'ler üzerinden çalışır.
// Her interface'in bir SQLite implementasyonu vardır (sqlite_*.go);
// service testleri aynı interface'lerin in-memory fake'lerini kullanır.
package repository

import (
	"context"

	"github.com/tokyoedge/portal/models"
)

// UserRepository, kullanıcı veritabanı işlemleri için interface.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByDiscordID(ctx context.Context, discordID string) (*models.User, error)
	// GetSummaries, verilen ID'lerin özetlerini tek sorguda döner.
	// Bulunamayan ID'ler map'te yer almaz (silinmiş kullanıcı).
	GetSummaries(ctx context.Context, ids []int64) (map[int64]*models.UserSummary, error)
	UpdateDiscordProfile(ctx context.Context, id int64, discordUsername, avatar *string) error
	UpdateRole(ctx context.Context, id int64, role models.Role) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id int64) error
}
