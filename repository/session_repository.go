package repository

import (
	"context"
	"time"

	"github.com/tokyoedge/portal/models"
)

// SessionRepository, JWT refresh token oturumları için interface.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByRefreshToken(ctx context.Context, token string) (*models.Session, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID int64) error
	// DeleteExpired, before'dan önce süresi dolmuş oturumları siler ve kaç tane silindiğini döner.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
