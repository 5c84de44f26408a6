// Package middleware, HTTP request pipeline'ına eklenen ara katmanları barındırır.
//
// Middleware Pattern nedir?
// Her HTTP request, handler'a ulaşmadan önce bir veya daha fazla middleware'dan geçer.
// Middleware'lar zincir şeklinde çalışır: Auth → Admin → Handler
//
// Go'da middleware bir fonksiyondur:
//
//	func(next http.Handler) http.Handler
//
// "next" parametresi zincirdeki bir sonraki handler'dır.
// Middleware kendi işini yapar (ör: token doğrula), sonra next'i çağırır.
// Eğer hata varsa next'i çağırmaz → request burada durur.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tokyoedge/portal/handlers"
	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg"
	"github.com/tokyoedge/portal/repository"
	"github.com/tokyoedge/portal/services"
)

// errNoToken, Authorization header'ı hiç gönderilmemiş request.
var errNoToken = errors.New("no token")

// AuthMiddleware, JWT token doğrulama middleware'ı.
type AuthMiddleware struct {
	authService services.AuthService
	userRepo    repository.UserRepository
}

// NewAuthMiddleware, constructor.
func NewAuthMiddleware(authService services.AuthService, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		userRepo:    userRepo,
	}
}

// Require, JWT token zorunlu kılan middleware.
// Token yoksa veya geçersizse → 401 Unauthorized.
//
// HTTP header formatı: Authorization: Bearer <token>
//
// Token geçerliyse kullanıcı DB'den tekrar okunur: rolü token'dan değil
// güncel kayıttan gelir, silinmiş kullanıcı da burada düşer.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.authenticate(r)
		if err != nil {
			if errors.Is(err, errNoToken) {
				pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
				return
			}
			pkg.Error(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), handlers.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) authenticate(r *http.Request) (*models.User, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errNoToken
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, fmt.Errorf("%w: invalid authorization format, use: Bearer <token>", pkg.ErrUnauthorized)
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	claims, err := m.authService.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := m.userRepo.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	// Password hash context'te taşınmamalı
	user.PasswordHash = ""
	return user, nil
}
