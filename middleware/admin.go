// Package middleware: AdminMiddleware, portal admin yetkisi kontrolü.
//
// AuthMiddleware'den SONRA çalışır: context'te user bilgisi mevcuttur.
// Kullanıcı yoksa 401, kullanıcı var ama admin değilse 403.
//
// Kullanım:
//
//	authMw.Require(adminMw.Require(http.HandlerFunc(adminHandler.Dashboard)))
package middleware

import (
	"net/http"

	"github.com/tokyoedge/portal/handlers"
	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg"
)

// AdminMiddleware, admin rolü zorunlu kılan middleware.
type AdminMiddleware struct{}

// NewAdminMiddleware, constructor.
func NewAdminMiddleware() *AdminMiddleware {
	return &AdminMiddleware{}
}

// Require, context'teki User admin değilse 403 Forbidden döner.
func (m *AdminMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := r.Context().Value(handlers.UserContextKey).(*models.User)
		if !ok || user == nil {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
			return
		}

		if !user.IsAdmin() {
			pkg.ErrorWithMessage(w, http.StatusForbidden, "admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}
