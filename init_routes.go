// Package main: HTTP route registration.
//
// initRoutes, tüm API endpoint'lerini mux'a bağlar.
// Middleware chain helper'ları burada tanımlıdır:
//   - auth: JWT token doğrulaması
//   - authAdmin: auth + portal admin yetkisi
package main

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/tokyoedge/portal/middleware"
	"github.com/tokyoedge/portal/pkg"
	"github.com/tokyoedge/portal/pkg/metrics"
	"github.com/tokyoedge/portal/repository"
	"github.com/tokyoedge/portal/services"
)

// initRoutes, middleware chain'i kurar ve tüm endpoint'leri mux'a bağlar.
//
// frontend nil olabilir (testler); o durumda SPA fallback kaydedilmez.
func initRoutes(
	mux *http.ServeMux,
	h *Handlers,
	authService services.AuthService,
	userRepo repository.UserRepository,
	frontend fs.FS,
) {
	// ─── Middleware ───
	authMw := middleware.NewAuthMiddleware(authService, userRepo)
	adminMw := middleware.NewAdminMiddleware()

	// ─── Middleware Chain Helpers ───
	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(http.HandlerFunc(handler))
	}
	authAdmin := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(adminMw.Require(http.HandlerFunc(handler)))
	}

	// ╔══════════════════════════════════════════╗
	// ║  PUBLIC                                  ║
	// ╚══════════════════════════════════════════╝

	mux.HandleFunc("GET /api/health", h.Stats.Health)

	// Auth
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.Handle("POST /api/auth/logout", auth(h.Auth.Logout))
	mux.Handle("GET /api/auth/me", auth(h.Auth.Me))
	mux.HandleFunc("GET /api/auth/discord/url", h.Auth.DiscordURL)
	mux.HandleFunc("GET /api/auth/discord/callback", h.Auth.DiscordCallback)

	// Server status
	mux.HandleFunc("GET /api/server/status", h.Stats.ServerStatus)

	// News: literal path'ler ("featured", "categories") {slug}'dan önce eşleşir
	mux.HandleFunc("GET /api/news", h.News.List)
	mux.HandleFunc("GET /api/news/featured", h.News.Featured)
	mux.HandleFunc("GET /api/news/categories", h.Category.List)
	mux.HandleFunc("GET /api/news/{slug}", h.News.GetBySlug)

	// Settings & staff
	mux.HandleFunc("GET /api/settings/public", h.Setting.ListPublic)
	mux.HandleFunc("GET /api/staff", h.Staff.ListActive)

	// ╔══════════════════════════════════════════╗
	// ║  USER                                    ║
	// ╚══════════════════════════════════════════╝

	mux.Handle("POST /api/applications", auth(h.Application.Submit))
	mux.Handle("GET /api/applications/my", auth(h.Application.ListMine))

	// ╔══════════════════════════════════════════╗
	// ║  ADMIN                                   ║
	// ╚══════════════════════════════════════════╝

	mux.Handle("GET /api/admin/dashboard", authAdmin(h.Admin.Dashboard))
	// Prometheus scrape: process ve runtime metrikleri de içerir, sadece admin.
	mux.Handle("GET /metrics", authAdmin(metrics.Handler().ServeHTTP))

	// Applications
	mux.Handle("GET /api/admin/applications", authAdmin(h.Application.List))
	mux.Handle("GET /api/admin/applications/{id}", authAdmin(h.Application.Get))
	mux.Handle("PUT /api/admin/applications/{id}", authAdmin(h.Application.Review))
	mux.Handle("POST /api/admin/applications/{id}/reopen", authAdmin(h.Application.Reopen))

	// News
	mux.Handle("GET /api/admin/news", authAdmin(h.News.ListAll))
	mux.Handle("POST /api/admin/news", authAdmin(h.News.Create))
	mux.Handle("PUT /api/admin/news/{id}", authAdmin(h.News.Update))
	mux.Handle("DELETE /api/admin/news/{id}", authAdmin(h.News.Delete))

	// Categories
	mux.Handle("GET /api/admin/categories", authAdmin(h.Category.List))
	mux.Handle("POST /api/admin/categories", authAdmin(h.Category.Create))
	mux.Handle("PUT /api/admin/categories/{id}", authAdmin(h.Category.Update))
	mux.Handle("DELETE /api/admin/categories/{id}", authAdmin(h.Category.Delete))

	// Settings
	mux.Handle("GET /api/admin/settings", authAdmin(h.Setting.ListAll))
	mux.Handle("PUT /api/admin/settings/{key}", authAdmin(h.Setting.Upsert))

	// Staff
	mux.Handle("GET /api/admin/staff", authAdmin(h.Staff.ListAll))
	mux.Handle("GET /api/admin/staff/{id}", authAdmin(h.Staff.Get))
	mux.Handle("POST /api/admin/staff", authAdmin(h.Staff.Create))
	mux.Handle("PUT /api/admin/staff/{id}", authAdmin(h.Staff.Update))
	mux.Handle("DELETE /api/admin/staff/{id}", authAdmin(h.Staff.Delete))

	// WebSocket: public push kanalı, auth yok
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)

	// Bilinmeyen API path'leri SPA'ya düşmesin, JSON 404 dönsün.
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		pkg.ErrorWithMessage(w, http.StatusNotFound, "endpoint not found")
	})

	if frontend != nil {
		mux.Handle("/", spaHandler(frontend))
	}
}

// spaHandler, gömülü frontend build'ini servis eder. Dosya yoksa
// index.html döner; client-side router path'i kendisi çözer.
func spaHandler(dist fs.FS) http.Handler {
	fileServer := http.FileServerFS(dist)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "" {
			name = "index.html"
		}

		if _, err := fs.Stat(dist, name); err != nil {
			index, err := fs.ReadFile(dist, "index.html")
			if err != nil {
				// Development: dist/ boş, frontend'i Vite servis ediyor.
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(index)
			return
		}

		fileServer.ServeHTTP(w, r)
	})
}
