// Package main: Handler katmanı başlatma.
//
// initHandlers, tüm HTTP handler'larını oluşturur.
// Handler'lar "thin" dir: sadece HTTP parse + service call + response write.
package main

import (
	"database/sql"

	"github.com/tokyoedge/portal/config"
	"github.com/tokyoedge/portal/handlers"
	"github.com/tokyoedge/portal/ws"
)

// Handlers, tüm handler instance'larını tutan container struct.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Application *handlers.ApplicationHandler
	News        *handlers.NewsHandler
	Category    *handlers.CategoryHandler
	Setting     *handlers.SettingHandler
	Staff       *handlers.StaffHandler
	Stats       *handlers.StatsHandler
	Admin       *handlers.AdminHandler
	WS          *ws.Handler
}

// initHandlers, tüm handler'ları service ve rate limiter dependency'leri ile oluşturur.
func initHandlers(svcs *Services, limiters *RateLimiters, hub *ws.Hub, conn *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:        handlers.NewAuthHandler(svcs.Auth, limiters.Login, cfg.Server.PublicURL),
		Application: handlers.NewApplicationHandler(svcs.Application),
		News:        handlers.NewNewsHandler(svcs.News),
		Category:    handlers.NewCategoryHandler(svcs.Category),
		Setting:     handlers.NewSettingHandler(svcs.Setting),
		Staff:       handlers.NewStaffHandler(svcs.Staff),
		Stats:       handlers.NewStatsHandler(svcs.Status, conn, hub),
		Admin:       handlers.NewAdminHandler(svcs.Dashboard),
		WS:          ws.NewHandler(hub, cfg.Server.AllowedOrigins),
	}
}
