// Package handlers: StatsHandler, public (auth gerektirmeyen) durum endpoint'lerini
// yönetir: oyun sunucusunun son snapshot'ı ve servis health check'i.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/tokyoedge/portal/pkg"
	"github.com/tokyoedge/portal/services"
	"github.com/tokyoedge/portal/ws"
)

// Pinger, health check'in veritabanı bağlantısını yoklaması için (*sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse, GET /api/health cevabı.
type HealthResponse struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	Database    string `json:"database"`
	Subscribers int    `json:"subscribers"`
}

// StatsHandler, durum endpoint'lerini yöneten handler.
type StatsHandler struct {
	status services.StatusBroadcaster
	db     Pinger
	hub    ws.Publisher
}

// NewStatsHandler, constructor. main'de wire-up edilir.
func NewStatsHandler(status services.StatusBroadcaster, db Pinger, hub ws.Publisher) *StatsHandler {
	return &StatsHandler{status: status, db: db, hub: hub}
}

// ServerStatus, son yayınlanan snapshot'ı döner. WebSocket kullanmayan
// sayfalar (ör. SSR landing) bunu kullanır.
//
// GET /api/server/status
func (h *StatsHandler) ServerStatus(w http.ResponseWriter, r *http.Request) {
	pkg.JSON(w, http.StatusOK, h.status.Latest(r.Context()))
}

// Health godoc
// GET /api/health
// DB erişilemezse 503 döner; load balancer instance'ı rotasyondan çıkarır.
func (h *StatsHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Service: "tokyoedge-portal", Database: "ok"}
	if h.hub != nil {
		resp.Subscribers = h.hub.Count()
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			pkg.JSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}

	pkg.JSON(w, http.StatusOK, resp)
}
