// Package handlers: AdminHandler, admin paneli özet endpoint'i.
//
// AdminMiddleware tarafından korunur; service de ayrıca Identity kontrolü yapar.
package handlers

import (
	"net/http"

	"github.com/tokyoedge/portal/pkg"
	"github.com/tokyoedge/portal/services"
)

// AdminHandler, admin dashboard endpoint'ini yönetir.
type AdminHandler struct {
	dashboardService services.DashboardService
}

// NewAdminHandler, constructor.
func NewAdminHandler(dashboardService services.DashboardService) *AdminHandler {
	return &AdminHandler{dashboardService: dashboardService}
}

// Dashboard: GET /api/admin/dashboard
// Başvuru sayıları, en yeni bekleyen başvurular, içerik sayaçları ve canlı durum.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboardService.Summary(r.Context(), identity(r))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, summary)
}
