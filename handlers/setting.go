package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg"
	"github.com/tokyoedge/portal/services"
)

// SettingHandler, portal ayarları endpoint'leri.
type SettingHandler struct {
	settingService services.SettingService
}

// NewSettingHandler, constructor.
func NewSettingHandler(settingService services.SettingService) *SettingHandler {
	return &SettingHandler{settingService: settingService}
}

// ListPublic godoc
// GET /api/settings/public
func (h *SettingHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingService.ListPublic(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, settings)
}

// ListAll godoc
// GET /api/admin/settings
func (h *SettingHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingService.ListAll(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, settings)
}

// Upsert godoc
// PUT /api/admin/settings/{key}
// Body: { "value": "...", "category": "server" }
func (h *SettingHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req models.UpsertSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	setting, err := h.settingService.Upsert(r.Context(), r.PathValue("key"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, setting)
}
