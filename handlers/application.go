package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg"
	"github.com/tokyoedge/portal/services"
)

// ApplicationHandler, staff başvuru endpoint'lerini yöneten struct.
type ApplicationHandler struct {
	applicationService services.ApplicationService
}

// NewApplicationHandler, constructor.
func NewApplicationHandler(applicationService services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applicationService: applicationService}
}

// Submit godoc
// POST /api/applications
// Body'deki status/admin_notes gibi alanlar yok sayılır; başvuru her zaman pending başlar.
func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	app, err := h.applicationService.Submit(r.Context(), identity(r), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, app)
}

// ListMine godoc
// GET /api/applications/my
func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	apps, err := h.applicationService.ListMine(r.Context(), identity(r))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, apps)
}

// List godoc
// GET /api/admin/applications?status=pending&limit=10&offset=0
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := models.ApplicationFilter{
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "offset", 0),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := models.ApplicationStatus(s)
		filter.Status = &status
	}

	page, err := h.applicationService.ListForReview(r.Context(), identity(r), filter)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, page)
}

// Get godoc
// GET /api/admin/applications/{id}
func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	app, err := h.applicationService.GetByID(r.Context(), identity(r), id)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, app)
}

// Review godoc
// PUT /api/admin/applications/{id}
// Body: { "status": "approved", "admin_notes": "..." }
func (h *ApplicationHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	var req models.ReviewApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	app, err := h.applicationService.Review(r.Context(), identity(r), id, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, app)
}

// Reopen godoc
// POST /api/admin/applications/{id}/reopen
// Body opsiyonel: { "admin_notes": "..." }
func (h *ApplicationHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	var req models.ReopenApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	app, err := h.applicationService.Reopen(r.Context(), identity(r), id, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, app)
}
