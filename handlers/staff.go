package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg"
	"github.com/tokyoedge/portal/services"
)

// StaffHandler, ekip sayfası ve kadro yönetimi endpoint'leri.
type StaffHandler struct {
	staffService services.StaffService
}

// NewStaffHandler, constructor.
func NewStaffHandler(staffService services.StaffService) *StaffHandler {
	return &StaffHandler{staffService: staffService}
}

// ListActive godoc
// GET /api/staff
func (h *StaffHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	members, err := h.staffService.ListActive(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, members)
}

// ListAll godoc
// GET /api/admin/staff
func (h *StaffHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	members, err := h.staffService.ListAll(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, members)
}

// Get godoc
// GET /api/admin/staff/{id}
func (h *StaffHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	member, err := h.staffService.GetByID(r.Context(), id)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, member)
}

// Create godoc
// POST /api/admin/staff
func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateStaffMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	member, err := h.staffService.Create(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, member)
}

// Update godoc
// PUT /api/admin/staff/{id}
func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	var req models.UpdateStaffMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	member, err := h.staffService.Update(r.Context(), id, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, member)
}

// Delete godoc
// DELETE /api/admin/staff/{id}
func (h *StaffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if err := h.staffService.Delete(r.Context(), id); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "staff member deleted"})
}
