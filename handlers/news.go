package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg"
	"github.com/tokyoedge/portal/services"
)

// NewsHandler, haber endpoint'lerini yöneten struct.
type NewsHandler struct {
	newsService services.NewsService
}

// NewNewsHandler, constructor.
func NewNewsHandler(newsService services.NewsService) *NewsHandler {
	return &NewsHandler{newsService: newsService}
}

// List godoc
// GET /api/news?category=evento&limit=10&offset=0
func (h *NewsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.newsService.List(r.Context(),
		r.URL.Query().Get("category"),
		queryInt(r, "limit", 0),
		queryInt(r, "offset", 0),
	)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, items)
}

// Featured godoc
// GET /api/news/featured
func (h *NewsHandler) Featured(w http.ResponseWriter, r *http.Request) {
	items, err := h.newsService.Featured(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, items)
}

// GetBySlug godoc
// GET /api/news/{slug}
func (h *NewsHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	article, err := h.newsService.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, article)
}

// ListAll godoc
// GET /api/admin/news: taslaklar dahil.
func (h *NewsHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.newsService.ListAll(r.Context(), queryInt(r, "limit", 0), queryInt(r, "offset", 0))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, items)
}

// Create godoc
// POST /api/admin/news
// Yazar, isteği yapan admin'dir.
func (h *NewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.CreateNewsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	news, err := h.newsService.Create(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, news)
}

// Update godoc
// PUT /api/admin/news/{id}
func (h *NewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	var req models.UpdateNewsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	news, err := h.newsService.Update(r.Context(), id, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, news)
}

// Delete godoc
// DELETE /api/admin/news/{id}
func (h *NewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if err := h.newsService.Delete(r.Context(), id); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "news deleted"})
}
