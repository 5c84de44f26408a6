// Package handlers, HTTP request/response işlemlerini yönetir.
//
// Handler'ın görevi çok basit ve "ince" (thin) olmalı:
// 1. Request body'yi parse et (JSON → struct)
// 2. Service katmanını çağır
// 3. Sonucu HTTP response olarak döndür
//
// Handler ASLA iş mantığı (business logic) içermez.
// Handler ASLA doğrudan DB'ye erişmez.
// Yetki kararları da service'te verilir; handler sadece context'teki
// kullanıcıdan bir models.Identity üretip geçer.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg"
	"github.com/tokyoedge/portal/pkg/logger"
	"github.com/tokyoedge/portal/pkg/ratelimit"
	"github.com/tokyoedge/portal/services"
)

var authLog = logger.For("auth")

// AuthHandler, auth endpoint'lerini yöneten struct.
// Service interface'i ve rate limiter constructor'dan alınır (DI).
type AuthHandler struct {
	authService  services.AuthService
	loginLimiter *ratelimit.LoginRateLimiter
	publicURL    string
}

// NewAuthHandler, constructor.
// loginLimiter: Login brute-force koruması. nil ise rate limiting devre dışı kalır.
// publicURL: Discord callback'inden sonra tarayıcının yönlendirileceği frontend kökü.
func NewAuthHandler(authService services.AuthService, loginLimiter *ratelimit.LoginRateLimiter, publicURL string) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		loginLimiter: loginLimiter,
		publicURL:    strings.TrimRight(publicURL, "/"),
	}
}

// Register godoc
// POST /api/auth/register
// Yeni hesaplar her zaman "user" rolündedir.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, tokens)
}

// Login godoc
// POST /api/auth/login
//
// Rate limiting: IP bazlı brute-force koruması.
// Limit aşıldığında 429 Too Many Requests döner.
// Başarılı login sayacı sıfırlar: meşru kullanıcı bloke olmaz.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ExtractIP(r)
	if h.loginLimiter != nil && !h.loginLimiter.Allow(ip) {
		retryAfter := h.loginLimiter.RetryAfterSeconds(ip)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			fmt.Sprintf("too many login attempts, please try again in %s",
				ratelimit.FormatRetryMessage(retryAfter)))
		return
	}

	var req models.LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if h.loginLimiter != nil {
		h.loginLimiter.Reset(ip)
	}

	pkg.JSON(w, http.StatusOK, tokens)
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh godoc
// POST /api/auth/refresh
// Body: { "refresh_token": "..." }
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.RefreshToken == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	tokens, err := h.authService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, tokens)
}

// Logout godoc
// POST /api/auth/logout
// Body: { "refresh_token": "..." }
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.authService.Logout(r.Context(), req.RefreshToken); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me godoc
// GET /api/auth/me
// Auth middleware gerektirir: context'te user bilgisi olur.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	pkg.JSON(w, http.StatusOK, user)
}

// DiscordURL godoc
// GET /api/auth/discord/url?redirect=/candidatura
// Frontend bu URL'e yönlendirir; Discord onayından sonra callback'e döner.
func (h *AuthHandler) DiscordURL(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.authService.DiscordAuthURL(r.URL.Query().Get("redirect"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"url": authURL})
}

// DiscordCallback godoc
// GET /api/auth/discord/callback?code=...&state=...
//
// Bu endpoint JSON dönmez: tarayıcı Discord'dan buraya gelir, biz de
// token'ları URL fragment'ında taşıyarak frontend'e 302 ile geri göndeririz.
// Fragment sunucuya hiç gönderilmez, access log'lara düşmez.
// Hata durumunda frontend "#error=auth_error" görür.
func (h *AuthHandler) DiscordCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if denied := q.Get("error"); denied != "" {
		authLog.WithField("reason", denied).Info("discord authorization denied")
		h.redirectWithError(w, r)
		return
	}

	tokens, redirectTo, err := h.authService.DiscordCallback(r.Context(), q.Get("code"), q.Get("state"))
	if err != nil {
		authLog.WithError(err).Warn("discord callback failed")
		h.redirectWithError(w, r)
		return
	}

	fragment := url.Values{}
	fragment.Set("access_token", tokens.AccessToken)
	fragment.Set("refresh_token", tokens.RefreshToken)

	http.Redirect(w, r, h.publicURL+services.SafeRedirectPath(redirectTo)+"#"+fragment.Encode(), http.StatusFound)
}

func (h *AuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.publicURL+"/#error=auth_error", http.StatusFound)
}
