// Package main: Service katmanı başlatma.
//
// initServices, tüm service implementasyonlarını oluşturur.
// Her service, ihtiyaç duyduğu repository interface'lerini ve diğer
// dependency'leri constructor injection ile alır.
//
// Sıralama kuralları:
// 1. notifier → applicationService'den ÖNCE
// 2. statusBroadcaster → dashboardService'den ÖNCE
package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/tokyoedge/portal/config"
	"github.com/tokyoedge/portal/pkg/cache"
	"github.com/tokyoedge/portal/pkg/discord"
	"github.com/tokyoedge/portal/pkg/email"
	"github.com/tokyoedge/portal/pkg/fivem"
	"github.com/tokyoedge/portal/pkg/logger"
	"github.com/tokyoedge/portal/pkg/ratelimit"
	"github.com/tokyoedge/portal/services"
	"github.com/tokyoedge/portal/ws"
)

const (
	serverName = "Tokyo Edge Roleplay"

	// OAuth state'leri 10 dakika geçerli; callback bu sürede gelmezse login yeniden başlar.
	oauthStateTTL = 10 * time.Minute
	// Setting cache'i kısa tutulur, admin değişiklikleri upsert'te zaten invalidate edilir.
	settingCacheTTL = time.Minute
)

// Services, tüm service instance'larını tutan container struct.
type Services struct {
	Auth         services.AuthService
	Application  services.ApplicationService
	Status       services.StatusBroadcaster
	Category     services.CategoryService
	News         services.NewsService
	Setting      services.SettingService
	Staff        services.StaffService
	Dashboard    services.DashboardService
	Housekeeping *services.Housekeeping
}

// RateLimiters, tüm rate limiter instance'larını tutan container.
type RateLimiters struct {
	Login  *ratelimit.LoginRateLimiter
	Submit *ratelimit.UserLimiter
}

// Closers, shutdown sırasında kapatılması gereken arka plan kaynakları.
type Closers struct {
	OAuthStates *cache.TTLCache[string, string]
}

// initServices, tüm service'leri ve rate limiter'ları oluşturur.
//
// Discord ve Resend entegrasyonları config'e bağlıdır; kapalıysa ilgili
// dependency nil interface olarak geçilir ve service o adımı atlar.
func initServices(conn *sql.DB, repos *Repositories, hub ws.Publisher, cfg *config.Config) (*Services, *RateLimiters, *Closers) {
	log := logger.For("main")

	// ─── Rate Limiters ───
	loginLimiter := ratelimit.NewLoginRateLimiter(5, 2*time.Minute)
	// Başvuru gönderimi: kullanıcı başına 10 dakikada 1, burst 2.
	submitLimiter := ratelimit.NewUserLimiter(10*time.Minute, 2)

	// ─── Auth ───
	var discordOAuth services.DiscordOAuth
	if cfg.Discord.Enabled() {
		discordOAuth = discord.NewOAuth(cfg.Discord.ClientID, cfg.Discord.ClientSecret, cfg.Discord.RedirectURI)
		log.Info("discord login enabled")
	} else {
		log.Info("discord login disabled (DISCORD_CLIENT_ID not set)")
	}

	oauthStates := cache.New[string, string](oauthStateTTL, time.Minute)

	authService := services.NewAuthService(
		conn,
		repos.User,
		repos.Session,
		discordOAuth,
		oauthStates,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// ─── Notifications ───
	var staffChannel services.StaffChannel
	if cfg.Discord.WebhookURL != "" {
		webhook, err := discord.NewStaffWebhook(cfg.Discord.WebhookURL, cfg.Email.AppURL)
		if err != nil {
			log.WithError(err).Warn("staff webhook disabled")
		} else {
			staffChannel = webhook
		}
	}

	var mailer email.Sender
	if cfg.Email.Enabled() {
		mailer = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.FromEmail, cfg.Email.AppURL, serverName)
		log.Info("review decision emails enabled")
	}

	notifier := services.NewApplicationNotifier(staffChannel, mailer, repos.User)

	applicationService := services.NewApplicationService(
		repos.Application,
		repos.User,
		services.PolicyByName(cfg.Applications.Transitions),
		cfg.Applications.AllowDuplicates,
		submitLimiter,
		notifier,
	)

	// ─── Live Status ───
	fivemClient := fivem.NewClient(cfg.FiveM.BaseURL(), &http.Client{Timeout: cfg.Status.FetchTimeout})
	statusBroadcaster := services.NewStatusBroadcaster(
		fivemClient,
		repos.Setting,
		hub,
		cfg.Status.Interval,
		cfg.Status.FetchTimeout,
	)

	// ─── Content ───
	categoryService := services.NewCategoryService(repos.Category)
	newsService := services.NewNewsService(repos.News, repos.Category, repos.User)
	settingService := services.NewSettingService(repos.Setting, settingCacheTTL)
	staffService := services.NewStaffService(repos.Staff)

	dashboardService := services.NewDashboardService(repos.Dashboard, repos.User, statusBroadcaster, hub)

	// Housekeeping: süresi dolmuş session'lar + boştaki submit limiter kayıtları.
	housekeeping := services.NewHousekeeping(repos.Session, submitLimiter)

	svcs := &Services{
		Auth:         authService,
		Application:  applicationService,
		Status:       statusBroadcaster,
		Category:     categoryService,
		News:         newsService,
		Setting:      settingService,
		Staff:        staffService,
		Dashboard:    dashboardService,
		Housekeeping: housekeeping,
	}

	limiters := &RateLimiters{
		Login:  loginLimiter,
		Submit: submitLimiter,
	}

	return svcs, limiters, &Closers{OAuthStates: oauthStates}
}
