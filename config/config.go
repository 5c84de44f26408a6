// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
//
// Config struct'ı tüm ayarları tek bir yerde toplar, böylece
// her yerde ayrı ayrı os.Getenv() çağırmak yerine tek bir Config nesnesi taşırız.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Log          LogConfig
	Discord      DiscordConfig
	Email        EmailConfig
	FiveM        FiveMConfig
	Status       StatusConfig
	Applications ApplicationConfig
	Admin        AdminConfig
}

// ServerConfig, HTTP server ayarları.
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // CORS: virgülle ayrılmış liste
	PublicURL      string   // OAuth redirect sonrası frontend adresi
}

// DatabaseConfig, SQLite database ayarları.
type DatabaseConfig struct {
	Path string // SQLite dosya yolu (ör: ./data/portal.db)
}

// JWTConfig, JWT token ayarları.
type JWTConfig struct {
	Secret             string // Token imzalama anahtarı, GİZLİ TUTULMALI
	AccessTokenExpiry  int    // Dakika cinsinden (varsayılan: 15)
	RefreshTokenExpiry int    // Gün cinsinden (varsayılan: 7)
}

// LogConfig, logrus seviye ve format ayarları.
type LogConfig struct {
	Level  string
	Format string // "text" veya "json"
}

// DiscordConfig, Discord OAuth ve staff webhook ayarları.
// ClientID boşsa Discord login devre dışıdır; WebhookURL boşsa bildirim gönderilmez.
type DiscordConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	WebhookURL   string
}

// Enabled, OAuth login için gerekli alanlar dolu mu?
func (c *DiscordConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURI != ""
}

// EmailConfig, Resend email ayarları (opsiyonel).
type EmailConfig struct {
	ResendAPIKey string
	FromEmail    string
	AppURL       string
}

// Enabled, email gönderimi için gerekli alanlar dolu mu?
func (c *EmailConfig) Enabled() bool {
	return c.ResendAPIKey != "" && c.FromEmail != "" && c.AppURL != ""
}

// FiveMConfig, oyun sunucusunun HTTP endpoint adresi.
type FiveMConfig struct {
	Host string
	Port int
}

// BaseURL, info.json ve players.json'un bulunduğu kök adres.
func (c *FiveMConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// StatusConfig, canlı sunucu durumu broadcast ayarları.
type StatusConfig struct {
	Interval     time.Duration // Broadcast tick periyodu (varsayılan: 30s)
	FetchTimeout time.Duration // Upstream fetch bütçesi (varsayılan: 5s)
}

// ApplicationConfig, başvuru workflow'u ile ilgili kararlar.
type ApplicationConfig struct {
	// Transitions: "permissive" (her durumdan her duruma) veya "strict".
	Transitions string
	// AllowDuplicates: true ise kullanıcı aynı anda birden fazla açık başvuru tutabilir.
	AllowDuplicates bool
}

// AdminConfig, ilk açılışta oluşturulacak admin hesabı.
// Username veya Password boşsa bootstrap atlanır.
type AdminConfig struct {
	Username string
	Password string
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler (development kolaylığı için).
func Load() (*Config, error) {
	// .env yoksa hata vermez, sessizce devam eder.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "5000"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	accessExpiry, err := strconv.Atoi(getEnv("JWT_ACCESS_EXPIRY_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_EXPIRY_MINUTES: %w", err)
	}

	refreshExpiry, err := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRY_DAYS", "7"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRY_DAYS: %w", err)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	fivemPort, err := strconv.Atoi(getEnv("FIVEM_SERVER_PORT", "30120"))
	if err != nil {
		return nil, fmt.Errorf("invalid FIVEM_SERVER_PORT: %w", err)
	}

	interval, err := time.ParseDuration(getEnv("STATUS_BROADCAST_INTERVAL", "30s"))
	if err != nil || interval <= 0 {
		return nil, fmt.Errorf("invalid STATUS_BROADCAST_INTERVAL: %q", getEnv("STATUS_BROADCAST_INTERVAL", ""))
	}

	fetchTimeout, err := time.ParseDuration(getEnv("STATUS_FETCH_TIMEOUT", "5s"))
	if err != nil || fetchTimeout <= 0 {
		return nil, fmt.Errorf("invalid STATUS_FETCH_TIMEOUT: %q", getEnv("STATUS_FETCH_TIMEOUT", ""))
	}

	transitions := strings.ToLower(getEnv("APPLICATION_TRANSITIONS", "permissive"))
	if transitions != "permissive" && transitions != "strict" {
		return nil, fmt.Errorf("invalid APPLICATION_TRANSITIONS: %q (want permissive or strict)", transitions)
	}

	allowDuplicates, err := strconv.ParseBool(getEnv("APPLICATION_ALLOW_DUPLICATES", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid APPLICATION_ALLOW_DUPLICATES: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:5000")),
			PublicURL:      getEnv("PUBLIC_URL", "http://localhost:5000"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/portal.db"),
		},
		JWT: JWTConfig{
			Secret:             jwtSecret,
			AccessTokenExpiry:  accessExpiry,
			RefreshTokenExpiry: refreshExpiry,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Discord: DiscordConfig{
			ClientID:     getEnv("DISCORD_CLIENT_ID", ""),
			ClientSecret: getEnv("DISCORD_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("DISCORD_REDIRECT_URI", ""),
			WebhookURL:   getEnv("DISCORD_STAFF_WEBHOOK_URL", ""),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("RESEND_FROM", ""),
			AppURL:       getEnv("APP_URL", ""),
		},
		FiveM: FiveMConfig{
			Host: getEnv("FIVEM_SERVER_IP", "127.0.0.1"),
			Port: fivemPort,
		},
		Status: StatusConfig{
			Interval:     interval,
			FetchTimeout: fetchTimeout,
		},
		Applications: ApplicationConfig{
			Transitions:     transitions,
			AllowDuplicates: allowDuplicates,
		},
		Admin: AdminConfig{
			Username: getEnv("ADMIN_USERNAME", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
	}

	return cfg, nil
}

// Addr, HTTP server'ın dinleyeceği adresi döner (ör: "0.0.0.0:5000").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
