// Package services, business logic katmanını barındırır.
//
// Service Layer Pattern nedir?
// Handler (HTTP) ile Repository (DB) arasında oturan katmandır.
// Tüm iş kuralları burada yaşar:
//   - Şifre hash'leme ve token üretimi
//   - Yetki kontrolleri (Identity üzerinden)
//   - Başvuru durum geçişleri
//
// Service ASLA http.Request/Response bilmez, sadece domain modelleri alır/verir.
// Service ASLA doğrudan SQL çalıştırmaz, Repository interface'i kullanır.
package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/tokyoedge/portal/database"
	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg"
	"github.com/tokyoedge/portal/pkg/cache"
	"github.com/tokyoedge/portal/pkg/logger"
	"github.com/tokyoedge/portal/repository"
)

var authLog = logger.For("auth")

// bcryptCost, şifre hash maliyeti.
const bcryptCost = 12

// AuthService interface'i, dışarıya açık API.
// Handler bu interface'e bağımlıdır, concrete struct'a değil.
type AuthService interface {
	Register(ctx context.Context, req *models.CreateUserRequest) (*AuthTokens, error)
	Login(ctx context.Context, req *models.LoginRequest) (*AuthTokens, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)

	// DiscordAuthURL, Discord onay sayfası URL'ini üretir. redirectTo,
	// callback sonrası kullanıcının döneceği portal içi path'tir.
	DiscordAuthURL(redirectTo string) (string, error)
	// DiscordCallback, code'u doğrular, kullanıcıyı discord_id ile bulur
	// veya oluşturur ve token çifti ile redirect path'ini döner.
	DiscordCallback(ctx context.Context, code, state string) (*AuthTokens, string, error)

	// EnsureAdmin, verilen kullanıcı yoksa admin olarak oluşturur,
	// varsa admin rolüne yükseltir. Şifre mevcut hesapta değiştirilmez.
	EnsureAdmin(ctx context.Context, username, password string) error
}

// DiscordOAuth, Discord authorization code flow'u (pkg/discord.OAuth).
type DiscordOAuth interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*models.DiscordProfile, error)
}

// AuthTokens, login/register sonrası dönen token çifti.
type AuthTokens struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

type authService struct {
	db          *sql.DB // refresh rotation transaction'ı için
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	discord     DiscordOAuth                    // nil → Discord login kapalı
	states      *cache.TTLCache[string, string] // state → redirectTo
	jwtSecret   []byte
	accessExp   time.Duration
	refreshExp  time.Duration
	now         func() time.Time
}

// NewAuthService, constructor.
//
// discord nil olabilir; bu durumda Discord endpoint'leri ErrBadRequest döner.
// states, OAuth state değerlerini tek kullanımlık tutan cache'tir.
func NewAuthService(
	db *sql.DB,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	discord DiscordOAuth,
	states *cache.TTLCache[string, string],
	jwtSecret string,
	accessExpMinutes int,
	refreshExpDays int,
) AuthService {
	return &authService{
		db:          db,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		discord:     discord,
		states:      states,
		jwtSecret:   []byte(jwtSecret),
		accessExp:   time.Duration(accessExpMinutes) * time.Minute,
		refreshExp:  time.Duration(refreshExpDays) * 24 * time.Hour,
		now:         time.Now,
	}
}

// Register, yeni kullanıcı kaydı oluşturur. Yeni hesaplar her zaman "user" rolündedir.
func (s *authService) Register(ctx context.Context, req *models.CreateUserRequest) (*AuthTokens, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var email *string
	if req.Email != "" {
		email = &req.Email
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Email:        email,
		Role:         models.RoleUser,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err // ErrAlreadyExists olabilir
	}

	authLog.WithField("user_id", user.ID).Info("user registered")
	return s.generateTokens(ctx, user)
}

// Login, kullanıcı adı + şifre ile giriş.
//
// Discord ile oluşmuş hesapların şifresi yoktur; bu hesaplar
// şifre ile giriş yapamaz.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*AuthTokens, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid username or password", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if user.PasswordHash == "" {
		return nil, fmt.Errorf("%w: this account uses Discord login", pkg.ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid username or password", pkg.ErrUnauthorized)
	}

	return s.generateTokens(ctx, user)
}

// RefreshToken, refresh token'ı rotate eder: eski session silinir, yenisi oluşur.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh_token is required", pkg.ErrBadRequest)
	}

	session, err := s.sessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid refresh token", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if s.now().After(session.ExpiresAt) {
		if delErr := s.sessionRepo.DeleteByID(ctx, session.ID); delErr != nil {
			return nil, fmt.Errorf("failed to delete expired session: %w", delErr)
		}
		return nil, fmt.Errorf("%w: refresh token expired", pkg.ErrUnauthorized)
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			_ = s.sessionRepo.DeleteByID(ctx, session.ID)
			return nil, fmt.Errorf("%w: user no longer exists", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	// Eski session'ın silinmesi ve yenisinin yazılması tek transaction:
	// yarıda kalırsa kullanıcı ne token'sız kalır ne de iki geçerli token'ı olur.
	var tokens *AuthTokens
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		txSessions := repository.NewSQLiteSessionRepo(tx)

		if err := txSessions.DeleteByID(ctx, session.ID); err != nil {
			return fmt.Errorf("failed to delete old session: %w", err)
		}

		var issueErr error
		tokens, issueErr = s.issueTokens(ctx, txSessions, user)
		return issueErr
	})
	if err != nil {
		return nil, err
	}

	return tokens, nil
}

// Logout, refresh token'ı iptal eder (session siler). Bilinmeyen token hata değildir.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.sessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.sessionRepo.DeleteByID(ctx, session.ID); err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return err
	}
	return nil
}

// ValidateAccessToken, JWT access token'ı doğrular ve claims'i döner.
func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}

	return claims, nil
}

// ─── Discord OAuth ───

func (s *authService) DiscordAuthURL(redirectTo string) (string, error) {
	if s.discord == nil {
		return "", fmt.Errorf("%w: discord login is not configured", pkg.ErrBadRequest)
	}

	state, err := randomHex(16)
	if err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	s.states.Set(state, SafeRedirectPath(redirectTo))

	return s.discord.AuthURL(state), nil
}

func (s *authService) DiscordCallback(ctx context.Context, code, state string) (*AuthTokens, string, error) {
	if s.discord == nil {
		return nil, "", fmt.Errorf("%w: discord login is not configured", pkg.ErrBadRequest)
	}
	if code == "" {
		return nil, "", fmt.Errorf("%w: missing authorization code", pkg.ErrBadRequest)
	}

	// State tek kullanımlık: Take ile okunur ve silinir.
	redirectTo, ok := s.states.Take(state)
	if state == "" || !ok {
		return nil, "", fmt.Errorf("%w: invalid or expired oauth state", pkg.ErrUnauthorized)
	}

	profile, err := s.discord.Exchange(ctx, code)
	if err != nil {
		authLog.WithError(err).Warn("discord code exchange failed")
		return nil, redirectTo, fmt.Errorf("%w: discord authentication failed", pkg.ErrUnauthorized)
	}

	user, err := s.upsertDiscordUser(ctx, profile)
	if err != nil {
		return nil, redirectTo, err
	}

	tokens, err := s.generateTokens(ctx, user)
	if err != nil {
		return nil, redirectTo, err
	}
	return tokens, redirectTo, nil
}

// upsertDiscordUser, discord_id ile kullanıcıyı bulur; varsa Discord
// adını ve avatarını günceller, yoksa yeni "user" hesabı oluşturur.
func (s *authService) upsertDiscordUser(ctx context.Context, profile *models.DiscordProfile) (*models.User, error) {
	discordName := profile.Username
	var avatar *string
	if profile.Avatar != "" {
		avatar = &profile.Avatar
	}

	existing, err := s.userRepo.GetByDiscordID(ctx, profile.ID)
	if err == nil {
		if err := s.userRepo.UpdateDiscordProfile(ctx, existing.ID, &discordName, avatar); err != nil {
			return nil, fmt.Errorf("failed to update discord profile: %w", err)
		}
		existing.DiscordUsername = &discordName
		existing.Avatar = avatar
		return existing, nil
	}
	if !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}

	username, err := s.freeUsername(ctx, discordName, profile.ID)
	if err != nil {
		return nil, err
	}

	discordID := profile.ID
	user := &models.User{
		Username:        username,
		DiscordID:       &discordID,
		DiscordUsername: &discordName,
		Avatar:          avatar,
		Role:            models.RoleUser,
		CreatedAt:       s.now().UTC(),
	}
	if profile.Email != "" {
		email := profile.Email
		user.Email = &email
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Aynı Discord hesabı için eşzamanlı iki callback: kazanan kaydı kullan.
		if errors.Is(err, pkg.ErrAlreadyExists) {
			if again, getErr := s.userRepo.GetByDiscordID(ctx, profile.ID); getErr == nil {
				return again, nil
			}
		}
		return nil, err
	}

	authLog.WithFields(logrus.Fields{"user_id": user.ID, "discord_id": discordID}).Info("discord user created")
	return user, nil
}

// freeUsername, Discord adı portalda başka birine aitse sonuna
// Discord id'sinin son haneleri eklenir.
func (s *authService) freeUsername(ctx context.Context, name, discordID string) (string, error) {
	candidate := name
	if candidate == "" {
		candidate = "discord"
	}

	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.userRepo.GetByUsername(ctx, candidate)
		if errors.Is(err, pkg.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}

		suffix := discordID
		if len(suffix) > 4+attempt*2 {
			suffix = suffix[len(suffix)-(4+attempt*2):]
		}
		candidate = name + "_" + suffix
	}
	return "", fmt.Errorf("%w: could not pick a free username for %q", pkg.ErrAlreadyExists, name)
}

// ─── Bootstrap ───

func (s *authService) EnsureAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if user.IsAdmin() {
			return nil
		}
		if err := s.userRepo.UpdateRole(ctx, user.ID, models.RoleAdmin); err != nil {
			return fmt.Errorf("failed to promote admin: %w", err)
		}
		authLog.WithField("username", username).Info("existing user promoted to admin")
		return nil
	case !errors.Is(err, pkg.ErrNotFound):
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	authLog.WithField("username", username).Info("admin account created")
	return nil
}

// ─── Private Helpers ───

func (s *authService) generateTokens(ctx context.Context, user *models.User) (*AuthTokens, error) {
	return s.issueTokens(ctx, s.sessionRepo, user)
}

// issueTokens, access token imzalar ve refresh token'ı verilen
// session repository'sine yazar (transaction içinde tx'e bağlı olan).
func (s *authService) issueTokens(ctx context.Context, sessions repository.SessionRepository, user *models.User) (*AuthTokens, error) {
	now := s.now()
	accessClaims := &models.TokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExp)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "tokyoedge-portal",
		},
	}

	accessString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshString, err := randomHex(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: refreshString,
		ExpiresAt:    now.Add(s.refreshExp).UTC(),
		CreatedAt:    now.UTC(),
	}
	if err := sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	out := *user
	out.PasswordHash = ""

	return &AuthTokens{
		AccessToken:  accessString,
		RefreshToken: refreshString,
		User:         out,
	}, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// SafeRedirectPath, OAuth sonrası yönlendirmeyi portal içi path'lerle sınırlar.
// "/apply" geçerli; "https://evil.test", "//evil.test" ve boş değer "/" olur.
func SafeRedirectPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, `\`) {
		return "/"
	}
	return p
}
