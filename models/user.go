// Package models, uygulamanın domain modellerini (veri yapıları) tanımlar.
//
// Model nedir?
// Veritabanındaki bir tablonun Go karşılığıdır.
// Aynı zamanda API'den gelen/giden verilerin şeklini de belirler.
//
// Go'da `json:"username"` gibi tag'ler, struct field'larının JSON'a
// nasıl serialize/deserialize edileceğini belirler.
package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Role, kullanıcının portal genelindeki yetki seviyesi.
// Go'da enum yoktur, bunun yerine typed constant'lar kullanılır.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User, bir kullanıcıyı temsil eder.
//
// Kullanıcı iki yoldan oluşabilir: kullanıcı adı + şifre ile kayıt
// veya Discord OAuth. Discord ile gelen kullanıcının şifresi yoktur,
// bu yüzden PasswordHash boş olabilir.
type User struct {
	ID              int64     `json:"id"`
	Username        string    `json:"username"`
	PasswordHash    string    `json:"-"` // json:"-" → API response'a DAHİL ETME
	DiscordID       *string   `json:"discord_id"`
	DiscordUsername *string   `json:"discord_username"`
	Avatar          *string   `json:"avatar"`
	Email           *string   `json:"email,omitempty"`
	Role            Role      `json:"role"`
	CreatedAt       time.Time `json:"created_at"`
}

// IsAdmin, kullanıcı admin rolüne sahip mi?
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Summary, başvuru listelerinde gösterilen kısa kullanıcı özeti.
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:              u.ID,
		Username:        u.Username,
		DiscordUsername: u.DiscordUsername,
		Avatar:          u.Avatar,
	}
}

// UserSummary, başka bir kayda iliştirilen kullanıcı bilgisi.
// Şifre, email ve rol gibi alanlar burada yer almaz.
type UserSummary struct {
	ID              int64   `json:"id"`
	Username        string  `json:"username"`
	DiscordUsername *string `json:"discord_username"`
	Avatar          *string `json:"avatar"`
}

// CreateUserRequest, kayıt olurken frontend'den gelen veri.
// PasswordHash yerine Password alırız: hash'leme service katmanında yapılır.
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// Validate, CreateUserRequest'in geçerli olup olmadığını kontrol eder.
// Validation kuralları:
//   - Username: 3-32 karakter, alfanumerik + alt çizgi
//   - Password: minimum 8 karakter
//   - Email: opsiyonel, verilirse geçerli formatta olmalı
func (r *CreateUserRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	usernameLen := utf8.RuneCountInString(r.Username)
	if usernameLen < 3 || usernameLen > 32 {
		return fmt.Errorf("username must be between 3 and 32 characters")
	}

	for _, ch := range r.Username {
		if !isValidUsernameChar(ch) {
			return fmt.Errorf("username can only contain letters, numbers, and underscores")
		}
	}

	if utf8.RuneCountInString(r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	r.Email = strings.TrimSpace(r.Email)
	if r.Email != "" && !emailRegex.MatchString(r.Email) {
		return fmt.Errorf("invalid email format")
	}

	return nil
}

// LoginRequest, giriş yaparken frontend'den gelen veri.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate, LoginRequest'in geçerli olup olmadığını kontrol eder.
func (r *LoginRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" {
		return fmt.Errorf("username is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// DiscordProfile, Discord OAuth sonrası /users/@me'den gelen kimlik bilgisi.
type DiscordProfile struct {
	ID       string
	Username string
	Avatar   string
	Email    string
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// isValidUsernameChar, username'de izin verilen karakterleri kontrol eder.
func isValidUsernameChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '_'
}
