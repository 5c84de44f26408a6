package models

import "time"

// Session, JWT refresh token oturumunu temsil eder.
//
// Access token kısa ömürlü (15dk), refresh token uzun ömürlü (7 gün).
// Refresh token'lar DB'de tutulur: logout'ta ilgili oturum silinir,
// süresi dolanlar saatlik housekeeping job'ı ile temizlenir.
type Session struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"user_id"`
	RefreshToken string    `json:"-"` // API'ye gönderilmez
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}
