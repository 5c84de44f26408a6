package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims, JWT access token'ın payload'ı.
//
// Role token'a gömülür ama yetki kararı yine DB'deki güncel kullanıcıdan
// verilir: middleware her request'te kullanıcıyı tekrar okur, böylece
// admin yetkisi alınan biri eski token ile admin kalamaz.
type TokenClaims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}
