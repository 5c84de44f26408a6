package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// StaffMember, public "ekibimiz" sayfasında gösterilen ekip üyesi.
// Bir portal kullanıcısına bağlı olabilir (UserID) ama zorunlu değil.
type StaffMember struct {
	ID           int64       `json:"id"`
	UserID       *int64      `json:"user_id"`
	Name         string      `json:"name"`
	Role         string      `json:"role"`
	Position     string      `json:"position"`
	Avatar       *string     `json:"avatar"`
	Bio          *string     `json:"bio"`
	JoinedAt     time.Time   `json:"joined_at"`
	DisplayOrder int         `json:"display_order"`
	IsActive     bool        `json:"is_active"`
	SocialLinks  SocialLinks `json:"social_links"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// SocialLinks, DB'de JSON kolonu olarak saklanır.
type SocialLinks struct {
	Discord   string `json:"discord,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Twitch    string `json:"twitch,omitempty"`
}

// DefaultDisplayOrder, sıra verilmeyen üyeler listenin sonuna düşer.
const DefaultDisplayOrder = 999

// CreateStaffMemberRequest, yeni ekip üyesi oluşturma isteği.
type CreateStaffMemberRequest struct {
	UserID       *int64       `json:"user_id"`
	Name         string       `json:"name"`
	Role         string       `json:"role"`
	Position     string       `json:"position"`
	Avatar       *string      `json:"avatar"`
	Bio          *string      `json:"bio"`
	JoinedAt     *time.Time   `json:"joined_at"`
	DisplayOrder *int         `json:"display_order"`
	IsActive     *bool        `json:"is_active"`
	SocialLinks  *SocialLinks `json:"social_links"`
}

// Validate, zorunlu alanları kontrol eder.
func (r *CreateStaffMemberRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if n := utf8.RuneCountInString(r.Name); n < 1 || n > 64 {
		return fmt.Errorf("name must be between 1 and 64 characters")
	}
	r.Role = strings.TrimSpace(r.Role)
	if r.Role == "" {
		return fmt.Errorf("role is required")
	}
	r.Position = strings.TrimSpace(r.Position)
	if r.Position == "" {
		return fmt.Errorf("position is required")
	}
	return nil
}

// ToMember, request'i varsayılanlar doldurulmuş bir StaffMember'a çevirir.
func (r *CreateStaffMemberRequest) ToMember(now time.Time) *StaffMember {
	m := &StaffMember{
		UserID:       r.UserID,
		Name:         r.Name,
		Role:         r.Role,
		Position:     r.Position,
		Avatar:       r.Avatar,
		Bio:          r.Bio,
		JoinedAt:     now,
		DisplayOrder: DefaultDisplayOrder,
		IsActive:     true,
	}
	if r.JoinedAt != nil {
		m.JoinedAt = *r.JoinedAt
	}
	if r.DisplayOrder != nil {
		m.DisplayOrder = *r.DisplayOrder
	}
	if r.IsActive != nil {
		m.IsActive = *r.IsActive
	}
	if r.SocialLinks != nil {
		m.SocialLinks = *r.SocialLinks
	}
	return m
}

// UpdateStaffMemberRequest, partial update. nil alanlar değişmez.
type UpdateStaffMemberRequest struct {
	UserID       *int64       `json:"user_id"`
	Name         *string      `json:"name"`
	Role         *string      `json:"role"`
	Position     *string      `json:"position"`
	Avatar       *string      `json:"avatar"`
	Bio          *string      `json:"bio"`
	JoinedAt     *time.Time   `json:"joined_at"`
	DisplayOrder *int         `json:"display_order"`
	IsActive     *bool        `json:"is_active"`
	SocialLinks  *SocialLinks `json:"social_links"`
}

// Validate, verilen alanları kontrol eder.
func (r *UpdateStaffMemberRequest) Validate() error {
	if r.Name != nil {
		*r.Name = strings.TrimSpace(*r.Name)
		if n := utf8.RuneCountInString(*r.Name); n < 1 || n > 64 {
			return fmt.Errorf("name must be between 1 and 64 characters")
		}
	}
	if r.Role != nil && strings.TrimSpace(*r.Role) == "" {
		return fmt.Errorf("role cannot be empty")
	}
	if r.Position != nil && strings.TrimSpace(*r.Position) == "" {
		return fmt.Errorf("position cannot be empty")
	}
	return nil
}

// Apply, verilen alanları üyeye uygular.
func (r *UpdateStaffMemberRequest) Apply(m *StaffMember) {
	if r.UserID != nil {
		m.UserID = r.UserID
	}
	if r.Name != nil {
		m.Name = *r.Name
	}
	if r.Role != nil {
		m.Role = strings.TrimSpace(*r.Role)
	}
	if r.Position != nil {
		m.Position = strings.TrimSpace(*r.Position)
	}
	if r.Avatar != nil {
		m.Avatar = r.Avatar
	}
	if r.Bio != nil {
		m.Bio = r.Bio
	}
	if r.JoinedAt != nil {
		m.JoinedAt = *r.JoinedAt
	}
	if r.DisplayOrder != nil {
		m.DisplayOrder = *r.DisplayOrder
	}
	if r.IsActive != nil {
		m.IsActive = *r.IsActive
	}
	if r.SocialLinks != nil {
		m.SocialLinks = *r.SocialLinks
	}
}
