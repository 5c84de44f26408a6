package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tokyoedge/portal/pkg"
)

// ApplicationStatus, staff başvurusunun inceleme durumu.
//
//	pending → in_review → approved | rejected
//
// Hangi geçişlere izin verildiği services.TransitionPolicy'ye bağlıdır.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusInReview ApplicationStatus = "in_review"
	StatusApproved ApplicationStatus = "approved"
	StatusRejected ApplicationStatus = "rejected"
)

// ApplicationStatuses, tüm geçerli durumlar (dashboard sayımları bu sırayı kullanır).
var ApplicationStatuses = []ApplicationStatus{
	StatusPending,
	StatusInReview,
	StatusApproved,
	StatusRejected,
}

// Valid, durum dört enum değerinden biri mi?
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Open, başvuru hâlâ karar bekliyor mu? (pending veya in_review)
func (s ApplicationStatus) Open() bool {
	return s == StatusPending || s == StatusInReview
}

// Decided, başvuru sonuçlandı mı? (approved veya rejected)
func (s ApplicationStatus) Decided() bool {
	return s == StatusApproved || s == StatusRejected
}

// Application, bir kullanıcının staff başvurusu.
//
// UserID ve CreatedAt oluşturulduktan sonra değişmez.
// Status, AdminNotes ve ReviewedBy sadece admin review ile değişir.
// Başvurular hiçbir endpoint üzerinden silinmez.
type Application struct {
	ID                   int64             `json:"id"`
	UserID               int64             `json:"user_id"`
	Age                  int               `json:"age"`
	Timezone             string            `json:"timezone"`
	Languages            string            `json:"languages"`
	Availability         int               `json:"availability"` // saat/hafta
	RPExperience         string            `json:"rp_experience"`
	ModerationExperience string            `json:"moderation_experience"`
	ServerFamiliarity    string            `json:"server_familiarity"`
	WhyJoin              string            `json:"why_join"`
	Scenario             string            `json:"scenario"`
	Contribution         string            `json:"contribution"`
	AdditionalInfo       *string           `json:"additional_info"`
	Status               ApplicationStatus `json:"status"`
	AdminNotes           *string           `json:"admin_notes"`
	ReviewedBy           *int64            `json:"reviewed_by"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// ApplicationWithUser, başvuru + başvuranın özeti.
// Kullanıcı silinmişse User null döner, başvuru yine listelenir.
type ApplicationWithUser struct {
	Application
	User *UserSummary `json:"user"`
}

// ApplicationPage, admin listesinin sayfalanmış cevabı.
type ApplicationPage struct {
	Items  []ApplicationWithUser `json:"items"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// Liste sayfalama sınırları.
const (
	DefaultApplicationLimit = 10
	MaxApplicationLimit     = 100
)

// ApplicationFilter, admin listesi için filtre.
type ApplicationFilter struct {
	Status *ApplicationStatus
	Limit  int
	Offset int
}

// Normalize, filtreyi doğrular ve limit/offset'i sınırlar içine çeker.
func (f *ApplicationFilter) Normalize() error {
	if f.Status != nil && !f.Status.Valid() {
		return pkg.NewValidationError("status", fmt.Sprintf("unknown status %q", *f.Status))
	}
	if f.Limit <= 0 {
		f.Limit = DefaultApplicationLimit
	}
	if f.Limit > MaxApplicationLimit {
		f.Limit = MaxApplicationLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return nil
}

// SubmitApplicationRequest, başvuru formundan gelen veri.
// Status, notlar ve reviewer bu request'te yoktur; gönderilse bile yok sayılır.
type SubmitApplicationRequest struct {
	Age                  int     `json:"age"`
	Timezone             string  `json:"timezone"`
	Languages            string  `json:"languages"`
	Availability         int     `json:"availability"`
	RPExperience         string  `json:"rp_experience"`
	ModerationExperience string  `json:"moderation_experience"`
	ServerFamiliarity    string  `json:"server_familiarity"`
	WhyJoin              string  `json:"why_join"`
	Scenario             string  `json:"scenario"`
	Contribution         string  `json:"contribution"`
	AdditionalInfo       *string `json:"additional_info"`
}

// Başvuru formu sınırları.
const (
	MinApplicantAge  = 16
	MaxApplicantAge  = 99
	MinAvailability  = 5
	MaxAvailability  = 168
	MinLongAnswerLen = 20
)

// Validate, tüm alanları kontrol eder ve hatalı alanların hepsini birden döner.
func (r *SubmitApplicationRequest) Validate() error {
	v := &pkg.ValidationError{}

	if r.Age < MinApplicantAge {
		v.Add("age", fmt.Sprintf("must be at least %d", MinApplicantAge))
	} else if r.Age > MaxApplicantAge {
		v.Add("age", "invalid age")
	}

	if r.Availability < MinAvailability || r.Availability > MaxAvailability {
		v.Add("availability", fmt.Sprintf("must be between %d and %d hours per week", MinAvailability, MaxAvailability))
	}

	r.Timezone = strings.TrimSpace(r.Timezone)
	r.Languages = strings.TrimSpace(r.Languages)
	r.RPExperience = strings.TrimSpace(r.RPExperience)
	r.ModerationExperience = strings.TrimSpace(r.ModerationExperience)
	r.ServerFamiliarity = strings.TrimSpace(r.ServerFamiliarity)
	r.WhyJoin = strings.TrimSpace(r.WhyJoin)
	r.Scenario = strings.TrimSpace(r.Scenario)
	r.Contribution = strings.TrimSpace(r.Contribution)

	minLen(v, "timezone", r.Timezone, 1)
	minLen(v, "languages", r.Languages, 3)
	minLen(v, "rp_experience", r.RPExperience, MinLongAnswerLen)
	minLen(v, "moderation_experience", r.ModerationExperience, 5)
	minLen(v, "server_familiarity", r.ServerFamiliarity, 1)
	minLen(v, "why_join", r.WhyJoin, MinLongAnswerLen)
	minLen(v, "scenario", r.Scenario, MinLongAnswerLen)
	minLen(v, "contribution", r.Contribution, MinLongAnswerLen)

	if r.AdditionalInfo != nil {
		trimmed := strings.TrimSpace(*r.AdditionalInfo)
		if trimmed == "" {
			r.AdditionalInfo = nil
		} else {
			r.AdditionalInfo = &trimmed
		}
	}

	return v.OrNil()
}

func minLen(v *pkg.ValidationError, field, value string, n int) {
	if value == "" {
		v.Add(field, "is required")
		return
	}
	if utf8.RuneCountInString(value) < n {
		v.Add(field, fmt.Sprintf("must be at least %d characters", n))
	}
}

// ReviewApplicationRequest, admin'in inceleme kararı.
// AdminNotes null gelirse mevcut not silinir (review her şeyi üzerine yazar).
type ReviewApplicationRequest struct {
	Status     ApplicationStatus `json:"status"`
	AdminNotes *string           `json:"admin_notes"`
}

// Validate, status'un geçerli bir enum değeri olduğunu kontrol eder.
func (r *ReviewApplicationRequest) Validate() error {
	if r.Status == "" {
		return pkg.NewValidationError("status", "is required")
	}
	if !r.Status.Valid() {
		return pkg.NewValidationError("status", fmt.Sprintf("unknown status %q", r.Status))
	}
	return nil
}

// ReopenApplicationRequest, sonuçlanmış bir başvuruyu tekrar incelemeye alma isteği.
type ReopenApplicationRequest struct {
	AdminNotes *string `json:"admin_notes"`
}
