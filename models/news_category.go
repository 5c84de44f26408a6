package models

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// NewsCategory, haber kategorisi (Atualização, Evento vb.).
type NewsCategory struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}

// DefaultCategoryColor, renk verilmezse kullanılan varsayılan.
const DefaultCategoryColor = "#00E5FF"

var (
	slugRegex  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	colorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// CreateCategoryRequest, yeni kategori oluşturma isteği.
type CreateCategoryRequest struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}

// Validate, CreateCategoryRequest'in geçerli olup olmadığını kontrol eder.
// Slug boşsa isimden türetilir.
func (r *CreateCategoryRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	nameLen := utf8.RuneCountInString(r.Name)
	if nameLen < 1 || nameLen > 100 {
		return fmt.Errorf("category name must be between 1 and 100 characters")
	}

	r.Slug = strings.TrimSpace(r.Slug)
	if r.Slug == "" {
		r.Slug = Slugify(r.Name)
	}
	if !slugRegex.MatchString(r.Slug) {
		return fmt.Errorf("slug must contain only lowercase letters, numbers and dashes")
	}

	r.Color = strings.TrimSpace(r.Color)
	if r.Color == "" {
		r.Color = DefaultCategoryColor
	}
	if !colorRegex.MatchString(r.Color) {
		return fmt.Errorf("color must be a hex value like #00E5FF")
	}
	return nil
}

// UpdateCategoryRequest, kategori güncelleme isteği (partial update).
type UpdateCategoryRequest struct {
	Name  *string `json:"name"`
	Slug  *string `json:"slug"`
	Color *string `json:"color"`
}

// Validate, UpdateCategoryRequest'in geçerli olup olmadığını kontrol eder.
func (r *UpdateCategoryRequest) Validate() error {
	if r.Name != nil {
		*r.Name = strings.TrimSpace(*r.Name)
		nameLen := utf8.RuneCountInString(*r.Name)
		if nameLen < 1 || nameLen > 100 {
			return fmt.Errorf("category name must be between 1 and 100 characters")
		}
	}
	if r.Slug != nil {
		*r.Slug = strings.TrimSpace(*r.Slug)
		if !slugRegex.MatchString(*r.Slug) {
			return fmt.Errorf("slug must contain only lowercase letters, numbers and dashes")
		}
	}
	if r.Color != nil {
		*r.Color = strings.TrimSpace(*r.Color)
		if !colorRegex.MatchString(*r.Color) {
			return fmt.Errorf("color must be a hex value like #00E5FF")
		}
	}
	return nil
}

// Slugify, bir başlıktan URL-safe slug üretir.
// Aksanlı Latin harfleri ASCII karşılığına indirilir ("Atualização" → "atualizacao").
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if folded, ok := accentFold[r]; ok {
			r = folded
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

var accentFold = map[rune]rune{
	'á': 'a', 'à': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i',
	'ó': 'o', 'ò': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o',
	'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u',
	'ç': 'c', 'ñ': 'n', 'ğ': 'g', 'ş': 's', 'ı': 'i',
}
