// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Error karşılaştırması string yerine referans ile yapılır:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
package pkg

import (
	"errors"
	"fmt"
	"strings"
)

// Domain-level error'lar.
// Handler katmanı bu error'ları HTTP status code'larına map'ler.
//
// ErrUnauthorized kimlik yok demektir ("giriş yapmalısın"),
// ErrForbidden kimlik var ama yetki yok demektir ("erişim reddedildi").
var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("conflict")
	ErrBadRequest    = errors.New("bad request")
	ErrRateLimited   = errors.New("too many requests")
	ErrInternal      = errors.New("internal error")
)

// FieldError, tek bir alanın validation hatası.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError, bir veya birden fazla alan hatasını taşır.
// errors.Is(err, ErrBadRequest) true döner, böylece handler 400'e map'ler.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError, tek alanlı bir ValidationError oluşturur.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Add, yeni bir alan hatası ekler.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasErrors, en az bir alan hatası varsa true.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// OrNil, hata yoksa nil döner. Typed-nil interface tuzağına düşmemek için
// fonksiyonlar `return v.OrNil()` şeklinde döner.
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return fmt.Sprintf("%s: %s", ErrBadRequest.Error(), strings.Join(parts, "; "))
}

// Is, errors.Is(err, ErrBadRequest) eşleşmesini sağlar.
func (e *ValidationError) Is(target error) bool {
	return target == ErrBadRequest
}
