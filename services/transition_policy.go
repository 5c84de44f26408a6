package services

import (
	"strings"

	"github.com/tokyoedge/portal/models"
)

// TransitionPolicy, admin review'da hangi durum geçişlerine izin verildiğini belirler.
// Reopen bu policy'den bağımsızdır: sonuçlanmış başvuru her zaman in_review'a dönebilir.
type TransitionPolicy interface {
	Name() string
	Allow(from, to models.ApplicationStatus) bool
	// Serialized true ise review sadece okunan durum hâlâ geçerliyse yazılır;
	// arada başka bir review yazdıysa ErrConflict döner. false ise son yazan kazanır.
	Serialized() bool
}

// PermissivePolicy, her durumdan her duruma geçişe izin verir (varsayılan).
type PermissivePolicy struct{}

func (PermissivePolicy) Name() string { return "permissive" }

func (PermissivePolicy) Serialized() bool { return false }

func (PermissivePolicy) Allow(from, to models.ApplicationStatus) bool {
	return from.Valid() && to.Valid()
}

// StrictPolicy, workflow sırasını zorlar:
//
//	pending   → pending | in_review
//	in_review → in_review | approved | rejected
//	approved, rejected → (sadece Reopen)
type StrictPolicy struct{}

func (StrictPolicy) Name() string { return "strict" }

// Serialized: approved/rejected terminal olduğundan iki eşzamanlı karar
// birbirini ezmemeli.
func (StrictPolicy) Serialized() bool { return true }

func (StrictPolicy) Allow(from, to models.ApplicationStatus) bool {
	switch from {
	case models.StatusPending:
		return to == models.StatusPending || to == models.StatusInReview
	case models.StatusInReview:
		return to == models.StatusInReview || to == models.StatusApproved || to == models.StatusRejected
	}
	return false
}

// PolicyByName, config değerinden policy seçer. Bilinmeyen değer permissive'dir.
func PolicyByName(name string) TransitionPolicy {
	if strings.EqualFold(strings.TrimSpace(name), "strict") {
		return StrictPolicy{}
	}
	return PermissivePolicy{}
}
