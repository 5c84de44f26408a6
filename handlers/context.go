package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg"
)

// contextKey, context'te kullanıcı bilgisi taşımak için kullanılan key tipi.
//
// Go'da context.Value() any tip kabul eder: string key kullanmak çakışmaya neden olabilir.
// Özel bir tip tanımlayarak namespace collision'ı önleriz.
type contextKey string

// UserContextKey, auth middleware'ın context'e koyduğu *models.User.
const UserContextKey contextKey = "user"

// currentUser, context'teki kullanıcıyı döner. Anonim request'te nil.
func currentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(UserContextKey).(*models.User)
	return user
}

// identity, request'i yapan tarafın kimliği. Service'ler yetki kararını bununla verir.
func identity(r *http.Request) models.Identity {
	return models.IdentityOf(currentUser(r))
}

// pathID, {id} path parametresini int64'e çevirir.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", pkg.ErrBadRequest, raw)
	}
	return id, nil
}

// queryInt, opsiyonel sayısal query parametresi. Parse edilemeyen değer fallback döner.
func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
