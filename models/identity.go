package models

// Identity, bir çağrıyı yapan tarafın kimliği.
//
// Service katmanı http.Request görmez; handler context'teki kullanıcıdan
// bir Identity üretip service'e geçer. Anonim çağrı sıfır değerdir.
type Identity struct {
	UserID          int64
	IsAuthenticated bool
	IsAdmin         bool
}

// Anonymous, giriş yapmamış çağıran.
var Anonymous = Identity{}

// IdentityOf, kullanıcıdan Identity üretir. nil kullanıcı anonimdir.
func IdentityOf(u *User) Identity {
	if u == nil {
		return Anonymous
	}
	return Identity{
		UserID:          u.ID,
		IsAuthenticated: true,
		IsAdmin:         u.IsAdmin(),
	}
}
