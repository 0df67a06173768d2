package utils

import (
	"strings"

	"github.com/andrensetiawan/form-service/models"
)

// roleSynonyms maps free-form role strings found in old user records to a
// canonical role. Keys are lower-case with single spaces.
var roleSynonyms = map[string]models.Role{
	"admin":            models.RoleAdmin,
	"administrator":    models.RoleAdmin,
	"super admin":      models.RoleAdmin,
	"superadmin":       models.RoleAdmin,
	"owner":            models.RoleAdmin,
	"manager":          models.RoleManager,
	"manajer":          models.RoleManager,
	"kepala cabang":    models.RoleManager,
	"supervisor":       models.RoleManager,
	"spv":              models.RoleManager,
	"staff":            models.RoleStaff,
	"staf":             models.RoleStaff,
	"cs":               models.RoleStaff,
	"customer service": models.RoleStaff,
	"admin cabang":     models.RoleStaff,
	"kasir":            models.RoleStaff,
	"front office":     models.RoleStaff,
	"teknisi":          models.RoleTeknisi,
	"technician":       models.RoleTeknisi,
	"tech":             models.RoleTeknisi,
	"engineer":         models.RoleTeknisi,
	"user":             models.RoleUser,
	"pengguna":         models.RoleUser,
}

// roleFragments is the substring fallback, checked in order.
var roleFragments = []struct {
	fragment string
	role     models.Role
}{
	{"admin", models.RoleAdmin},
	{"manag", models.RoleManager},
	{"manaj", models.RoleManager},
	{"tekni", models.RoleTeknisi},
	{"techni", models.RoleTeknisi},
	{"staf", models.RoleStaff},
}

// NormalizeRole maps any stored role string to a canonical role. Unknown
// values fall back to "user". The mapping is idempotent.
func NormalizeRole(raw string) models.Role {
	key := canonicalRoleKey(raw)
	if key == "" {
		return models.RoleUser
	}
	if role, ok := roleSynonyms[key]; ok {
		return role
	}
	for _, f := range roleFragments {
		if strings.Contains(key, f.fragment) {
			return f.role
		}
	}
	return models.RoleUser
}

func canonicalRoleKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	return strings.Join(strings.Fields(key), " ")
}
