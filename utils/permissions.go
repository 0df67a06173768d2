package utils

import (
	"strings"

	"github.com/andrensetiawan/form-service/models"
)

// MatchesPermission checks if a granted permission matches the required permission
// Supports wildcard patterns:
//
// Examples:
//   - "*:*" or "*" matches everything (admin wildcard)
//   - "status:*" matches all actions on the status resource
//   - "*:read" matches read on every resource
//   - "dp:decide" exact match
//
// Permission format: "resource:action"
func MatchesPermission(userPerm, requiredPerm string) bool {
	// Exact match (fastest path)
	if userPerm == requiredPerm {
		return true
	}

	// Full wildcard - grants everything
	if userPerm == "*:*" || userPerm == "*" {
		return true
	}

	userParts := strings.Split(userPerm, ":")
	reqParts := strings.Split(requiredPerm, ":")

	// Both need resource:action, otherwise only exact match works
	if len(userParts) < 2 || len(reqParts) < 2 {
		return false
	}

	resourceMatch := userParts[0] == "*" || userParts[0] == reqParts[0]
	actionMatch := userParts[1] == "*" || userParts[1] == reqParts[1]

	return resourceMatch && actionMatch
}

// roleGrants is the capability matrix. Admin holds the wildcard; deleting
// tickets, DP payments and customer logs stays admin-only.
var roleGrants = map[models.Role][]string{
	models.RoleAdmin: {"*"},
	models.RoleManager: {
		"request:create", "request:read", "request:read_all", "request:update",
		"request:reopen", "request:export",
		"status:*", "estimate:*",
		"dp:submit", "dp:decide", "dp:record",
		"technician:*", "worklog:*", "customerlog:write",
		"publicview:*", "media:*", "logs:read",
	},
	models.RoleStaff: {
		"request:create", "request:read", "request:read_all", "request:update",
		"status:update", "estimate:edit",
		"dp:submit", "dp:decide", "dp:record",
		"technician:assign", "worklog:write", "customerlog:write",
		"publicview:manage", "media:upload", "media:delete",
	},
	models.RoleTeknisi: {
		"request:read", "status:update", "dp:submit",
		"worklog:write", "customerlog:write", "media:upload",
	},
	models.RoleUser: {},
}

// Grants returns the permission patterns held by role.
func Grants(role models.Role) []string {
	return roleGrants[role]
}

// HasCapability reports whether role may perform capability.
func HasCapability(role models.Role, capability models.Capability) bool {
	for _, grant := range roleGrants[role] {
		if MatchesPermission(grant, string(capability)) {
			return true
		}
	}
	return false
}
