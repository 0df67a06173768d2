package models

// Role is the closed set of user roles stored on the users table.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
	RoleTeknisi Role = "teknisi"
	RoleUser    Role = "user"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleManager, RoleStaff, RoleTeknisi, RoleUser}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Capability is a single server-enforced action.
type Capability string

const (
	CapRequestCreate     Capability = "request:create"
	CapRequestRead       Capability = "request:read"
	CapRequestReadAll    Capability = "request:read_all"
	CapRequestUpdate     Capability = "request:update"
	CapRequestDelete     Capability = "request:delete"
	CapRequestReopen     Capability = "request:reopen"
	CapRequestExport     Capability = "request:export"
	CapStatusUpdate      Capability = "status:update"
	CapEstimateEdit      Capability = "estimate:edit"
	CapDPSubmit          Capability = "dp:submit"
	CapDPDecide          Capability = "dp:decide"
	CapDPRecord          Capability = "dp:record"
	CapDPDelete          Capability = "dp:delete"
	CapTechnicianAssign  Capability = "technician:assign"
	CapWorkLogWrite      Capability = "worklog:write"
	CapWorkLogModerate   Capability = "worklog:moderate"
	CapCustomerLogWrite  Capability = "customerlog:write"
	CapCustomerLogDelete Capability = "customerlog:delete"
	CapPublicViewManage  Capability = "publicview:manage"
	CapMediaUpload       Capability = "media:upload"
	CapMediaDelete       Capability = "media:delete"
	CapUserManage        Capability = "user:manage"
	CapBranchManage      Capability = "branch:manage"
	CapSettingsManage    Capability = "settings:manage"
	CapLogsRead          Capability = "logs:read"
)
