package domain

// Role enumerates caller roles asserted by the external auth layer.
type Role string

const (
	RoleAdministrator   Role = "ADMINISTRATOR"
	RoleWardOfficer     Role = "WARD_OFFICER"
	RoleMaintenanceTeam Role = "MAINTENANCE_TEAM"
	RoleCitizen         Role = "CITIZEN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleWardOfficer, RoleMaintenanceTeam, RoleCitizen:
		return true
	}
	return false
}

// Identity is the trusted caller context taken verbatim from the auth layer.
type Identity struct {
	UserID string
	Role   Role
	WardID *string
}
