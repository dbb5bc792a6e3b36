package constants

const (
	ManageBonds        = "manage_bonds"
	ViewCatalog        = "view_catalog"
	EvaluateBonds      = "evaluate_bonds"
	ManageCalculations = "manage_calculations"
)

// PermissionRoles maps each permission to the roles allowed to perform it.
var PermissionRoles = map[string][]string{
	ManageBonds:        {Issuer},
	ViewCatalog:        {Investor, Issuer},
	EvaluateBonds:      {Investor},
	ManageCalculations: {Investor},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
