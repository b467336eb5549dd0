package authz

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleMember  = "member"
	RoleViewer  = "viewer"
)

func Known(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleMember, RoleViewer:
		return true
	}
	return false
}

func IsElevated(role string) bool {
	return role == RoleAdmin || role == RoleManager
}

func IsReadOnly(role string) bool {
	return role == RoleViewer
}
