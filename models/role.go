package models

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleEditor     Role = "editor"
	RoleStudent    Role = "student"
)

type Permission string

const (
	PermEdit              Permission = "canEdit"
	PermDelete            Permission = "canDelete"
	PermCreate            Permission = "canCreate"
	PermUsers             Permission = "canUsers"
	PermSettings          Permission = "canSettings"
	PermBackup            Permission = "canBackup"
	PermNavigation        Permission = "canNavigation"
	PermAccessAdmin       Permission = "canAccessAdmin"
	PermSeePassword       Permission = "canSeePassword"
	PermViewActivityLog   Permission = "canViewActivityLog"
	PermDeleteActivityLog Permission = "canDeleteActivityLog"
)

type RoleInfo struct {
	Permissions map[Permission]bool
}

func grant(perms ...Permission) map[Permission]bool {
	m := make(map[Permission]bool, len(perms))
	for _, p := range perms {
		m[p] = true
	}
	return m
}

var roles = map[Role]RoleInfo{
	RoleSuperAdmin: {
		Permissions: grant(PermEdit, PermDelete, PermCreate, PermUsers, PermSettings, PermBackup,
			PermNavigation, PermAccessAdmin, PermSeePassword, PermViewActivityLog, PermDeleteActivityLog),
	},
	RoleAdmin: {
		Permissions: grant(PermEdit, PermDelete, PermCreate, PermAccessAdmin),
	},
	RoleEditor: {
		Permissions: grant(PermEdit, PermCreate, PermAccessAdmin),
	},
	RoleStudent: {
		Permissions: grant(),
	},
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roles[r]
	return ok
}

// Can reports whether the role grants p. Unknown roles grant nothing.
func (r Role) Can(p Permission) bool {
	return roles[r].Permissions[p]
}
