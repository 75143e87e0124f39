package shared

// Core platform permissions.
const (
	PermPermissionsView   = "permissions.view"
	PermPermissionsManage = "permissions.manage"

	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermActivityView = "activity.view"
)

// CoreScopes lists all permissions related to the core platform.
func CoreScopes() []string {
	return []string{
		PermPermissionsView,
		PermPermissionsManage,
		PermUsersView,
		PermUsersEdit,
		PermActivityView,
	}
}
