package auth

// Permission names checked by the HTTP API. They are the names the
// synchronizer derives from the API's own route names.
const (
	PermMenusView         = "iam.menus.view"
	PermMenusManage       = "iam.menus.manage"
	PermUsersView         = "iam.users.view"
	PermUsersManage       = "iam.users.manage"
	PermRolesView         = "iam.roles.view"
	PermRolesManage       = "iam.roles.manage"
	PermPermissionsView   = "iam.permissions.view"
	PermDepartmentsView   = "iam.departments.view"
	PermDepartmentsManage = "iam.departments.manage"
	PermLoginLogsView     = "iam.login-logs.view"
	PermGroupsView        = "iam.groups.view"
	PermGroupsManage      = "iam.groups.manage"
)
