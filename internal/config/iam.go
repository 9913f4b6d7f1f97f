package config

import "time"

// IAM holds the settings of the IAM core passed to its components.
type IAM struct {
	// Guard is the guard name roles and permissions are created under.
	Guard string
	// TablePrefix is prepended to every table name.
	TablePrefix string
	// SuperAdminRole bypasses menu gates and permission checks.
	SuperAdminRole string

	// RoutePrefixes are the route name modules permissions are derived for.
	RoutePrefixes []string
	// IgnoreRoutes are route names never turned into permissions.
	IgnoreRoutes []string
	// ActionMap normalizes route actions (store -> manage).
	ActionMap map[string]string
	// ActionLabels are the display labels of normalized actions.
	ActionLabels map[string]string
	// GroupLabels override the group of a module.resource, resource or module.resourceKey.
	GroupLabels map[string]string
	// ModuleLabels override the label of a permission module.
	ModuleLabels map[string]string
	// SyncRoles receive the full derived permission set after a sync.
	SyncRoles []string

	MenuCache MenuCache
}

// MenuCache configures the menu tree cache.
type MenuCache struct {
	TTL time.Duration
	// IncludePermissions adds the permission names to the cache fingerprint.
	IncludePermissions bool
}

// DefaultIAM returns the IAM defaults.
func DefaultIAM() IAM {
	return IAM{
		Guard:          "sanctum",
		TablePrefix:    "iam_",
		SuperAdminRole: "super-admin",
		RoutePrefixes:  []string{"iam", "mdm", "ordersys", "qmp", "finance", "datahub", "yjf"},
		IgnoreRoutes: []string{
			"iam.auth.login",
			"iam.auth.logout",
			"iam.auth.me",
			"iam.routes.index",
			"iam.login-logs.my",
			"api.iam.auth.login",
			"api.iam.auth.logout",
			"api.iam.auth.me",
			"api.iam.routes.index",
			"api.iam.login-logs.my",
		},
		ActionMap: map[string]string{
			"index":            "view",
			"show":             "view",
			"by-nsrsbh":        "view",
			"children":         "view",
			"by-company":       "view",
			"valid-config":     "view",
			"default-operator": "view",
			"tree":             "view",
			"groups":           "view",
			"store":            "manage",
			"update":           "manage",
			"destroy":          "manage",
			"create":           "manage",
			"edit":             "manage",
			"set-as-default":   "manage",
			"leave":            "manage",
			"move":             "manage",
			"restore":          "manage",
			"menus":            "manage",
			"roles":            "manage",
			"permissions":      "manage",
		},
		ActionLabels: map[string]string{
			"view":   "查看",
			"manage": "管理",
			"assign": "分配",
			"revoke": "撤销",
			"export": "导出",
		},
		GroupLabels: map[string]string{
			"iam.users":       "iam.用户",
			"iam.roles":       "iam.角色",
			"iam.permissions": "iam.权限",
			"iam.menus":       "iam.菜单",
			"iam.routes":      "iam.路由",
			"iam.departments": "iam.部门",
			"iam.login-logs":  "iam.登录日志",
			"iam.groups":      "iam.用户组",
		},
		ModuleLabels: map[string]string{
			"iam": "IAM",
		},
		SyncRoles: []string{"super-admin", "Admin"},
		MenuCache: MenuCache{
			TTL:                30 * time.Minute,
			IncludePermissions: true,
		},
	}
}
