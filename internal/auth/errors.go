package auth

import "github.com/GoIAM-Admin/GoIAM-Admin/internal/apperr"

var (
	// ErrInvalidCredentials is returned for an unknown account or a wrong password.
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthenticated, "auth.invalid_credentials", "invalid credentials")

	// ErrUserAccountDisabled is returned when attempting to authenticate a disabled user account.
	ErrUserAccountDisabled = apperr.New(apperr.KindUnauthenticated, "auth.account_disabled", "account disabled")

	// ErrUnauthenticated is returned when a request carries no valid session.
	ErrUnauthenticated = apperr.New(apperr.KindUnauthenticated, "auth.unauthenticated", "unauthenticated")

	// ErrForbidden is returned when the user lacks the permission of a route.
	ErrForbidden = apperr.New(apperr.KindForbidden, "auth.forbidden", "permission denied")

	// ErrUserNotFound is returned when a user cannot be found in the database or directory.
	ErrUserNotFound = apperr.New(apperr.KindNotFound, "auth.user_not_found", "user not found")

	// ErrMultipleUsersFound is returned when a directory search matched more than one entry.
	// This typically indicates a misconfigured LDAP filter or duplicate entries.
	ErrMultipleUsersFound = apperr.New(apperr.KindConfiguration, "auth.multiple_users_found", "multiple users found")

	// ErrLDAPDisabled is returned when LDAP authentication is disabled via configuration.
	ErrLDAPDisabled = apperr.New(apperr.KindConfiguration, "auth.ldap_disabled", "ldap authentication is disabled")

	// ErrRoleNotFound is returned for an unknown role id.
	ErrRoleNotFound = apperr.New(apperr.KindNotFound, "auth.role_not_found", "role not found")

	// ErrPermissionNotFound is returned for an unknown permission id.
	ErrPermissionNotFound = apperr.New(apperr.KindNotFound, "auth.permission_not_found", "permission not found")

	// ErrGroupNotFound is returned for an unknown group id.
	ErrGroupNotFound = apperr.New(apperr.KindNotFound, "auth.group_not_found", "group not found")

	// ErrLoginLogNotFound is returned for an unknown login log id.
	ErrLoginLogNotFound = apperr.New(apperr.KindNotFound, "auth.login_log_not_found", "login log not found")

	// ErrDuplicateRole is returned when a role name is taken under the guard.
	ErrDuplicateRole = apperr.New(apperr.KindInvalidInput, "auth.duplicate_role", "role name already exists")

	// ErrCannotDeleteSuperAdmin is returned when deleting the super-admin role.
	ErrCannotDeleteSuperAdmin = apperr.New(apperr.KindInvariantViolation, "auth.cannot_delete_super_admin",
		"the super-admin role cannot be deleted")
)
