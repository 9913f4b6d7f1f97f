// Package auth provides authentication and authorization functionality for the application.
//
// Users authenticate against the local database (Argon2id password hashes)
// or, when enabled, against an LDAP or Active Directory server. Every login
// attempt is recorded as a LoginLog and a successful login opens a server
// side session (see internal/web/session).
//
// # Authorization System
//
//   - Users hold roles directly and through the groups they belong to
//   - Groups are mapped to roles; directory groups are synchronized on every LDAP login
//   - Roles contain a set of permissions named <module>.<resource>.<action>
//   - The super-admin role has every permission
//
// Example usage:
//
//	authService := auth.NewService(db, cfg.IAM, menuService)
//
//	app.Get("/api/iam/users",
//	    auth.Authenticate(authService),
//	    auth.RequirePermission(authService, auth.PermUsersView),
//	    handler,
//	)
package auth
