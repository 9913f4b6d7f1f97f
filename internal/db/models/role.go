package models

import "time"

// Role is a named set of permissions, scoped by guard.
// Roles grant permissions to users and gate menu entries.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey" json:"id"`
	// Name is the role name, unique per guard (e.g. "super-admin", "editor").
	Name string `gorm:"size:100;not null;uniqueIndex:idx_role_name_guard" json:"name"`
	// GuardName is the authorization scope the role belongs to.
	GuardName string `gorm:"size:50;not null;uniqueIndex:idx_role_name_guard" json:"guard_name"`
	// DisplayName is the human readable name.
	DisplayName string `gorm:"size:100" json:"display_name"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255" json:"description"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}

// UserRole links users and roles.
type UserRole struct {
	// UserID is the ID of the user in this mapping.
	UserID uint64 `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	// RoleID is the ID of the role in this mapping.
	RoleID uint `gorm:"primaryKey;autoIncrement:false;index" json:"role_id"`
}
