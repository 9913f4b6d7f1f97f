package models

import "time"

// Permission represents a named capability in <module>.<resource>.<action> format.
// Permissions are assigned to roles and can gate menu entries.
type Permission struct {
	// ID is the unique identifier for the permission.
	ID uint `gorm:"primaryKey" json:"id"`
	// Name is the permission identifier, unique per guard (e.g. "iam.users.view").
	Name string `gorm:"size:150;not null;uniqueIndex:idx_permission_name_guard" json:"name"`
	// GuardName is the authorization scope the permission belongs to.
	GuardName string `gorm:"size:50;not null;uniqueIndex:idx_permission_name_guard" json:"guard_name"`
	// DisplayName is the human label, usually "<group>.<action label>".
	DisplayName string `gorm:"size:255" json:"display_name"`
	// Group is the "<module>.<resource label>" key used to group permissions in the UI.
	Group string `gorm:"column:group_name;size:150;index" json:"group"`
	// Description provides a human-readable explanation of what this permission grants.
	Description string `gorm:"size:255" json:"description"`
	// CreatedAt is the timestamp when the permission was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the permission was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}
