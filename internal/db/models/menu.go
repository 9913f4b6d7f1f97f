package models

import (
	"time"

	"gorm.io/datatypes"
)

// Menu is a front-end route entry. Menus form a forest ordered by SortOrder.
type Menu struct {
	// ID is the unique identifier for the menu.
	ID uint `gorm:"primaryKey" json:"id"`
	// ParentID references the parent menu, nil for roots.
	ParentID *uint `gorm:"index" json:"parent_id"`
	// Name is the globally unique front-end route name.
	Name string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	// Path is the front-end route path.
	Path string `gorm:"size:255;not null" json:"path"`
	// Component is the front-end component, nil for layout-only nodes.
	Component *string `gorm:"size:255" json:"component"`
	// Redirect is the optional redirect target.
	Redirect *string `gorm:"size:255" json:"redirect"`
	// SortOrder orders siblings; ties are broken by ID.
	SortOrder int `gorm:"not null;default:0;index" json:"sort_order"`
	// IsEnabled hides the node and its subtree when false.
	IsEnabled bool `gorm:"not null" json:"is_enabled"`
	// IsPublic makes the node visible to every authenticated principal.
	IsPublic bool `gorm:"not null" json:"is_public"`
	// Meta is the opaque front-end metadata blob.
	Meta datatypes.JSONMap `json:"meta"`
	// Guard is the optional include/except role configuration.
	Guard MenuGuard `gorm:"type:json" json:"guard"`
	// CreatedAt is the timestamp when the menu was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the menu was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`

	// RoleNames are the names of the roles linked through MenuRole (loaded on demand).
	RoleNames []string `gorm:"-" json:"roles,omitempty"`
	// RoleIDs are the IDs of the roles linked through MenuRole (loaded on demand).
	RoleIDs []uint `gorm:"-" json:"role_ids,omitempty"`
	// PermissionNames are the names of the permissions linked through MenuPermission (loaded on demand).
	PermissionNames []string `gorm:"-" json:"permissions,omitempty"`
}

// TreeID implements tree.Item.
func (m Menu) TreeID() uint { return m.ID }

// TreeParentID implements tree.Item.
func (m Menu) TreeParentID() *uint { return m.ParentID }

// TreeSortOrder implements tree.Item.
func (m Menu) TreeSortOrder() int { return m.SortOrder }

// MenuRole links menus and roles.
type MenuRole struct {
	// MenuID is the ID of the menu in this mapping.
	MenuID uint `gorm:"primaryKey;autoIncrement:false" json:"menu_id"`
	// RoleID is the ID of the role in this mapping.
	RoleID uint `gorm:"primaryKey;autoIncrement:false;index" json:"role_id"`
}

// MenuPermission links menus and permissions.
type MenuPermission struct {
	// MenuID is the ID of the menu in this mapping.
	MenuID uint `gorm:"primaryKey;autoIncrement:false" json:"menu_id"`
	// PermissionID is the ID of the permission in this mapping.
	PermissionID uint `gorm:"primaryKey;autoIncrement:false;index" json:"permission_id"`
}
