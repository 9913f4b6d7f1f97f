package models

// RolePermission represents the many-to-many relationship between roles and permissions.
// Rows are replaced as a whole inside one transaction when a role's permissions are synced.
type RolePermission struct {
	// RoleID is the ID of the role in this mapping.
	RoleID uint `gorm:"primaryKey;autoIncrement:false" json:"role_id"`
	// PermissionID is the ID of the permission in this mapping.
	PermissionID uint `gorm:"primaryKey;autoIncrement:false;index" json:"permission_id"`
}
