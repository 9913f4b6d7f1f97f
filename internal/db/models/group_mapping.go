package models

// GroupMapping grants a role to every member of a group. A group may map
// to several roles.
type GroupMapping struct {
	// GroupID is the ID of the group being mapped.
	GroupID uint `gorm:"primaryKey;autoIncrement:false" json:"group_id"`
	// RoleID is the ID of the role that group members will receive.
	RoleID uint `gorm:"primaryKey;autoIncrement:false;index" json:"role_id"`
}
