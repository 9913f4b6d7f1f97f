package models

import "time"

// UserGroup is the membership of a user in a group. Memberships of directory
// groups are replaced on every LDAP login.
type UserGroup struct {
	// UserID is the ID of the user in this membership.
	UserID uint64 `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	// GroupID is the ID of the group in this membership.
	GroupID uint `gorm:"primaryKey;autoIncrement:false;index" json:"group_id"`
	// CreatedAt is the timestamp when the user was added to the group (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
}
