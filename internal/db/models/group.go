package models

import "time"

// GroupSource represents the origin of a user group.
type GroupSource string

const (
	// GroupSourceLocal indicates the group is managed within the application.
	GroupSourceLocal GroupSource = "local"
	// GroupSourceLDAP indicates the group is synchronized from an LDAP or Active Directory server.
	GroupSourceLDAP GroupSource = "ldap"
)

// Group is a set of users whose members receive the roles mapped to it.
// Directory groups are created on first sight during an LDAP login.
type Group struct {
	// ID is the unique identifier for the group.
	ID uint `gorm:"primaryKey" json:"id"`
	// Name is the display name of the group (the cn for LDAP groups).
	Name string `gorm:"size:100;not null" json:"name"`
	// ExternalID is the DN for LDAP groups. Combined with Source it is unique.
	ExternalID string `gorm:"size:255;uniqueIndex:idx_group_source_external" json:"external_id"`
	// Source indicates where the group originates from.
	Source GroupSource `gorm:"type:varchar(20);not null;uniqueIndex:idx_group_source_external" json:"source"`
	// Description provides a human-readable explanation of the group's purpose.
	Description string `gorm:"size:255" json:"description"`
	// CreatedAt is the timestamp when the group was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the group was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}
