package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuthSource represents the authentication source for a user account.
type AuthSource string

const (
	// AuthSourceLocal indicates the user authenticates with a local database password.
	AuthSourceLocal AuthSource = "local"
	// AuthSourceLDAP indicates the user authenticates via LDAP or Active Directory.
	AuthSourceLDAP AuthSource = "ldap"
)

// UserStatus is the account state of a user.
type UserStatus string

const (
	// UserStatusActive marks an account that may log in.
	UserStatusActive UserStatus = "active"
	// UserStatusInactive marks a disabled account.
	UserStatusInactive UserStatus = "inactive"
)

// User represents a user account in the system.
// Users belong to at most one department and hold any number of roles.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Username is the unique username for login.
	Username string `gorm:"uniqueIndex;size:100;not null" json:"username"`
	// Email is the user's unique email address, also accepted as login account.
	Email string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	// Phone is the optional unique phone number, also accepted as login account.
	Phone *string `gorm:"uniqueIndex;size:32" json:"phone"`
	// Name is the display name.
	Name string `gorm:"size:100" json:"name"`
	// Password is the Argon2id hashed password (only used for local authentication).
	Password string `gorm:"size:255" json:"-"`
	// Status is either active or inactive.
	Status UserStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	// DepartmentID references the owning department, if any.
	DepartmentID *uint `gorm:"index" json:"department_id"`
	// Metadata holds arbitrary key/value data.
	Metadata datatypes.JSONMap `json:"metadata"`
	// AuthSource indicates how this user authenticates (local or ldap).
	AuthSource AuthSource `gorm:"type:varchar(20);not null;default:'local'" json:"auth_source"`
	// ExternalID is the LDAP DN for directory users.
	ExternalID string `gorm:"size:255" json:"-"`
	// LastLoginAt is the time of the last successful login.
	LastLoginAt *time.Time `json:"last_login_at"`
	// LastLoginIP is the client address of the last successful login.
	LastLoginIP string `gorm:"size:64" json:"last_login_ip"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
	// DeletedAt is the soft delete timestamp (managed by GORM).
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// IsActive reports whether the account may log in.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// This function should be used when creating or updating local user passwords.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored hashed password.
// Returns true if the password matches, false otherwise.
func (u *User) VerifyPassword(password string) bool {
	if u.Password == "" {
		return false
	}

	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
