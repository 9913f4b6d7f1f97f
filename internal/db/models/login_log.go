package models

import (
	"time"

	"gorm.io/datatypes"
)

// LoginStatus is the outcome of an authentication attempt.
type LoginStatus string

const (
	// LoginStatusSuccess marks a successful login.
	LoginStatusSuccess LoginStatus = "success"
	// LoginStatusFailed marks a rejected login.
	LoginStatusFailed LoginStatus = "failed"
)

// Login types recorded in LoginLog.LoginType.
const (
	LoginTypePassword = "password"
	LoginTypeLDAP     = "ldap"
)

// LoginLog is the append-only audit record of one authentication attempt.
type LoginLog struct {
	ID            uint64            `gorm:"primaryKey" json:"id"`
	UserID        *uint64           `gorm:"index" json:"user_id"`
	Username      *string           `gorm:"size:100" json:"username"`
	Account       string            `gorm:"size:255;not null;index" json:"account"`
	Status        LoginStatus       `gorm:"type:varchar(20);not null;index" json:"status"`
	FailureReason *string           `gorm:"size:255" json:"failure_reason"`
	IP            string            `gorm:"size:64" json:"ip"`
	UserAgent     string            `gorm:"size:512" json:"user_agent"`
	LoginType     string            `gorm:"size:30;not null" json:"login_type"`
	Metadata      datatypes.JSONMap `json:"metadata"`
	LoginAt       time.Time         `gorm:"not null;index" json:"login_at"`
}
