package models

import "time"

// KeyValue is one entry of the database backed key/value storage used for
// sessions and the "database" cache driver on engines without a gofiber
// storage implementation.
type KeyValue struct {
	// ID is the unique identifier for the entry.
	ID uint64 `gorm:"primaryKey"`
	// Key is the unique storage key.
	Key string `gorm:"column:k;size:255;not null;uniqueIndex"`
	// Value is the opaque payload.
	Value []byte `gorm:"column:v"`
	// ExpiresAt is nil for entries without expiry.
	ExpiresAt *time.Time `gorm:"index"`
}
