// Package keyvalue provides the operations on the key/value table and a
// fiber.Storage built on them.
package keyvalue

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
)

const keyQueryPattern = "k = ?"

var (
	// ErrKeyNotFound is returned when a key is missing or expired.
	ErrKeyNotFound = errors.New("key not found")
	// ErrKeyEmpty is returned for an empty key.
	ErrKeyEmpty = errors.New("key cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get returns the value stored under key.
func Get(db *gorm.DB, key string) ([]byte, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if key == "" {
		return nil, ErrKeyEmpty
	}

	var entry models.KeyValue

	result := db.Where(keyQueryPattern, key).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		First(&entry)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}

		return nil, result.Error
	}

	return entry.Value, nil
}

// Set creates or replaces key. A zero ttl never expires.
func Set(db *gorm.DB, key string, value []byte, ttl time.Duration) error {
	if db == nil {
		return ErrDBNil
	}

	if key == "" {
		return ErrKeyEmpty
	}

	entry := models.KeyValue{Key: key, Value: value}

	if ttl > 0 {
		expires := time.Now().Add(ttl)
		entry.ExpiresAt = &expires
	}

	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "k"}},
		DoUpdates: clause.AssignmentColumns([]string{"v", "expires_at"}),
	}).Create(&entry).Error
}

// Delete removes key. Missing keys are not an error.
func Delete(db *gorm.DB, key string) error {
	if db == nil {
		return ErrDBNil
	}

	if key == "" {
		return ErrKeyEmpty
	}

	return db.Where(keyQueryPattern, key).Delete(&models.KeyValue{}).Error
}

// Reset removes every key.
func Reset(db *gorm.DB) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where("1 = 1").Delete(&models.KeyValue{}).Error
}

// Purge removes expired keys and returns how many were removed.
func Purge(db *gorm.DB) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	result := db.Where("expires_at IS NOT NULL AND expires_at <= ?", time.Now()).Delete(&models.KeyValue{})

	return result.RowsAffected, result.Error
}
