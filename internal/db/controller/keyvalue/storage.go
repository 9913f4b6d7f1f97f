package keyvalue

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const defaultGCInterval = 10 * time.Minute

// Storage implements fiber.Storage on the key/value table. Missing keys
// read as nil like the gofiber storages.
type Storage struct {
	db     *gorm.DB
	cancel context.CancelFunc
}

// NewStorage creates a storage and starts purging expired keys every
// gcInterval (10 minutes when zero) until Close.
func NewStorage(db *gorm.DB, gcInterval time.Duration) *Storage {
	if gcInterval <= 0 {
		gcInterval = defaultGCInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Storage{db: db, cancel: cancel}

	go s.gc(ctx, gcInterval)

	return s
}

func (s *Storage) gc(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := Purge(s.db.WithContext(ctx))
			if err != nil {
				log.Warn().Err(err).Msg("failed to purge expired keys")
				continue
			}

			if n > 0 {
				log.Debug().Int64("keys", n).Msg("purged expired keys")
			}
		}
	}
}

// Get implements fiber.Storage.
func (s *Storage) Get(key string) ([]byte, error) {
	val, err := Get(s.db, key)
	if errors.Is(err, ErrKeyNotFound) || errors.Is(err, ErrKeyEmpty) {
		return nil, nil
	}

	return val, err
}

// Set implements fiber.Storage. Empty keys and values are ignored.
func (s *Storage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}

	return Set(s.db, key, val, exp)
}

// Delete implements fiber.Storage.
func (s *Storage) Delete(key string) error {
	if key == "" {
		return nil
	}

	return Delete(s.db, key)
}

// Reset implements fiber.Storage.
func (s *Storage) Reset() error {
	return Reset(s.db)
}

// Close stops the purge loop.
func (s *Storage) Close() error {
	s.cancel()
	return nil
}
