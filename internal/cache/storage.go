package cache

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	pkgerrors "github.com/pkg/errors"
)

// StorageStore adapts a fiber.Storage (gofiber/storage mysql, postgres, ...)
// to Store. fiber storages have no tags.
type StorageStore struct {
	storage fiber.Storage
	prefix  string
}

// NewStorageStore wraps storage.
func NewStorageStore(storage fiber.Storage, prefix string) *StorageStore {
	return &StorageStore{storage: storage, prefix: prefix}
}

// Get implements Store. fiber storages return nil for missing keys.
func (s *StorageStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, err := s.storage.Get(s.prefix + key)
	if err != nil {
		return nil, false, pkgerrors.Wrap(err, "storage get")
	}

	if len(val) == 0 {
		return nil, false, nil
	}

	return val, true, nil
}

// Set implements Store.
func (s *StorageStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	return pkgerrors.Wrap(s.storage.Set(s.prefix+key, value, ttl), "storage set")
}

// Delete implements Store.
func (s *StorageStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		if err := s.storage.Delete(s.prefix + k); err != nil {
			return pkgerrors.Wrap(err, "storage delete")
		}
	}

	return nil
}
