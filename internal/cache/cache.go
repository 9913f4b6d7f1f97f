// Package cache provides the key/value stores behind the menu cache.
//
// A Store only needs get, set with TTL and delete. Stores that can group
// keys under a tag implement TaggedStore; for the others the caller keeps
// its own key registry (see menu.Cache).
package cache

import (
	"context"
	"errors"
	"time"
)

// Drivers accepted in Config.Driver.
const (
	DriverRedis    = "redis"
	DriverDatabase = "database"
	DriverMemory   = "memory"
	DriverNone     = "none"
)

// ErrUnknownDriver is returned for an unsupported Config.Driver.
var ErrUnknownDriver = errors.New("unknown cache driver")

// Store is a key/value store with expiry.
type Store interface {
	// Get returns the value and true on a hit, nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for ttl; a zero ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// TaggedStore groups keys under tags so they can be dropped together.
type TaggedStore interface {
	Store
	// SetTagged stores value like Set and records key under tag.
	SetTagged(ctx context.Context, tag, key string, value []byte, ttl time.Duration) error
	// FlushTag deletes every key recorded under tag.
	FlushTag(ctx context.Context, tag string) error
}

// Config selects and configures the store.
type Config struct {
	Driver     string // redis, database, memory or none
	Prefix     string // prepended to every key
	MemorySize int    // max entries of the memory driver
	Table      string // table of the database driver
	Redis      RedisConfig
}

// RedisConfig holds the redis connection settings.
type RedisConfig struct {
	Addr        string
	Username    string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// NullStore never stores anything.
type NullStore struct{}

// Get always misses.
func (NullStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set does nothing.
func (NullStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete does nothing.
func (NullStore) Delete(context.Context, ...string) error { return nil }
