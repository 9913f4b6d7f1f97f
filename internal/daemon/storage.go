package daemon

import (
	"context"

	"github.com/gofiber/fiber/v2"
	storagemysql "github.com/gofiber/storage/mysql/v2"
	storagepostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/cache"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/config"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/controller/keyvalue"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/dsn"
)

// SessionTable holds the sessions on mysql and postgres.
const SessionTable = "iam_sessions"

// databaseStorage opens the fiber storage of the configured engine on table.
// SQLite has no gofiber storage and uses the key/value table.
func databaseStorage(cfg *config.Config, db *gorm.DB, table string) fiber.Storage {
	switch cfg.DB.GormEngine {
	case config.GormEngineMySQL:
		return storagemysql.New(storagemysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         table,
		})
	case config.GormEnginePostgres:
		return storagepostgres.New(storagepostgres.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         table,
		})
	default:
		return keyvalue.NewStorage(db, 0)
	}
}

// newCacheStore builds the menu cache store. An unreachable redis falls
// back to the memory store.
func newCacheStore(ctx context.Context, cfg *config.Config, db *gorm.DB) (cache.Store, func()) {
	c := cfg.Cache
	noop := func() {}

	switch c.Driver {
	case cache.DriverRedis:
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:        c.Redis.Addr,
			Username:    c.Redis.Username,
			Password:    c.Redis.Password,
			DB:          c.Redis.DB,
			DialTimeout: c.Redis.DialTimeout,
		})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using the memory cache")
			return cache.NewMemoryStore(c.MemorySize), noop
		}

		return cache.NewRedisStore(client, c.Prefix), func() { _ = client.Close() }
	case cache.DriverDatabase:
		storage := databaseStorage(cfg, db, c.Table)

		return cache.NewStorageStore(storage, c.Prefix), func() { _ = storage.Close() }
	case cache.DriverNone:
		return cache.NullStore{}, noop
	default:
		return cache.NewMemoryStore(c.MemorySize), noop
	}
}
