package menu

import (
	"context"
	"crypto/md5" //nolint:gosec
	"encoding/hex"
	"encoding/json"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dchest/uniuri"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/cache"
)

const (
	// KeyPrefix starts every cached menu tree key.
	KeyPrefix = "iam_menu_tree:"
	// RegistryKey holds the issued keys for stores without tags.
	RegistryKey = "iam_menu_cache_keys"
	// GenerationKey holds a token replaced by every flush, shared by all processes on the store.
	GenerationKey = "iam_menu_cache_gen"
	// Tag groups the cached trees in tagged stores.
	Tag = "menus"
	// DefaultTTL is used when CacheOptions.TTL is zero.
	DefaultTTL = 30 * time.Minute

	registryTTL = 7 * 24 * time.Hour
)

// Result is the cached payload: the rendered routes and the menu table version.
type Result struct {
	List    []Route `json:"list"`
	Version string  `json:"version"`
}

// CacheOptions configures a Cache.
type CacheOptions struct {
	TTL time.Duration
	// IncludePermissions adds the permission names to the key fingerprint.
	IncludePermissions bool
}

// Cache memoizes resolved menu trees per principal fingerprint.
//
// Store failures never reach the caller: they are logged and counted and the
// tree is computed again.
type Cache struct {
	store cache.Store
	opts  CacheOptions

	// mu guards the registry read-modify-write.
	mu    sync.Mutex
	group singleflight.Group

	// flushes counts local flushes; with the GenerationKey token it detects
	// a flush that happened while a tree was computed.
	flushes atomic.Uint64
}

// NewCache creates a cache over store. A nil store disables caching.
func NewCache(store cache.Store, opts CacheOptions) *Cache {
	if store == nil {
		store = cache.NullStore{}
	}

	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}

	return &Cache{store: store, opts: opts}
}

// Key returns the cache key of a principal.
func (c *Cache) Key(p Principal) string {
	var (
		data []byte
		err  error
	)

	if c.opts.IncludePermissions {
		data, err = json.Marshal(struct {
			Roles       []string `json:"roles"`
			Permissions []string `json:"permissions"`
		}{Roles: p.Roles(), Permissions: p.Permissions()})
	} else {
		data, err = json.Marshal(p.Roles())
	}

	if err != nil {
		// string slices always marshal
		panic(err)
	}

	sum := md5.Sum(data) //nolint:gosec

	return KeyPrefix + hex.EncodeToString(sum[:])
}

// Remember returns the cached result for key or computes and stores it.
// Concurrent misses for the same key share one computation. A result
// computed across a Flush is returned but not stored.
func (c *Cache) Remember(ctx context.Context, key string, compute func(context.Context) (Result, error)) (Result, error) {
	if res, ok := c.get(ctx, key); ok {
		cacheLookups.WithLabelValues("hit").Inc()
		return res, nil
	}

	cacheLookups.WithLabelValues("miss").Inc()

	v, err, _ := c.group.Do(key, func() (any, error) {
		gen, ok := c.generation(ctx)

		res, err := compute(ctx)
		if err != nil {
			return Result{}, err
		}

		if !ok || !c.unchanged(ctx, gen) {
			return res, nil
		}

		c.put(ctx, key, res)

		// a flush between the check and the write must not leave the entry behind
		if !c.unchanged(ctx, gen) {
			c.Forget(ctx, key)
		}

		return res, nil
	})
	if err != nil {
		return Result{}, err
	}

	return v.(Result), nil
}

// Forget drops the entry of one key.
func (c *Cache) Forget(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		c.fail("forget", err)
	}
}

// Flush drops every cached menu tree. Tagged stores flush the tag, other
// stores delete the keys found in the registry and then the registry.
// The generation moves first so that computations still running do not
// store their result.
func (c *Cache) Flush(ctx context.Context) error {
	c.flushes.Add(1)

	if err := c.store.Set(ctx, GenerationKey, []byte(uniuri.New()), registryTTL); err != nil {
		c.fail("generation", err)
	}

	if tagged, ok := c.store.(cache.TaggedStore); ok {
		if err := tagged.FlushTag(ctx, Tag); err != nil {
			c.fail("flush", err)
			return err
		}

		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.registry(ctx)
	if err != nil {
		c.fail("flush", err)
		return err
	}

	if err = c.store.Delete(ctx, append(keys, RegistryKey)...); err != nil {
		c.fail("flush", err)
		return err
	}

	log.Debug().Int("keys", len(keys)).Msg("menu cache flushed")

	return nil
}

// generation combines the local flush count with the shared token.
func (c *Cache) generation(ctx context.Context) (string, bool) {
	token, _, err := c.store.Get(ctx, GenerationKey)
	if err != nil {
		c.fail("generation", err)
		return "", false
	}

	return strconv.FormatUint(c.flushes.Load(), 10) + ":" + string(token), true
}

func (c *Cache) unchanged(ctx context.Context, gen string) bool {
	now, ok := c.generation(ctx)

	return ok && now == gen
}

func (c *Cache) get(ctx context.Context, key string) (Result, bool) {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.fail("get", err)
		return Result{}, false
	}

	if !ok {
		return Result{}, false
	}

	var res Result
	if err = json.Unmarshal(data, &res); err != nil {
		c.fail("decode", err)
		return Result{}, false
	}

	return res, true
}

func (c *Cache) put(ctx context.Context, key string, res Result) {
	data, err := json.Marshal(res)
	if err != nil {
		c.fail("encode", err)
		return
	}

	if tagged, ok := c.store.(cache.TaggedStore); ok {
		if err = tagged.SetTagged(ctx, Tag, key, data, c.opts.TTL); err != nil {
			c.fail("set", err)
		}

		return
	}

	if err = c.track(ctx, key); err != nil {
		c.fail("track", err)
		return
	}

	if err = c.store.Set(ctx, key, data, c.opts.TTL); err != nil {
		c.fail("set", err)
	}
}

// track records key in the registry.
func (c *Cache) track(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.registry(ctx)
	if err != nil {
		return err
	}

	if slices.Contains(keys, key) {
		return nil
	}

	data, err := json.Marshal(append(keys, key))
	if err != nil {
		return err
	}

	return c.store.Set(ctx, RegistryKey, data, registryTTL)
}

// registry returns the tracked keys; callers hold mu.
func (c *Cache) registry(ctx context.Context) ([]string, error) {
	data, ok, err := c.store.Get(ctx, RegistryKey)
	if err != nil || !ok {
		return nil, err
	}

	var keys []string
	if err = json.Unmarshal(data, &keys); err != nil {
		log.Warn().Err(err).Msg("dropping unreadable menu cache registry")
		return nil, nil
	}

	return keys, nil
}

func (c *Cache) fail(op string, err error) {
	cacheErrors.WithLabelValues(op).Inc()
	log.Warn().Err(err).Str("op", op).Msg("menu cache store failed")
}
