package cache

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const defaultDialTimeout = 2 * time.Second

// RedisStore is a TaggedStore on redis. Tag members are kept in a redis set.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisClient connects and pings redis.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	timeout := cfg.DialTimeout
	if timeout == 0 {
		timeout = defaultDialTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Username:    cfg.Username,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, pkgerrors.Wrapf(err, "failed to ping redis at %s", cfg.Addr)
	}

	return client, nil
}

// NewRedisStore wraps a redis client.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisStore) tagKey(tag string) string {
	return s.prefix + "tag:" + tag + ":keys"
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, pkgerrors.Wrap(err, "redis get")
	}

	return val, true, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return pkgerrors.Wrap(s.client.Set(ctx, s.key(key), value, ttl).Err(), "redis set")
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, s.key(k))
	}

	return pkgerrors.Wrap(s.client.Del(ctx, full...).Err(), "redis del")
}

// SetTagged implements TaggedStore. The tag set expires with its newest member.
func (s *RedisStore) SetTagged(ctx context.Context, tag, key string, value []byte, ttl time.Duration) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(key), value, ttl)
		pipe.SAdd(ctx, s.tagKey(tag), s.key(key))

		if ttl > 0 {
			pipe.Expire(ctx, s.tagKey(tag), ttl)
		}

		return nil
	})

	return pkgerrors.Wrap(err, "redis set tagged")
}

// FlushTag implements TaggedStore.
func (s *RedisStore) FlushTag(ctx context.Context, tag string) error {
	members, err := s.client.SMembers(ctx, s.tagKey(tag)).Result()
	if err != nil {
		return pkgerrors.Wrap(err, "redis tag members")
	}

	return pkgerrors.Wrap(s.client.Del(ctx, append(members, s.tagKey(tag))...).Err(), "redis flush tag")
}
