package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ErrMiss is returned by a KV when the key does not exist.
var ErrMiss = errors.New("cache: miss")

// KV is the byte store behind Cache.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type Cache struct {
	kv KV
	sf singleflight.Group

	mu  sync.Mutex
	gen map[string]uint64 // Invalidate 次数，防止旧值回写
}

func New(kv KV) *Cache { return &Cache{kv: kv, gen: map[string]uint64{}} }

// NewRedis connects to redis and fails fast if the server is unreachable.
func NewRedis(ctx context.Context, addr, pass string, db int) (*Cache, *redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	return New(RedisKV{RDB: rdb}), rdb, nil
}

// GetOrLoad returns the cached bytes for key, or runs load once per key
// across concurrent callers and stores its result for ttl.
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if b, err := c.kv.Get(ctx, key); err == nil {
		return b, nil
	}
	v, err, _ := c.sf.Do(key, func() (any, error) {
		g := c.generation(key)
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		if c.generation(key) == g {
			_ = c.kv.Set(ctx, key, b, ttl)
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	c.mu.Lock()
	for _, k := range keys {
		c.gen[k]++
		c.sf.Forget(k)
	}
	c.mu.Unlock()
	return c.kv.Del(ctx, keys...)
}

func (c *Cache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen[key]
}

type RedisKV struct{ RDB *redis.Client }

func (r RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.RDB.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

func (r RedisKV) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return r.RDB.Set(ctx, key, val, ttl).Err()
}

func (r RedisKV) Del(ctx context.Context, keys ...string) error {
	return r.RDB.Del(ctx, keys...).Err()
}
