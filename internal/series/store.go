package series

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store keeps the last successfully fetched payload per series key, which is the
// value a dashboard keeps showing when a later fetch fails.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, bool)
	Save(ctx context.Context, key string, raw []byte)
}

// NopStore remembers nothing; every failure falls back to the embedded value.
type NopStore struct{}

func (NopStore) Load(context.Context, string) ([]byte, bool) { return nil, false }
func (NopStore) Save(context.Context, string, []byte)        {}

// MemoryStore is a process-local last-good store with expiry.
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore keeps values for ttl; ttl <= 0 keeps them forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		return &MemoryStore{c: gocache.New(gocache.NoExpiration, 0)}
	}
	return &MemoryStore{c: gocache.New(ttl, 2*ttl)}
}

func (m *MemoryStore) Load(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false
	}
	raw, ok := v.([]byte)
	return raw, ok
}

func (m *MemoryStore) Save(_ context.Context, key string, raw []byte) {
	cp := make([]byte, len(raw))
	copy(cp, raw)
	m.c.Set(key, cp, gocache.DefaultExpiration)
}

// RedisStore shares last-good values between service replicas.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore parses a redis:// URL and pings the server.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration, logger *zap.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, prefix: "audit-insights:series:", ttl: ttl, logger: logger}, nil
}

func (r *RedisStore) Load(ctx context.Context, key string) ([]byte, bool) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("last-good load failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return raw, true
}

func (r *RedisStore) Save(ctx context.Context, key string, raw []byte) {
	if err := r.client.Set(ctx, r.prefix+key, raw, r.ttl).Err(); err != nil {
		r.logger.Warn("last-good save failed", zap.String("key", key), zap.Error(err))
	}
}

// Ping reports whether the Redis server answers.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the Redis connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
