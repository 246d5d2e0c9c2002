package registry

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DigestStore remembers the payload digest last registered for each job slug.
type DigestStore interface {
	// Digest returns the stored digest for slug, or "" when there is none.
	Digest(ctx context.Context, slug string) (string, error)
	SetDigest(ctx context.Context, slug, digest string) error
}

// DefaultDigestPrefix namespaces digest keys in redis.
const DefaultDigestPrefix = "mdform:job-digest:"

// RedisDigestStore keeps digests in redis under Prefix+slug.
type RedisDigestStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig holds redis connection settings for a digest store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// TTL expires stored digests; zero keeps them forever.
	TTL time.Duration
}

// NewRedisDigestStore connects to redis and checks the connection.
func NewRedisDigestStore(ctx context.Context, cfg RedisConfig) (*RedisDigestStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedisDigestStoreWithClient(client, cfg.TTL), nil
}

// NewRedisDigestStoreWithClient wraps an existing client.
func NewRedisDigestStoreWithClient(client *redis.Client, ttl time.Duration) *RedisDigestStore {
	return &RedisDigestStore{client: client, prefix: DefaultDigestPrefix, ttl: ttl}
}

func (s *RedisDigestStore) Digest(ctx context.Context, slug string) (string, error) {
	v, err := s.client.Get(ctx, s.prefix+slug).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (s *RedisDigestStore) SetDigest(ctx context.Context, slug, digest string) error {
	return s.client.Set(ctx, s.prefix+slug, digest, s.ttl).Err()
}

// Forget drops the digest for slug so the next registration is always sent.
func (s *RedisDigestStore) Forget(ctx context.Context, slug string) error {
	return s.client.Del(ctx, s.prefix+slug).Err()
}

// Close closes the underlying client.
func (s *RedisDigestStore) Close() error {
	return s.client.Close()
}
