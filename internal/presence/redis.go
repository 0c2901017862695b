package presence

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore implements Store on a shared redis instance.
type RedisStore struct {
	Client *redis.Client
}

// NewRedisStore connects a redis client for presence facts.
func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		Client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// SetWithTTL writes a key with an expiry, re-arming the TTL if the key
// already exists.
func (s *RedisStore) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.Client.Set(ctx, key, value, ttl).Err()
}

// Delete removes a key immediately.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.Client.Del(ctx, key).Err()
}

// Exists reports whether the key is currently present.
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.Client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AddToSet adds a member to a set and re-arms the set's TTL.
func (s *RedisStore) AddToSet(ctx context.Context, key, member string, ttl time.Duration) error {
	if err := s.Client.SAdd(ctx, key, member).Err(); err != nil {
		return err
	}
	return s.Client.Expire(ctx, key, ttl).Err()
}

// Members returns all members of a set.
func (s *RedisStore) Members(ctx context.Context, key string) ([]string, error) {
	return s.Client.SMembers(ctx, key).Result()
}
