package clientstate

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Redis persists client state in Redis so it survives process restarts.
type Redis struct {
	Client *redis.Client
}

func NewRedis(addr string) *Redis {
	return &Redis{Client: redis.NewClient(&redis.Options{Addr: addr})}
}

func (s *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := s.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoValue
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *Redis) Set(ctx context.Context, key, value string) error {
	return s.Client.Set(ctx, key, value, 0).Err()
}

func (s *Redis) Delete(ctx context.Context, key string) error {
	return s.Client.Del(ctx, key).Err()
}
