package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisGateway is the production Cache Gateway: every table's
// serialized hand lives at key hand:<tableId> with no expiry, so an
// entry stays until a table actor deletes it.
type RedisGateway struct {
	client *redis.Client
}

type RedisConfig struct {
	Host string
	Port int
	DB   int
}

func NewRedisGateway(cfg RedisConfig) *RedisGateway {
	client := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		DB:   cfg.DB,
	})
	return &RedisGateway{client: client}
}

func (r *RedisGateway) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisGateway) Close() error {
	return r.client.Close()
}

func (r *RedisGateway) Save(ctx context.Context, key string, data []byte) error {
	return r.client.Set(ctx, key, data, 0).Err()
}

func (r *RedisGateway) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *RedisGateway) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisGateway) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisGateway) ListByPrefix(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	iter := r.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
