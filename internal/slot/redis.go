package slot

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"storefront-client/internal/domain"
)

const redisKeyPrefix = "storefront:slot:"

// Redis stores the slot as a single string key with no expiry.
type Redis struct {
	client *redis.Client
	key    string
}

func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
		Protocol: 2,
	})
}

func NewRedis(client *redis.Client, name string) *Redis {
	return &Redis{client: client, key: redisKeyPrefix + nameOrDefault(name)}
}

func (r *Redis) Load(ctx context.Context) (*Record, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return decode(raw)
}

func (r *Redis) Save(ctx context.Context, rec Record) error {
	raw, err := encode(rec)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, raw, 0).Err()
}

func (r *Redis) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
