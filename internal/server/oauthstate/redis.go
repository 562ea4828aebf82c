package oauthstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "oauthstate:"

type redisClient interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore keeps each state as a one-time nonce with a TTL. Consume
// deletes it, so a replayed callback is rejected.
type RedisStore struct {
	client redisClient
	ttl    time.Duration
}

func NewRedisStore(client redisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisClient connects and pings with a short deadline.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (r *RedisStore) Issue(ctx context.Context) (string, error) {
	nonce, err := common.MakeRandURLString(32)
	if err != nil {
		return "", common.Internal(err)
	}
	if err := r.client.Set(ctx, keyPrefix+nonce, "1", r.ttl).Err(); err != nil {
		return "", common.Internal(fmt.Errorf("redis set: %w", err))
	}
	return nonce, nil
}

func (r *RedisStore) Consume(ctx context.Context, state string) error {
	if state == "" {
		return ErrInvalidState
	}
	err := r.client.GetDel(ctx, keyPrefix+state).Err()
	if errors.Is(err, redis.Nil) {
		return ErrInvalidState
	}
	if err != nil {
		return common.Internal(fmt.Errorf("redis getdel: %w", err))
	}
	return nil
}
