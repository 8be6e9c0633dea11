package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist tracks revoked access tokens until they would have expired.
type TokenBlacklist interface {
	IsBlacklisted(ctx context.Context, station, jti string) (bool, error)
	AddToBlacklist(ctx context.Context, station, jti string, ttl time.Duration) error
}

type RedisBlacklist struct {
	client *redis.Client
}

func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client}
}

func blacklistKey(station, jti string) string {
	return fmt.Sprintf("blacklist:%s:%s", station, jti)
}

func (r *RedisBlacklist) IsBlacklisted(ctx context.Context, station, jti string) (bool, error) {
	exists, err := r.client.Exists(ctx, blacklistKey(station, jti)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (r *RedisBlacklist) AddToBlacklist(ctx context.Context, station, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, blacklistKey(station, jti), "revoked", ttl).Err()
}
