package prefs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const ChangesChannel = "prefs:changes"

// RedisStore keeps one hash per scope and publishes changes on ChangesChannel,
// so every console instance sees writes from every other one.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func hashKey(scope string) string {
	return fmt.Sprintf("prefs:%s", scope)
}

func (r *RedisStore) Get(ctx context.Context, scope, key string) (string, bool, error) {
	v, err := r.client.HGet(ctx, hashKey(scope), key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisStore) Set(ctx context.Context, scope, key, value, origin string) error {
	payload, err := json.Marshal(Change{Scope: scope, Key: key, Value: value, Origin: origin})
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	pipe := r.client.Pipeline()
	pipe.HSet(ctx, hashKey(scope), key, value)
	pipe.Publish(ctx, ChangesChannel, payload)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) Subscribe(ctx context.Context) (<-chan Change, error) {
	sub := r.client.Subscribe(ctx, ChangesChannel)
	// Wait for confirmation so no publish after return is missed.
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", ChangesChannel, err)
	}

	out := make(chan Change, 64)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var c Change
				if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
					log.Warn().Err(err).Msg("prefs: dropping malformed change")
					continue
				}
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
