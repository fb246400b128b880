package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/domain/model"
	repo "github.com/JoGabriel-Carvalho/santuario-geek-server/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

// Redis上のカートキャッシュ。
// Redisが落ちている間はブレーカーが開き、呼び出しはすぐ失敗する（呼び出し側はDBへ）。
type RedisCartCache struct {
	client  *redis.Client
	baseTTL time.Duration
	cb      *gobreaker.CircuitBreaker[[]byte]
}

func NewRedisCartCache(client *redis.Client, baseTTL time.Duration) *RedisCartCache {
	if baseTTL <= 0 {
		baseTTL = 15 * time.Minute
	}
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "cart-cache",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// ミスは障害ではない
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, repo.ErrCacheMiss)
		},
	})
	return &RedisCartCache{client: client, baseTTL: baseTTL, cb: cb}
}

func (r *RedisCartCache) Get(ctx context.Context, userID string) ([]model.CartItem, error) {
	data, err := r.cb.Execute(func() ([]byte, error) {
		b, err := r.client.Get(ctx, cacheKey(userID)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, repo.ErrCacheMiss
		}
		return b, err
	})
	if errors.Is(err, repo.ErrCacheMiss) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var items []model.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return items, nil
}

func (r *RedisCartCache) Set(ctx context.Context, userID string, items []model.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	// 同時失効を避けるためにTTLを揺らす
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	_, err = r.cb.Execute(func() ([]byte, error) {
		return nil, r.client.Set(ctx, cacheKey(userID), data, r.baseTTL+jitter).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCartCache) Delete(ctx context.Context, userID string) error {
	_, err := r.cb.Execute(func() ([]byte, error) {
		return nil, r.client.Del(ctx, cacheKey(userID)).Err()
	})
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}
