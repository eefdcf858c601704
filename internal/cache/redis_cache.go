package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/Chiragtaneja05/cafe-billing-system/internal/domain"
)

type RedisMenuCache struct {
	client *redis.Client
}

func NewRedisMenuCache(addr string, password string, db int) *RedisMenuCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisMenuCache{client: client}
}

func (c *RedisMenuCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisMenuCache) Close() error {
	return c.client.Close()
}

func (c *RedisMenuCache) Get(ctx context.Context, ownerID string) (*domain.PublicMenu, bool, error) {
	val, err := c.client.Get(ctx, menuKey(ownerID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var menu domain.PublicMenu
	if err := json.Unmarshal([]byte(val), &menu); err != nil {
		return nil, false, err
	}
	return &menu, true, nil
}

func (c *RedisMenuCache) Set(ctx context.Context, ownerID string, menu *domain.PublicMenu, ttl time.Duration) error {
	if menu == nil {
		return nil
	}
	payload, err := json.Marshal(menu)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, menuKey(ownerID), payload, ttl).Err()
}

func (c *RedisMenuCache) Invalidate(ctx context.Context, ownerID string) error {
	return c.client.Del(ctx, menuKey(ownerID)).Err()
}
