package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis 多实例部署时共享的缓存
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis 连接 redis 并 PING 一次
func NewRedis(ctx context.Context, addr string, db int, ttl time.Duration) (*Redis, error) {
	if addr == "" {
		return nil, errors.New("redis address is empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &Redis{client: client, ttl: ttl}, nil
}

func (r *Redis) GetWarehouses(ctx context.Context, hash string) ([]string, bool, error) {
	data, err := r.client.Get(ctx, warehousesKey(hash)).Result()
	if err == redis.Nil || data == "" {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("redis GET error: %w", err)
	}

	var codes []string
	if err := json.Unmarshal([]byte(data), &codes); err != nil {
		return nil, false, fmt.Errorf("json.Unmarshal: %w", err)
	}
	return codes, true, nil
}

func (r *Redis) SetWarehouses(ctx context.Context, hash string, codes []string) error {
	if codes == nil {
		codes = []string{}
	}
	b, err := json.Marshal(codes)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}
	if err := r.client.Set(ctx, warehousesKey(hash), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET error: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
