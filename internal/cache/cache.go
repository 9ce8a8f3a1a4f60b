// Package cache 仓库目录缓存。
//
// 目录由工作簿内容唯一决定，键为文件 SHA-256；工作簿不变时目录不变，
// 因此缓存只需要过期，不需要失效通知。
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Backend 缓存后端名
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

const keyPrefix = "freightquote:warehouses:"

// Store 仓库目录缓存
type Store interface {
	// GetWarehouses 返回缓存的目录；未命中时 ok=false
	GetWarehouses(ctx context.Context, workbookHash string) (codes []string, ok bool, err error)
	SetWarehouses(ctx context.Context, workbookHash string, codes []string) error
	Close() error
}

// Options 缓存配置
type Options struct {
	Backend   string
	RedisAddr string
	RedisDB   int
	TTL       time.Duration
}

// New 按配置创建缓存；backend 为 none 时返回 Nop
func New(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendMemory:
		return NewMemory(opts.TTL), nil
	case BackendRedis:
		return NewRedis(ctx, opts.RedisAddr, opts.RedisDB, opts.TTL)
	case BackendNone:
		return Nop{}, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
}

func warehousesKey(hash string) string {
	return keyPrefix + hash
}

// Nop 不缓存
type Nop struct{}

func (Nop) GetWarehouses(context.Context, string) ([]string, bool, error) { return nil, false, nil }
func (Nop) SetWarehouses(context.Context, string, []string) error { return nil }
func (Nop) Close() error { return nil }
