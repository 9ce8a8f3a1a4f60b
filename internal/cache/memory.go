package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	codes     []string
	expiresAt time.Time
}

// Memory 进程内缓存
type Memory struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]memoryEntry
}

// NewMemory 创建进程内缓存；ttl<=0 表示不过期
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]memoryEntry),
	}
}

func (m *Memory) GetWarehouses(_ context.Context, hash string) ([]string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[warehousesKey(hash)]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		delete(m.items, warehousesKey(hash))
		return nil, false, nil
	}
	return append([]string(nil), e.codes...), true, nil
}

func (m *Memory) SetWarehouses(_ context.Context, hash string, codes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{codes: append([]string{}, codes...)}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
	m.items[warehousesKey(hash)] = e
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]memoryEntry)
	return nil
}
