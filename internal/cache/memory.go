package cache

import (
	"context"
	"sync"
	"time"

	apperrors "p4-dashboard/pkg/errors"
)

type memoryEntry struct {
	value    []byte
	expireAt time.Time // 零值表示不过期
}

// MemoryStore 进程内 Store，Redis 不可用时使用
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore 创建进程内存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// GetBytes 读取键值，过期视为未命中
func (m *MemoryStore) GetBytes(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || (!e.expireAt.IsZero() && !m.now().Before(e.expireAt)) {
		return nil, apperrors.ErrCacheMiss
	}
	return e.value, nil
}

// SetBytes 写入键值
func (m *MemoryStore) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expireAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Delete 删除若干键
func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	m.mu.Unlock()
	return nil
}
