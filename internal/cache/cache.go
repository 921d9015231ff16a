// Package cache 显式的表缓存：按键读取或加载、按键失效。
// 缓存只是加速手段，任何缓存错误都会退化为重新加载。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	apperrors "p4-dashboard/pkg/errors"
	"p4-dashboard/pkg/metrics"
)

// Store 字节级键值存储；键不存在时 GetBytes 返回 apperrors.ErrCacheMiss。
// *redis.Client 与 *MemoryStore 都实现了该接口。
type Store interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const keyPrefix = "p4:table:"

// 缓存键
const (
	KeyDataset = "dataset"
	KeySchools = "schools"
	KeyRoster  = "roster"
)

// SheetKey 单个参训工作表的缓存键
func SheetKey(sheet string) string {
	return "sheet:" + sheet
}

// LoadTimeout 共享加载的超时；加载与发起请求的客户端解耦
const LoadTimeout = 2 * time.Minute

// TableCache 带 TTL 的表缓存；同一键的并发未命中共享一次加载
//
// 每个键有一个代数，Invalidate 递增代数；加载开始后若代数变化，结果只返回给调用方，不回写缓存
type TableCache struct {
	store  Store
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger

	mu   sync.Mutex
	gens map[string]uint64
}

// New 创建表缓存
func New(store Store, ttl time.Duration, logger *zap.Logger) *TableCache {
	return &TableCache{store: store, ttl: ttl, logger: logger, gens: make(map[string]uint64)}
}

func (c *TableCache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key]
}

// saveIfCurrent 代数未变化时回写；持锁期间 Invalidate 无法插入
func (c *TableCache) saveIfCurrent(ctx context.Context, key string, gen uint64, v interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[key] != gen {
		c.logger.Debug("加载期间缓存已失效，丢弃本次结果", zap.String("key", key))
		return
	}
	c.save(ctx, key, v)
}

// GetOrLoad 命中则解码返回，否则调用 load 并回写缓存
func GetOrLoad[T any](ctx context.Context, c *TableCache, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := lookup[T](ctx, c, key); ok {
		metrics.CacheLookups.WithLabelValues(metrics.ResultHit).Inc()
		return v, nil
	}
	metrics.CacheLookups.WithLabelValues(metrics.ResultMiss).Inc()

	ch := c.group.DoChan(key, func() (interface{}, error) {
		gen := c.generation(key)
		// 共享加载不随首个调用方的请求取消
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), LoadTimeout)
		defer cancel()

		v, err := load(lctx)
		if err != nil {
			return nil, err
		}
		c.saveIfCurrent(lctx, key, gen, v)
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func lookup[T any](ctx context.Context, c *TableCache, key string) (T, bool) {
	var v T
	b, err := c.store.GetBytes(ctx, keyPrefix+key)
	if err != nil {
		if !errors.Is(err, apperrors.ErrCacheMiss) {
			c.logger.Warn("读取缓存失败，改为重新加载", zap.String("key", key), zap.Error(err))
		}
		return v, false
	}
	if err := json.Unmarshal(b, &v); err != nil {
		c.logger.Warn("缓存内容无法解码，改为重新加载", zap.String("key", key), zap.Error(err))
		return v, false
	}
	return v, true
}

func (c *TableCache) save(ctx context.Context, key string, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("缓存编码失败", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetBytes(ctx, keyPrefix+key, b, c.ttl); err != nil {
		c.logger.Warn("写入缓存失败", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate 使若干键失效
func (c *TableCache) Invalidate(ctx context.Context, keys ...string) error {
	full := make([]string, 0, len(keys))
	c.mu.Lock()
	for _, k := range keys {
		c.gens[k]++
		c.group.Forget(k)
		full = append(full, keyPrefix+k)
	}
	err := c.store.Delete(ctx, full...)
	c.mu.Unlock()
	if err != nil {
		c.logger.Error("缓存失效失败", zap.Strings("keys", keys), zap.Error(err))
		return err
	}
	c.logger.Info("缓存已失效", zap.Strings("keys", keys))
	return nil
}
