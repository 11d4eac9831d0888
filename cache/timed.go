package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wyfcoding/optionlab/logging"
)

// Entry 带写入时间戳的缓存条目。
type Entry struct {
	Value     json.RawMessage `json:"value"`
	Timestamp time.Time       `json:"timestamp"`
}

// LoadFunc 缓存未命中时的回源函数。
type LoadFunc func(ctx context.Context) (any, error)

// TimedCache 在任意 Cache 之上按写入时间判断新鲜度，并用 singleflight 合并相同键的并发回源。
type TimedCache struct {
	backend Cache
	maxAge  time.Duration
	group   singleflight.Group
	now     func() time.Time
}

// NewTimedCache 创建 TimedCache，maxAge<=0 表示条目永不过期（由后端 TTL 控制）。
func NewTimedCache(backend Cache, maxAge time.Duration) *TimedCache {
	return &TimedCache{backend: backend, maxAge: maxAge, now: time.Now}
}

func (c *TimedCache) fresh(e Entry) bool {
	return c.maxAge <= 0 || c.now().Sub(e.Timestamp) <= c.maxAge
}

// Get 读取未过期的条目到 dst。
func (c *TimedCache) Get(ctx context.Context, key string, dst any) error {
	var e Entry
	if err := c.backend.Get(ctx, key, &e); err != nil {
		return err
	}
	if !c.fresh(e) {
		return ErrCacheMiss
	}
	return json.Unmarshal(e.Value, dst)
}

// Set 以当前时间戳写入。
func (c *TimedCache) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	return c.backend.Set(ctx, key, Entry{Value: raw, Timestamp: c.now()}, c.maxAge)
}

// GetOrLoad 命中则直接解码到 dst；否则回源并写回缓存。
// 返回值 hit 表示是否来自缓存。缓存读写失败只影响命中率，不影响结果。
func (c *TimedCache) GetOrLoad(ctx context.Context, key string, dst any, load LoadFunc) (bool, error) {
	err := c.Get(ctx, key, dst)
	if err == nil {
		return true, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		val, err := load(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("marshal error: %w", err)
		}
		entry := Entry{Value: raw, Timestamp: c.now()}
		if err := c.backend.Set(ctx, key, entry, c.maxAge); err != nil {
			logging.Warn(ctx, "cache write back failed", "key", key, "error", err)
		}
		return json.RawMessage(raw), nil
	})
	if err != nil {
		return false, err
	}
	raw, ok := v.(json.RawMessage)
	if !ok {
		return false, errors.New("unexpected singleflight result")
	}
	return false, json.Unmarshal(raw, dst)
}
