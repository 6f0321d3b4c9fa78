package cache

import (
	"encoding/json"
	"sync"
	"time"
)

// ResultCache 结果缓存接口（对外导出）
type ResultCache interface {
	// Set 设置缓存值
	// key: 缓存键
	// value: 结果数据
	// ttl: 缓存有效期
	Set(key string, value interface{}, ttl time.Duration) error

	// Get 获取缓存值
	// 返回: 结果数据和是否存在
	Get(key string) (interface{}, bool)

	// Delete 删除缓存值
	Delete(key string) error

	// Clear 清空所有缓存
	Clear() error
}

// cacheEntry 缓存条目（内部使用）
type cacheEntry struct {
	value      interface{}
	expireTime time.Time
}

// MemoryResultCache 内存结果缓存实现（对外导出）
type MemoryResultCache struct {
	mu       sync.RWMutex
	cache    map[string]*cacheEntry
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewMemoryResultCache 创建内存结果缓存实例，每分钟清理一次过期条目（对外导出）
func NewMemoryResultCache() *MemoryResultCache {
	return NewMemoryResultCacheWithInterval(time.Minute)
}

// NewMemoryResultCacheWithInterval 指定清理间隔创建内存结果缓存（对外导出）
func NewMemoryResultCacheWithInterval(interval time.Duration) *MemoryResultCache {
	c := &MemoryResultCache{
		cache:  make(map[string]*cacheEntry),
		stopCh: make(chan struct{}),
	}
	go c.cleanupExpired(interval)
	return c
}

// Key 由名称和参数生成稳定的缓存键（对外导出）
// 参数按JSON序列化，map的键有序
func Key(name string, params map[string]interface{}) string {
	if len(params) == 0 {
		return name
	}
	b, err := json.Marshal(params)
	if err != nil {
		return ""
	}
	return name + "|" + string(b)
}

// Set 设置缓存值
func (c *MemoryResultCache) Set(key string, value interface{}, ttl time.Duration) error {
	if key == "" || ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[key] = &cacheEntry{
		value:      value,
		expireTime: time.Now().Add(ttl),
	}
	return nil
}

// Get 获取缓存值，过期条目视为不存在
func (c *MemoryResultCache) Get(key string) (interface{}, bool) {
	if key == "" {
		return nil, false
	}

	c.mu.RLock()
	entry, exists := c.cache[key]
	c.mu.RUnlock()
	if !exists {
		return nil, false
	}

	if time.Now().After(entry.expireTime) {
		c.mu.Lock()
		if cur, ok := c.cache[key]; ok && cur == entry {
			delete(c.cache, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

// Delete 删除缓存值
func (c *MemoryResultCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.cache, key)
	return nil
}

// Clear 清空所有缓存
func (c *MemoryResultCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[string]*cacheEntry)
	return nil
}

// Len 当前条目数（含未清理的过期条目）
func (c *MemoryResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Stop 停止后台清理协程，可重复调用（对外导出）
func (c *MemoryResultCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// cleanupExpired 清理过期缓存（内部方法）
func (c *MemoryResultCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.cache {
				if now.After(entry.expireTime) {
					delete(c.cache, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// 确保实现接口
var _ ResultCache = (*MemoryResultCache)(nil)
