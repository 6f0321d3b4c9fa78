package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryResultCache_SetAndGet 测试缓存设置和获取
func TestMemoryResultCache_SetAndGet(t *testing.T) {
	c := NewMemoryResultCache()
	defer c.Stop()

	require.NoError(t, c.Set("k", "v", time.Hour))
	got, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, "v", got)

	_, found = c.Get("missing")
	assert.False(t, found)

	// 空key和非正TTL被忽略
	require.NoError(t, c.Set("", "v", time.Hour))
	require.NoError(t, c.Set("zero", "v", 0))
	_, found = c.Get("zero")
	assert.False(t, found)
}

// TestMemoryResultCache_TTLExpiration 测试缓存TTL过期
func TestMemoryResultCache_TTLExpiration(t *testing.T) {
	c := NewMemoryResultCache()
	defer c.Stop()

	require.NoError(t, c.Set("k", "v", 50*time.Millisecond))
	_, found := c.Get("k")
	assert.True(t, found)

	time.Sleep(80 * time.Millisecond)
	_, found = c.Get("k")
	assert.False(t, found)
	assert.Equal(t, 0, c.Len())
}

// TestMemoryResultCache_Cleanup 测试后台清理
func TestMemoryResultCache_Cleanup(t *testing.T) {
	c := NewMemoryResultCacheWithInterval(20 * time.Millisecond)
	defer c.Stop()

	require.NoError(t, c.Set("k", "v", 10*time.Millisecond))
	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 10*time.Millisecond)

	c.Stop()
	c.Stop()
}

// TestMemoryResultCache_DeleteClear 测试删除和清空
func TestMemoryResultCache_DeleteClear(t *testing.T) {
	c := NewMemoryResultCache()
	defer c.Stop()

	require.NoError(t, c.Set("a", 1, time.Hour))
	require.NoError(t, c.Set("b", 2, time.Hour))
	require.NoError(t, c.Delete("a"))
	_, found := c.Get("a")
	assert.False(t, found)

	require.NoError(t, c.Clear())
	assert.Equal(t, 0, c.Len())
}

// TestMemoryResultCache_ConcurrentAccess 测试缓存并发安全
func TestMemoryResultCache_ConcurrentAccess(t *testing.T) {
	c := NewMemoryResultCache()
	defer c.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			key := fmt.Sprintf("k-%d", idx)
			_ = c.Set(key, idx, time.Hour)
			v, ok := c.Get(key)
			assert.True(t, ok)
			assert.Equal(t, idx, v)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 100, c.Len())
}

func TestKey(t *testing.T) {
	a := Key("stock", map[string]interface{}{"symbol": "000001", "adjust": "qfq"})
	b := Key("stock", map[string]interface{}{"adjust": "qfq", "symbol": "000001"})
	assert.Equal(t, a, b)
	assert.Equal(t, "stock", Key("stock", nil))
	assert.NotEqual(t, a, Key("fund", map[string]interface{}{"symbol": "000001", "adjust": "qfq"}))
}
