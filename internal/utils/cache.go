package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheItem 包装实际的数据，增加过期时间（零值表示不过期）
type CacheItem[V any] struct {
	Value     V
	ExpiredAt time.Time
}

// LRUCache 有界 LRU 缓存，可选 TTL
type LRUCache[K comparable, V any] struct {
	storage *lru.Cache[K, CacheItem[V]]
	ttl     time.Duration
}

// NewLRUCache size 是最大缓存条数，ttl <= 0 表示条目不过期
func NewLRUCache[K comparable, V any](size int, ttl time.Duration) *LRUCache[K, V] {
	if size < 1 {
		size = 1
	}
	// size >= 1 时 lru.New 不会出错；lru.Cache 是线程安全的
	c, _ := lru.New[K, CacheItem[V]](size)
	return &LRUCache[K, V]{storage: c, ttl: ttl}
}

// Set 写入或覆盖
func (c *LRUCache[K, V]) Set(key K, value V) {
	item := CacheItem[V]{Value: value}
	if c.ttl > 0 {
		item.ExpiredAt = time.Now().Add(c.ttl)
	}
	c.storage.Add(key, item)
}

// Get 读取，过期条目会被删除
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	var zero V
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}
	if !item.ExpiredAt.IsZero() && time.Now().After(item.ExpiredAt) {
		c.storage.Remove(key)
		return zero, false
	}
	return item.Value, true
}

// Delete 删除
func (c *LRUCache[K, V]) Delete(key K) {
	c.storage.Remove(key)
}

// Purge 清空
func (c *LRUCache[K, V]) Purge() {
	c.storage.Purge()
}

// Len 当前条目数
func (c *LRUCache[K, V]) Len() int {
	return c.storage.Len()
}
