// Package cache 提供按 feature 划分的进程内 TTL 缓存。
//
// 读算法是 compare-and-remove：读到的条目超过 TTL 即删除并按未命中处理，
// 没有后台清扫协程。过期只在访问时惰性执行。
package cache

import (
	"sync"
	"time"
)

// 各 feature 的 TTL 常量。调整时同步看一遍对应仓储的降级链测试。
const (
	TTLArtistPage    = 30 * time.Minute
	TTLArtistSection = 60 * time.Minute
	TTLAlbumSongs    = 60 * time.Minute
	TTLChart         = 60 * time.Minute
	TTLQuickPicks    = 6 * time.Hour
	TTLSearch        = 5 * time.Minute
	TTLRegion        = 5 * time.Minute

	// StaleTolerance 是过期容忍窗口：条目超过 TTL 但在此窗口内时，
	// 仍可作为远端失败的兜底值返回（带 stale 标记）。
	StaleTolerance = 24 * time.Hour

	// PurgeHorizon 是持久行的清理界限，超过即机会式删除。
	PurgeHorizon = 7 * 24 * time.Hour
)

// Clock 返回当前时间；测试注入假时钟，生产默认 time.Now。
type Clock func() time.Time

// Cache 是缓存策略接口：get / put / invalidate。
// 仓储层只依赖此接口，TTL 策略可替换。
type Cache[T any] interface {
	Get(key string) (T, bool)
	Put(key string, value T)
	Invalidate(key string)
}

// Entry 是带写入时间戳的缓存值。替换而非原地修改：刷新时整体换新条目。
type Entry[T any] struct {
	Value    T
	CachedAt time.Time
}

// Age 返回条目年龄。
func (e Entry[T]) Age(now time.Time) time.Duration {
	return now.Sub(e.CachedAt)
}

// TTL 是内存 TTL 缓存实现，支持多个并发调用方安全读写。
// 同一 key 的并发刷新遵循 last-write-wins，不做 compare-and-swap。
type TTL[T any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[T]
	ttl     time.Duration
	clock   Clock
}

// NewTTL 创建 TTL 缓存；clock 为 nil 时使用 time.Now。
func NewTTL[T any](ttl time.Duration, clock Clock) *TTL[T] {
	if clock == nil {
		clock = time.Now
	}
	return &TTL[T]{
		entries: make(map[string]Entry[T]),
		ttl:     ttl,
		clock:   clock,
	}
}

// Get 读取 key。边界语义：age <= ttl 命中，age > ttl 未命中。
// 过期条目在过期容忍窗口内保留（降级链的 GetStale 还要读它），
// 超出窗口才惰性删除。
func (c *TTL[T]) Get(key string) (T, bool) {
	var zero T
	now := c.clock()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}

	age := e.Age(now)
	if age > c.ttl {
		if age > retainHorizon(c.ttl) {
			c.remove(key, e.CachedAt)
		}
		return zero, false
	}
	return e.Value, true
}

// GetStale 读取 key，容忍过期：只要条目年龄 <= tolerance 就返回。
// 第二个返回值表示条目是否已超过正常 TTL（调用方需透出 stale 标记）。
// 条目的原始时间戳保持不变，后续 TTL 判断不受影响。
func (c *TTL[T]) GetStale(key string, tolerance time.Duration) (T, bool, bool) {
	var zero T
	now := c.clock()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false, false
	}

	age := e.Age(now)
	if age > tolerance {
		if age > retainHorizon(c.ttl) {
			c.remove(key, e.CachedAt)
		}
		return zero, false, false
	}
	return e.Value, true, age > c.ttl
}

// retainHorizon 是条目的惰性删除边界：TTL 与过期容忍窗口中较大者。
func retainHorizon(ttl time.Duration) time.Duration {
	if ttl > StaleTolerance {
		return ttl
	}
	return StaleTolerance
}

// remove 删除条目；持锁间隙内被并发刷新过的条目不删。
func (c *TTL[T]) remove(key string, cachedAt time.Time) {
	c.mu.Lock()
	if cur, ok := c.entries[key]; ok && cur.CachedAt.Equal(cachedAt) {
		delete(c.entries, key)
	}
	c.mu.Unlock()
}

// Put 写入 key，时间戳取当前时钟。
func (c *TTL[T]) Put(key string, value T) {
	now := c.clock()
	c.mu.Lock()
	c.entries[key] = Entry[T]{Value: value, CachedAt: now}
	c.mu.Unlock()
}

// PutAll 扇出写多个 key 指向同一值（如艺人主页同时落 browse:/name: 两个 key）。
// 单锁内完成，不会出现只写一半的中间态。
func (c *TTL[T]) PutAll(keys []string, value T) {
	now := c.clock()
	c.mu.Lock()
	for _, k := range keys {
		if k == "" {
			continue
		}
		c.entries[k] = Entry[T]{Value: value, CachedAt: now}
	}
	c.mu.Unlock()
}

// Invalidate 删除 key（force-refresh 在调用刷新源之前先走这里）。
func (c *TTL[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len 返回当前条目数（含未被访问到的过期条目）。
func (c *TTL[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ Cache[int] = (*TTL[int])(nil)
