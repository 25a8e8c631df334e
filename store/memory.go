// Package store 只包含实现，接口定义在 core 包。
// 使用 core.Store 和 core.KeyValueStore 接口。
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore 是内存实现的 Store，用于测试/开发/原型。
// 过期在读路径上惰性执行（compare-and-remove），没有后台清扫协程，
// 与内存 TTL 缓存的策略保持一致。
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string]*entry
	zsets map[string]map[string]float64 // zset key -> member -> score
	clock func() time.Time
}

type entry struct {
	value    []byte
	storedAt time.Time
	expireAt *time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:  make(map[string]*entry),
		zsets: make(map[string]map[string]float64),
		clock: time.Now,
	}
}

// NewMemoryStoreWithClock 注入假时钟，供 TTL/清理测试使用。
func NewMemoryStoreWithClock(clock func() time.Time) *MemoryStore {
	ms := NewMemoryStore()
	ms.clock = clock
	return ms
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	now := m.clock()

	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if e.expireAt != nil && now.After(*e.expireAt) {
		m.mu.Lock()
		if cur, ok := m.data[key]; ok && cur == e {
			delete(m.data, key)
		}
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	return e.value, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttlSec int) error {
	now := m.clock()
	e := &entry{value: value, storedAt: now}
	if ttlSec > 0 {
		expire := now.Add(time.Duration(ttlSec) * time.Second)
		e.expireAt = &expire
	}

	m.mu.Lock()
	m.data[key] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// DeleteOlderThan 删除写入时间早于 olderThanMs 的行（前缀匹配）。
func (m *MemoryStore) DeleteOlderThan(ctx context.Context, prefix string, olderThanMs int64) error {
	cutoff := time.UnixMilli(olderThanMs)

	m.mu.Lock()
	for k, e := range m.data {
		if strings.HasPrefix(k, prefix) && e.storedAt.Before(cutoff) {
			delete(m.data, k)
		}
	}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// KeyValueStore 扩展（榜单兜底数据用）

func (m *MemoryStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	m.mu.Lock()
	if m.zsets[key] == nil {
		m.zsets[key] = make(map[string]float64)
	}
	m.zsets[key][member] = score
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	zset, ok := m.zsets[key]
	if !ok || len(zset) == 0 {
		return nil, nil
	}

	type pair struct {
		member string
		score  float64
	}
	pairs := make([]pair, 0, len(zset))
	for mem, s := range zset {
		pairs = append(pairs, pair{member: mem, score: s})
	}
	// score 降序，同分按 member 保证确定性
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].score != pairs[j].score {
			return pairs[i].score > pairs[j].score
		}
		return pairs[i].member < pairs[j].member
	})

	if start < 0 {
		start = 0
	}
	if stop < 0 || stop >= int64(len(pairs)) {
		stop = int64(len(pairs)) - 1
	}
	if start > stop {
		return nil, nil
	}

	result := make([]string, 0, stop-start+1)
	for i := start; i <= stop && i < int64(len(pairs)); i++ {
		result = append(result, pairs[i].member)
	}
	return result, nil
}
