package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryBackend LRU缓存（容量有限，条目带TTL）
// 满时淘汰最久未使用的条目，过期条目由后台协程定期清理
type MemoryBackend struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	lru      *list.List

	stop     chan struct{}
	stopOnce sync.Once
}

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// NewMemoryBackend 创建内存缓存后端
func NewMemoryBackend(capacity int) *MemoryBackend {
	if capacity <= 0 {
		capacity = 1024
	}
	b := &MemoryBackend{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
		stop:     make(chan struct{}),
	}

	// 启动定期清理过期条目的goroutine
	go b.cleanupExpired()

	return b
}

// Get 获取缓存值，过期条目按不存在处理
func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	elem, ok := b.entries[key]
	if !ok {
		return nil, false, nil
	}
	entry := elem.Value.(*memoryEntry)
	if time.Now().After(entry.expiresAt) {
		b.lru.Remove(elem)
		delete(b.entries, key)
		return nil, false, nil
	}

	// 移到链表头部（最近使用）
	b.lru.MoveToFront(elem)
	return entry.value, true, nil
}

// Set 写入缓存值
func (b *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiresAt := time.Now().Add(ttl)

	// 如果已存在，更新并移到头部
	if elem, ok := b.entries[key]; ok {
		b.lru.MoveToFront(elem)
		entry := elem.Value.(*memoryEntry)
		entry.value = value
		entry.expiresAt = expiresAt
		return nil
	}

	// 检查容量，超出则删除最久未使用的
	if b.lru.Len() >= b.capacity {
		oldest := b.lru.Back()
		if oldest != nil {
			b.lru.Remove(oldest)
			delete(b.entries, oldest.Value.(*memoryEntry).key)
		}
	}

	elem := b.lru.PushFront(&memoryEntry{key: key, value: value, expiresAt: expiresAt})
	b.entries[key] = elem
	return nil
}

// Delete 删除缓存条目
func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if elem, ok := b.entries[key]; ok {
		b.lru.Remove(elem)
		delete(b.entries, key)
	}
	return nil
}

// Close 停止后台清理
func (b *MemoryBackend) Close() error {
	b.stopOnce.Do(func() { close(b.stop) })
	return nil
}

// Len 返回当前条目数（用于监控与测试）
func (b *MemoryBackend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lru.Len()
}

// cleanupExpired 定期清理过期条目（每分钟）
func (b *MemoryBackend) cleanupExpired() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.mu.Lock()
			now := time.Now()
			for key, elem := range b.entries {
				if now.After(elem.Value.(*memoryEntry).expiresAt) {
					b.lru.Remove(elem)
					delete(b.entries, key)
				}
			}
			b.mu.Unlock()
		case <-b.stop:
			return
		}
	}
}
