package generator

import (
	"sync"
	"time"
)

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// MemoryCache はプロセス内で完結する ImageCacher の実装です。
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]cacheEntry
	now   func() time.Time
}

// NewMemoryCache は空の MemoryCache を作成します。
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]cacheEntry), now: time.Now}
}

func (m *MemoryCache) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if m.now().After(e.expiresAt) {
		delete(m.items, key)
		return nil, false
	}
	return e.value, true
}

func (m *MemoryCache) Set(key string, value any, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = cacheEntry{value: value, expiresAt: m.now().Add(d)}
}

// NamespacedCache はキーに接頭辞を付けて、API キーごとにキャッシュを分離します。
type NamespacedCache struct {
	inner     ImageCacher
	namespace string
}

// NewNamespacedCache は inner を namespace で区切った ImageCacher を返します。
func NewNamespacedCache(inner ImageCacher, namespace string) *NamespacedCache {
	return &NamespacedCache{inner: inner, namespace: namespace}
}

func (n *NamespacedCache) Get(key string) (any, bool) {
	return n.inner.Get(n.namespace + "/" + key)
}

func (n *NamespacedCache) Set(key string, value any, d time.Duration) {
	n.inner.Set(n.namespace+"/"+key, value, d)
}
