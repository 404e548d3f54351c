// Package store 进程内快照存储（不落盘）
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"billingcb/internal/model"
)

// LatestID 指代最近一次上传的快照
const LatestID = "latest"

// ErrSnapshotNotFound 快照不存在或已过期
var ErrSnapshotNotFound = errors.New("snapshot not found")

// MemoryStore 快照内存存储；快照只读，新上传整体替换 latest
type MemoryStore struct {
	cache  *cache.Cache
	mu     sync.RWMutex
	latest string
}

// NewMemoryStore 创建存储；ttl<=0 表示永不过期
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		return &MemoryStore{cache: cache.New(cache.NoExpiration, 0)}
	}
	return &MemoryStore{cache: cache.New(ttl, ttl*2)}
}

// Put 保存快照并设为 latest
func (s *MemoryStore) Put(snap *model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Set(snap.ID, snap, cache.DefaultExpiration)
	s.latest = snap.ID
}

// Get 按 ID 取快照；ID 为 "latest" 时取最近一次上传
func (s *MemoryStore) Get(id string) (*model.Snapshot, error) {
	if id == LatestID {
		s.mu.RLock()
		id = s.latest
		s.mu.RUnlock()
	}
	if id == "" {
		return nil, ErrSnapshotNotFound
	}
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return v.(*model.Snapshot), nil
}

// Latest 最近一次上传的快照
func (s *MemoryStore) Latest() (*model.Snapshot, error) {
	return s.Get(LatestID)
}

// Delete 删除快照
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(id)
	if s.latest == id {
		s.latest = ""
	}
}

// Count 未过期快照数量
func (s *MemoryStore) Count() int {
	return s.cache.ItemCount()
}
