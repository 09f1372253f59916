package source

import (
	"context"
	"sync"

	"github.com/rushteam/hybridrec/core"
)

// MemorySource 是内存数据源，用于测试/开发/原型。
// 同时实现 InteractionSource 与 ItemSource。
// 每次快照返回当前数据的副本，构建期间追加的新数据不影响已取快照。
type MemorySource struct {
	mu           sync.RWMutex
	interactions []core.Interaction
	items        []core.ItemRecord
}

func NewMemorySource() *MemorySource {
	return &MemorySource{}
}

// AddInteractions 追加交互记录。
func (s *MemorySource) AddInteractions(in ...core.Interaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions = append(s.interactions, in...)
}

// AddItems 追加物品记录。
func (s *MemorySource) AddItems(items ...core.ItemRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, items...)
}

func (s *MemorySource) Interactions(ctx context.Context) ([]core.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Interaction, len(s.interactions))
	copy(out, s.interactions)
	return out, nil
}

func (s *MemorySource) Items(ctx context.Context) ([]core.ItemRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.ItemRecord, len(s.items))
	copy(out, s.items)
	return out, nil
}

var _ core.InteractionSource = (*MemorySource)(nil)
var _ core.ItemSource = (*MemorySource)(nil)
