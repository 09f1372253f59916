package artifact

import (
	"context"

	"github.com/rushteam/hybridrec/core"
)

// BundleStore 通过 core.Store 持久化模型产物，保证跨重启可恢复。
// 后端可以是本地文件（store.FileStore）或 Redis（store.RedisStore）。
type BundleStore struct {
	store core.Store
	key   string
}

// NewBundleStore 创建产物持久化器。key 为空时使用默认 key。
func NewBundleStore(s core.Store, key string) *BundleStore {
	if key == "" {
		key = "artifact:bundle"
	}
	return &BundleStore{store: s, key: key}
}

// Save 将产物整体写入存储。
func (b *BundleStore) Save(ctx context.Context, a *Artifact) error {
	data, err := Encode(a)
	if err != nil {
		return err
	}
	return b.store.Set(ctx, b.key, data)
}

// Load 从存储加载产物。
// 不存在返回 NOT_FOUND；损坏返回 CORRUPT（整体拒绝，不部分加载）。
func (b *BundleStore) Load(ctx context.Context) (*Artifact, error) {
	data, err := b.store.Get(ctx, b.key)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
