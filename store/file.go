package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rushteam/hybridrec/core"
)

// FileStore 是本地文件实现的 Store，用于模型产物的单机持久化。
// 每个 key 对应一个文件；写入通过临时文件 + rename 保证原子性，
// 读者要么看到完整的旧文件要么看到完整的新文件。
// 不支持有序集合操作。
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) Name() string { return "file" }

// path 将 key 映射为文件名，冒号替换为下划线避免非法字符。
func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, strings.ReplaceAll(key, ":", "_")+".bin")
}

func (f *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrStoreNotFound
		}
		return nil, err
	}
	return data, nil
}

func (f *FileStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	path := f.path(key)
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (f *FileStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(f.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (f *FileStore) Close() error { return nil }

var _ core.Store = (*FileStore)(nil)
