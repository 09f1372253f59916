package idmap

// Registry 是外部 ID 与内部稠密下标之间的双射映射。
//
// 不变量：
//   - N 个实体的下标为连续的 0..N-1
//   - 任意两个不同的外部 ID 不共享下标，任意下标不空缺
//   - 构建完成后只读，可被多个 goroutine 无锁并发读取
//
// 矩阵分解的因子矩阵与向量索引都以内部下标寻址，
// 每次训练从数据快照重建一份 Registry，随模型产物整体发布。
type Registry struct {
	ids   []string
	index map[string]int
}

// New 按首次出现顺序为去重后的外部 ID 分配下标。
// 空字符串与重复 ID 会被跳过。
func New(ids []string) *Registry {
	r := &Registry{
		ids:   make([]string, 0, len(ids)),
		index: make(map[string]int, len(ids)),
	}
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := r.index[id]; ok {
			continue
		}
		r.index[id] = len(r.ids)
		r.ids = append(r.ids, id)
	}
	return r
}

// IndexOf 返回外部 ID 对应的内部下标。
// 训练快照中不存在的 ID（冷实体）返回 ok=false。
func (r *Registry) IndexOf(id string) (int, bool) {
	idx, ok := r.index[id]
	return idx, ok
}

// IDOf 返回内部下标对应的外部 ID。
func (r *Registry) IDOf(index int) (string, bool) {
	if index < 0 || index >= len(r.ids) {
		return "", false
	}
	return r.ids[index], true
}

// Len 返回映射中的实体数量。
func (r *Registry) Len() int {
	return len(r.ids)
}

// IDs 返回按下标顺序排列的外部 ID 列表（副本）。
func (r *Registry) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}
