package vector

import (
	"fmt"
	"sort"

	"github.com/rushteam/hybridrec/core"
)

// FlatIndex 是平铺精确向量索引（内容信号）。
//
// 语义基线：暴力比对每个物品向量，距离为平方欧氏距离，
// 升序返回，距离相同时内部下标小者优先。
// 在本系统的目标规模（数万物品）下精确检索即可满足延迟要求，
// 近似索引只有在保持相同 top-k 集合时才允许替换。
//
// 向量下标即物品内部下标：第 i 个加入的向量属于 InternalIndex i。
// 构建完成后只读，可无锁并发检索。
type FlatIndex struct {
	dim     int
	vectors [][]float64
}

// Neighbor 是一条近邻结果：(内部下标, 平方欧氏距离)。
type Neighbor struct {
	Index    int
	Distance float64
}

// NewFlatIndex 创建指定维度的平铺索引。
func NewFlatIndex(dim int) (*FlatIndex, error) {
	if dim <= 0 {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput,
			fmt.Sprintf("vector: invalid dimension %d", dim))
	}
	return &FlatIndex{dim: dim}, nil
}

// Add 追加一个物品向量，下标为当前 Len()。
func (idx *FlatIndex) Add(vec []float64) error {
	if len(vec) != idx.dim {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput,
			fmt.Sprintf("vector: dimension mismatch: got %d, want %d", len(vec), idx.dim))
	}
	idx.vectors = append(idx.vectors, vec)
	return nil
}

// AddBatch 按序追加一批向量。
func (idx *FlatIndex) AddBatch(vecs [][]float64) error {
	for _, vec := range vecs {
		if err := idx.Add(vec); err != nil {
			return err
		}
	}
	return nil
}

// Len 返回索引中的向量数量。
func (idx *FlatIndex) Len() int {
	return len(idx.vectors)
}

// Dimension 返回向量维度。
func (idx *FlatIndex) Dimension() int {
	return idx.dim
}

// Vectors 返回全部原始向量（持久化用，调用方不得修改）。
func (idx *FlatIndex) Vectors() [][]float64 {
	return idx.vectors
}

// Search 返回距离 query 最近的 k 个向量，平方欧氏距离升序，
// 距离相同时下标小者优先。k 大于向量总数时返回全部。
func (idx *FlatIndex) Search(query []float64, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput,
			fmt.Sprintf("vector: invalid k %d", k))
	}
	if len(query) != idx.dim {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput,
			fmt.Sprintf("vector: query dimension mismatch: got %d, want %d", len(query), idx.dim))
	}

	out := make([]Neighbor, len(idx.vectors))
	for i, vec := range idx.vectors {
		var dist float64
		for j := 0; j < idx.dim; j++ {
			d := vec[j] - query[j]
			dist += d * d
		}
		out[i] = Neighbor{Index: i, Distance: dist}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Index < out[j].Index
	})

	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}
