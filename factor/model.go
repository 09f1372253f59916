package factor

import "sort"

// Model 是低秩分解产出的隐因子模型（协同信号）。
//
// 核心思想：将用户-物品交互矩阵分解为用户隐向量和物品隐向量，
// 预测分数 = 用户隐向量 · 物品隐向量。
//
// 工程特征：
//   - 实时性：好（离线训练，在线点积）
//   - 计算复杂度：低（O(rank) / 物品）
//   - 冷启动：差（快照外的用户/物品无分数）
//
// 构建完成后只读，可无锁并发读取。
type Model struct {
	// UserFactors 是 numUsers × Rank 的用户隐因子矩阵（U·Σ）
	UserFactors [][]float64

	// ItemFactors 是 Rank × numItems 的物品隐因子矩阵（Vᵀ）
	ItemFactors [][]float64

	// Rank 是有效秩
	Rank int
}

// NumUsers 返回模型覆盖的用户数。
func (m *Model) NumUsers() int {
	return len(m.UserFactors)
}

// NumItems 返回模型覆盖的物品数。
func (m *Model) NumItems() int {
	if len(m.ItemFactors) == 0 {
		return 0
	}
	return len(m.ItemFactors[0])
}

// Score 计算用户 u 对物品 i 的预测分数。
// 对产物内的任意物品下标都有定义，不存在"缺失"物品。
func (m *Model) Score(u, i int) float64 {
	var sum float64
	uf := m.UserFactors[u]
	for j := 0; j < m.Rank; j++ {
		sum += uf[j] * m.ItemFactors[j][i]
	}
	return sum
}

// ScoreAll 计算用户 u 对所有物品的预测分数。
func (m *Model) ScoreAll(u int) []float64 {
	numItems := m.NumItems()
	scores := make([]float64, numItems)
	uf := m.UserFactors[u]
	for j := 0; j < m.Rank; j++ {
		w := uf[j]
		if w == 0 {
			continue
		}
		row := m.ItemFactors[j]
		for i := 0; i < numItems; i++ {
			scores[i] += w * row[i]
		}
	}
	return scores
}

// Scored 是一个 (物品下标, 分数) 对。
type Scored struct {
	Index int
	Score float64
}

// TopK 返回用户 u 分数最高的 k 个物品，按分数降序，分数相同时下标小者优先。
func (m *Model) TopK(u, k int) []Scored {
	if u < 0 || u >= m.NumUsers() || k <= 0 {
		return nil
	}
	scores := m.ScoreAll(u)
	out := make([]Scored, len(scores))
	for i, s := range scores {
		out[i] = Scored{Index: i, Score: s}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Index < out[j].Index
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}
