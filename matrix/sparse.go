package matrix

import "sort"

// CSR 是压缩稀疏行（Compressed Sparse Row）格式的用户×物品权重矩阵。
// 只有至少存在一次有效交互的 (user, item) 对才有非零单元。
// 构建完成后只读。
type CSR struct {
	NumRows int
	NumCols int

	// RowPtr[i]..RowPtr[i+1] 是第 i 行在 ColIdx/Val 中的区间
	RowPtr []int
	ColIdx []int
	Val    []float64
}

// NNZ 返回非零元素个数。
func (a *CSR) NNZ() int {
	return len(a.Val)
}

// Row 返回第 i 行的列下标与权重（底层切片，调用方不得修改）。
func (a *CSR) Row(i int) ([]int, []float64) {
	lo, hi := a.RowPtr[i], a.RowPtr[i+1]
	return a.ColIdx[lo:hi], a.Val[lo:hi]
}

// MulDense 计算 A·B，B 为稠密矩阵（NumCols × k，行主序）。
// 结果为 NumRows × k。复杂度 O(nnz · k)。
func (a *CSR) MulDense(b [][]float64, k int) [][]float64 {
	out := make([][]float64, a.NumRows)
	for i := range out {
		row := make([]float64, k)
		lo, hi := a.RowPtr[i], a.RowPtr[i+1]
		for p := lo; p < hi; p++ {
			j, v := a.ColIdx[p], a.Val[p]
			bj := b[j]
			for c := 0; c < k; c++ {
				row[c] += v * bj[c]
			}
		}
		out[i] = row
	}
	return out
}

// TransMulDense 计算 Aᵀ·Y，Y 为稠密矩阵（NumRows × k，行主序）。
// 结果为 NumCols × k。复杂度 O(nnz · k)。
func (a *CSR) TransMulDense(y [][]float64, k int) [][]float64 {
	out := make([][]float64, a.NumCols)
	for j := range out {
		out[j] = make([]float64, k)
	}
	for i := 0; i < a.NumRows; i++ {
		lo, hi := a.RowPtr[i], a.RowPtr[i+1]
		yi := y[i]
		for p := lo; p < hi; p++ {
			j, v := a.ColIdx[p], a.Val[p]
			oj := out[j]
			for c := 0; c < k; c++ {
				oj[c] += v * yi[c]
			}
		}
	}
	return out
}

// FromEntries 从 (row, col, val) 三元组构建 CSR。
// 相同 (row, col) 的值会被累加；越界条目被跳过。
func FromEntries(numRows, numCols int, entries map[[2]int]float64) *CSR {
	type coo struct {
		row, col int
		val      float64
	}
	items := make([]coo, 0, len(entries))
	for rc, v := range entries {
		if rc[0] < 0 || rc[0] >= numRows || rc[1] < 0 || rc[1] >= numCols {
			continue
		}
		items = append(items, coo{row: rc[0], col: rc[1], val: v})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].row != items[j].row {
			return items[i].row < items[j].row
		}
		return items[i].col < items[j].col
	})

	a := &CSR{
		NumRows: numRows,
		NumCols: numCols,
		RowPtr:  make([]int, numRows+1),
		ColIdx:  make([]int, 0, len(items)),
		Val:     make([]float64, 0, len(items)),
	}
	for _, it := range items {
		a.ColIdx = append(a.ColIdx, it.col)
		a.Val = append(a.Val, it.val)
		a.RowPtr[it.row+1]++
	}
	for i := 0; i < numRows; i++ {
		a.RowPtr[i+1] += a.RowPtr[i]
	}
	return a
}

// FromDense 从稠密矩阵构建 CSR（测试/小规模数据用）。
func FromDense(dense [][]float64) *CSR {
	numRows := len(dense)
	numCols := 0
	if numRows > 0 {
		numCols = len(dense[0])
	}
	entries := make(map[[2]int]float64)
	for i, row := range dense {
		for j, v := range row {
			if v != 0 {
				entries[[2]int{i, j}] = v
			}
		}
	}
	return FromEntries(numRows, numCols, entries)
}
