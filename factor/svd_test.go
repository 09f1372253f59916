package factor

import (
	"math"
	"testing"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/matrix"
)

// lowRankFixture 构造一个精确秩 2 的 6×5 矩阵（两组不重叠行为模式的叠加）。
func lowRankFixture() [][]float64 {
	u1 := []float64{1, 2, 0, 1, 0, 3}
	v1 := []float64{2, 1, 0, 1, 0}
	u2 := []float64{0, 1, 2, 0, 3, 0}
	v2 := []float64{0, 0, 1, 2, 1}

	dense := make([][]float64, len(u1))
	for i := range dense {
		row := make([]float64, len(v1))
		for j := range row {
			row[j] = u1[i]*v1[j] + u2[i]*v2[j]
		}
		dense[i] = row
	}
	return dense
}

func TestDecompose_Reconstruction(t *testing.T) {
	dense := lowRankFixture()
	a := matrix.FromDense(dense)

	m, err := Decompose(a, 2, 42)
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	if m.Rank != 2 {
		t.Fatalf("Rank = %d, want 2", m.Rank)
	}

	// 精确秩 2 的矩阵应被秩 2 分解近乎无损地重建
	for i := range dense {
		for j := range dense[i] {
			got := m.Score(i, j)
			if math.Abs(got-dense[i][j]) > 1e-6 {
				t.Errorf("Score(%d, %d) = %v, want %v", i, j, got, dense[i][j])
			}
		}
	}
}

func TestDecompose_Deterministic(t *testing.T) {
	a := matrix.FromDense(lowRankFixture())

	m1, err := Decompose(a, 2, 42)
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	m2, err := Decompose(a, 2, 42)
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}

	for u := range m1.UserFactors {
		for j := range m1.UserFactors[u] {
			if m1.UserFactors[u][j] != m2.UserFactors[u][j] {
				t.Fatalf("UserFactors[%d][%d] differ between identical runs", u, j)
			}
		}
	}
	for j := range m1.ItemFactors {
		for i := range m1.ItemFactors[j] {
			if m1.ItemFactors[j][i] != m2.ItemFactors[j][i] {
				t.Fatalf("ItemFactors[%d][%d] differ between identical runs", j, i)
			}
		}
	}
}

func TestDecompose_RankReduction(t *testing.T) {
	// 2×3 矩阵，请求 rank 50 → 有效秩 min(2, 3, 50) = 2
	a := matrix.FromDense([][]float64{
		{1, 0, 2},
		{0, 3, 1},
	})

	m, err := Decompose(a, 50, 42)
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	if m.Rank != 2 {
		t.Errorf("Rank = %d, want 2", m.Rank)
	}
	if m.NumUsers() != 2 || m.NumItems() != 3 {
		t.Errorf("shape = (%d, %d), want (2, 3)", m.NumUsers(), m.NumItems())
	}
}

func TestDecompose_InsufficientData(t *testing.T) {
	a := matrix.FromEntries(10, 10, nil)

	_, err := Decompose(a, 5, 42)
	if err == nil {
		t.Fatal("Decompose on empty matrix should fail")
	}
	if !core.IsInsufficientData(err) {
		t.Errorf("error = %v, want INSUFFICIENT_DATA", err)
	}
}

func TestModel_TopK(t *testing.T) {
	// u1=[1,0], u2=[0,1]；物品列向量 A=[2,0], B=[0,3], C=[1,1]
	m := &Model{
		UserFactors: [][]float64{{1, 0}, {0, 1}},
		ItemFactors: [][]float64{
			{2, 0, 1},
			{0, 3, 1},
		},
		Rank: 2,
	}

	got := m.TopK(0, 2)
	if len(got) != 2 {
		t.Fatalf("TopK(0, 2) len = %d, want 2", len(got))
	}
	if got[0].Index != 0 || math.Abs(got[0].Score-2.0) > 1e-12 {
		t.Errorf("top1 = (%d, %v), want (0, 2.0)", got[0].Index, got[0].Score)
	}
	if got[1].Index != 2 || math.Abs(got[1].Score-1.0) > 1e-12 {
		t.Errorf("top2 = (%d, %v), want (2, 1.0)", got[1].Index, got[1].Score)
	}

	got = m.TopK(1, 1)
	if len(got) != 1 || got[0].Index != 1 || math.Abs(got[0].Score-3.0) > 1e-12 {
		t.Errorf("TopK(1, 1) = %v, want [(1, 3.0)]", got)
	}
}

func TestModel_TopK_TieBreak(t *testing.T) {
	// 两个物品同分时，下标小者在前
	m := &Model{
		UserFactors: [][]float64{{1}},
		ItemFactors: [][]float64{{2, 2, 1}},
		Rank:        1,
	}
	got := m.TopK(0, 3)
	if got[0].Index != 0 || got[1].Index != 1 || got[2].Index != 2 {
		t.Errorf("tie-break order = %v, want indexes [0 1 2]", got)
	}
}
