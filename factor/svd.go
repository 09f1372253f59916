package factor

import (
	"math"
	"math/rand"
	"sort"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/matrix"
)

const (
	// oversample 是随机子空间的过采样列数，提升小奇异值的恢复精度
	oversample = 8

	// powerIters 是幂迭代次数，压低噪声子空间的能量
	powerIters = 2

	epsSigma = 1e-12
)

// ErrInsufficientData 表示交互矩阵没有任何非零单元，无法训练出有意义的模型。
// 调用方应保留上一次发布的模型产物。
var ErrInsufficientData = core.NewDomainError(
	core.ModuleFactor, core.ErrorCodeInsufficientData,
	"factor: interaction matrix has no nonzero cells",
)

// Decompose 对交互矩阵做截断 SVD：A ≈ U·Σ·Vᵀ。
//
// 返回的 Model 中：
//   - UserFactors = U·Σ（numUsers × rank）
//   - ItemFactors = Vᵀ（rank × numItems）
//   - score(u, i) = dot(UserFactors[u], ItemFactors[:, i])
//
// 实现为带幂迭代的随机子空间法：
//  1. 种子化高斯测试矩阵 Ω（numItems × l，l = rank + oversample）
//  2. Y = A·Ω，幂迭代 Y ← A·(Aᵀ·Y)，每步正交化
//  3. B = Qᵀ·A，对小矩阵 B·Bᵀ 做 Jacobi 特征分解得到奇异值与右奇异向量
//
// 确定性：相同输入 + 相同 seed 产生相同因子。
// 退化情形：有效秩取 min(rank, numUsers, numItems)；
// 非零单元为零时返回 ErrInsufficientData。
func Decompose(a *matrix.CSR, rank int, seed int64) (*Model, error) {
	if a == nil || a.NNZ() == 0 {
		return nil, ErrInsufficientData
	}

	n, m := a.NumRows, a.NumCols
	r := rank
	if r > n {
		r = n
	}
	if r > m {
		r = m
	}
	if r < 1 {
		r = 1
	}

	l := r + oversample
	if l > n {
		l = n
	}
	if l > m {
		l = m
	}
	if l < r {
		l = r
	}

	rng := rand.New(rand.NewSource(seed))

	// Ω：numItems × l 高斯测试矩阵
	omega := make([][]float64, m)
	for j := range omega {
		row := make([]float64, l)
		for c := range row {
			row[c] = rng.NormFloat64()
		}
		omega[j] = row
	}

	// 随机子空间迭代：Y 张成 A 的近似列空间
	y := a.MulDense(omega, l)
	orthonormalize(y, l)
	for it := 0; it < powerIters; it++ {
		z := a.TransMulDense(y, l)
		orthonormalize(z, l)
		y = a.MulDense(z, l)
		orthonormalize(y, l)
	}

	// Bt = Aᵀ·Q（numItems × l），即 B = Qᵀ·A 的转置
	bt := a.TransMulDense(y, l)

	// C = B·Bᵀ = Btᵀ·Bt（l × l 对称阵）
	c := gramMatrix(bt, l)
	eigvals, eigvecs := jacobiEigen(c)
	order := eigenOrder(eigvals)

	// V 的第 j 列 = Bt·W_j / σ_j；σ_j = sqrt(λ_j)
	v := make([][]float64, m)
	for i := range v {
		v[i] = make([]float64, r)
	}
	for jj := 0; jj < r; jj++ {
		idx := order[jj]
		lambda := eigvals[idx]
		if lambda < 0 {
			lambda = 0
		}
		sigma := math.Sqrt(lambda)
		if sigma < epsSigma {
			continue // 奇异值退化为 0，对应因子保持零向量
		}
		for i := 0; i < m; i++ {
			var dot float64
			for k := 0; k < l; k++ {
				dot += bt[i][k] * eigvecs[k][idx]
			}
			v[i][jj] = dot / sigma
		}
	}

	// UserFactors = A·V = U·Σ；ItemFactors = Vᵀ
	userFactors := a.MulDense(v, r)
	itemFactors := make([][]float64, r)
	for j := 0; j < r; j++ {
		row := make([]float64, m)
		for i := 0; i < m; i++ {
			row[i] = v[i][j]
		}
		itemFactors[j] = row
	}

	return &Model{
		UserFactors: userFactors,
		ItemFactors: itemFactors,
		Rank:        r,
	}, nil
}

// orthonormalize 对行主序矩阵 y（rows × l）的列做修正 Gram-Schmidt 正交化。
// 范数退化的列置零（对应奇异值为 0，后续被跳过）。
func orthonormalize(y [][]float64, l int) {
	rows := len(y)
	for c := 0; c < l; c++ {
		for prev := 0; prev < c; prev++ {
			var dot float64
			for i := 0; i < rows; i++ {
				dot += y[i][c] * y[i][prev]
			}
			for i := 0; i < rows; i++ {
				y[i][c] -= dot * y[i][prev]
			}
		}
		var norm float64
		for i := 0; i < rows; i++ {
			norm += y[i][c] * y[i][c]
		}
		norm = math.Sqrt(norm)
		if norm < epsSigma {
			for i := 0; i < rows; i++ {
				y[i][c] = 0
			}
			continue
		}
		for i := 0; i < rows; i++ {
			y[i][c] /= norm
		}
	}
}

// gramMatrix 计算 Btᵀ·Bt（l × l）。
func gramMatrix(bt [][]float64, l int) [][]float64 {
	c := make([][]float64, l)
	for i := range c {
		c[i] = make([]float64, l)
	}
	for _, row := range bt {
		for i := 0; i < l; i++ {
			if row[i] == 0 {
				continue
			}
			for j := i; j < l; j++ {
				c[i][j] += row[i] * row[j]
			}
		}
	}
	for i := 0; i < l; i++ {
		for j := 0; j < i; j++ {
			c[i][j] = c[j][i]
		}
	}
	return c
}

// jacobiEigen 对对称矩阵做循环 Jacobi 特征分解。
// 返回特征值与特征向量矩阵（vecs[i][j] 为第 j 个特征向量的第 i 个分量）。
// 矩阵规模为 rank + oversample，上限几十阶，Jacobi 足够快且完全确定。
func jacobiEigen(a [][]float64) ([]float64, [][]float64) {
	n := len(a)
	m := make([][]float64, n)
	for i := range m {
		m[i] = append([]float64(nil), a[i]...)
	}
	vecs := make([][]float64, n)
	for i := range vecs {
		vecs[i] = make([]float64, n)
		vecs[i][i] = 1
	}

	for sweep := 0; sweep < 100; sweep++ {
		var off float64
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				off += m[i][j] * m[i][j]
			}
		}
		if off < 1e-22 {
			break
		}

		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				if math.Abs(m[p][q]) < 1e-18 {
					continue
				}
				theta := (m[q][q] - m[p][p]) / (2 * m[p][q])
				t := math.Copysign(1, theta) / (math.Abs(theta) + math.Sqrt(theta*theta+1))
				cs := 1 / math.Sqrt(t*t+1)
				sn := t * cs

				for k := 0; k < n; k++ {
					mkp, mkq := m[k][p], m[k][q]
					m[k][p] = cs*mkp - sn*mkq
					m[k][q] = sn*mkp + cs*mkq
				}
				for k := 0; k < n; k++ {
					mpk, mqk := m[p][k], m[q][k]
					m[p][k] = cs*mpk - sn*mqk
					m[q][k] = sn*mpk + cs*mqk
				}
				for k := 0; k < n; k++ {
					vkp, vkq := vecs[k][p], vecs[k][q]
					vecs[k][p] = cs*vkp - sn*vkq
					vecs[k][q] = sn*vkp + cs*vkq
				}
			}
		}
	}

	vals := make([]float64, n)
	for i := range vals {
		vals[i] = m[i][i]
	}
	return vals, vecs
}

// eigenOrder 返回按特征值降序排列的下标，相同值按下标升序（确定性）。
func eigenOrder(vals []float64) []int {
	order := make([]int, len(vals))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return vals[order[i]] > vals[order[j]]
	})
	return order
}
