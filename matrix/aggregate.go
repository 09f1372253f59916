package matrix

import (
	"math"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/idmap"
)

// Aggregate 将原始交互记录聚合为稀疏交互矩阵。
//
// 策略：
//   - 丢弃 Quantity <= 0 的记录（退货/撤单不进入正向信号）
//   - 丢弃用户或物品不在映射表中的记录
//   - 同一 (user, item) 对的权重按 log1p(Quantity) 累加
//     （对数压缩长尾数量，避免单次批量采购主导打分）
//
// 复杂度：时间与交互条数线性，内存与非零 (user, item) 对数成正比。
func Aggregate(interactions []core.Interaction, users, items *idmap.Registry) *CSR {
	entries := make(map[[2]int]float64)
	for _, in := range interactions {
		if in.Quantity <= 0 {
			continue
		}
		u, ok := users.IndexOf(in.UserID)
		if !ok {
			continue
		}
		i, ok := items.IndexOf(in.ItemID)
		if !ok {
			continue
		}
		entries[[2]int{u, i}] += math.Log1p(in.Quantity)
	}
	return FromEntries(users.Len(), items.Len(), entries)
}
