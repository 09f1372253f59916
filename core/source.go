package core

import (
	"context"
	"time"
)

// Interaction 是一条用户-物品交互记录（一行交易流水）。
// Quantity <= 0 的记录（退货/撤单）不进入正向训练信号，由聚合阶段丢弃。
type Interaction struct {
	UserID     string    // 用户外部 ID（如 Customer ID）
	ItemID     string    // 物品外部 ID（如 Stock Code）
	Quantity   float64   // 购买数量
	UnitPrice  float64   // 单价
	Invoice    string    // 订单号（用于订单数统计）
	OccurredAt time.Time // 交易时间
}

// ItemRecord 是一条物品记录：描述文本用于向量化，其余为展示/统计元信息。
type ItemRecord struct {
	ID          string  // 物品外部 ID
	Description string  // 描述文本（embedding 的输入）
	Price       float64 // 均价
	Frequency   int     // 出现频次（受欢迎度）
}

// InteractionSource 提供一次训练所需的交互数据快照。
// 快照语义：一次 Interactions 调用返回的数据在本次构建内保持一致，
// 构建开始后到达的新数据不包含在内。
type InteractionSource interface {
	// Interactions 返回交互记录快照
	Interactions(ctx context.Context) ([]Interaction, error)
}

// ItemSource 提供一次训练所需的物品数据快照。
type ItemSource interface {
	// Items 返回物品记录快照
	Items(ctx context.Context) ([]ItemRecord, error)
}
