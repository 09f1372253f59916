package core

// ItemMeta 是物品的展示/统计元信息，随模型产物一起发布，不参与打分计算。
type ItemMeta struct {
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Frequency   int     `json:"frequency"`
}

// Recommendation 是一条协同过滤推荐结果（按 Score 降序）。
type Recommendation struct {
	ItemID      string       `json:"stock_code"`
	Description string       `json:"description"`
	Score       float64      `json:"score"`
	Explanation *Explanation `json:"explanation,omitempty"`
}

// SearchHit 是一条语义搜索结果（按 Distance 升序，距离为平方欧氏距离）。
type SearchHit struct {
	ItemID      string  `json:"stock_code"`
	Description string  `json:"description"`
	Distance    float64 `json:"distance"`
}

// PopularItem 是一条热门物品（冷启动兜底）。
type PopularItem struct {
	ItemID      string  `json:"stock_code"`
	Description string  `json:"description"`
	Frequency   float64 `json:"frequency"`
}
