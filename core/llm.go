package core

import "context"

// TextService 是自然语言生成/分析服务的领域接口（外部协作方，黑盒能力）。
//
// 约定：
//   - 文本进、结构化 JSON 出
//   - 调用失败不影响已发布的模型产物，只影响当前这一次操作
//   - 实现方应在失败时返回保守的兜底结果而非中断整个请求
//
// 实现：
//   - llm.Client 实现此接口（OpenAI Chat Completions API）
type TextService interface {
	// AnalyzeQuery 将自然语言搜索词解析为结构化意图
	AnalyzeQuery(ctx context.Context, query string) (*QueryIntent, error)

	// ExplainRecommendation 为一条推荐生成结构化解释
	ExplainRecommendation(ctx context.Context, userProfile, itemName string, score float64) (*Explanation, error)

	// AnalyzeUserProfile 根据购买历史摘要生成用户画像
	AnalyzeUserProfile(ctx context.Context, historySummary string) (*UserPersona, error)

	// ColdStartQuestions 为新用户生成引导问题
	ColdStartQuestions(ctx context.Context) ([]string, error)
}

// QueryIntent 是搜索词的结构化意图。
type QueryIntent struct {
	Category string   `json:"category"`
	Features []string `json:"features"`
	Budget   string   `json:"budget"`   // 预算描述，未提及时为空
	Intent   string   `json:"intent"`   // informational / transactional / gift
	UseCase  string   `json:"use_case"` // 使用场景，如 "gaming" / "running"
}

// Explanation 是单条推荐的结构化解释。
type Explanation struct {
	Reason       string   `json:"reason"`
	MatchFactors []string `json:"match_factors"`
}

// UserPersona 是从购买历史推导出的用户画像。
type UserPersona struct {
	Persona          string `json:"persona"`
	PriceSensitivity string `json:"price_sensitivity"` // Low / Moderate / High
	BestTime         string `json:"best_time"`
}
