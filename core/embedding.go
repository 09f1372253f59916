package core

import "context"

// Embedder 是文本向量化的领域接口（外部协作方，黑盒能力）。
//
// 约定：
//   - 相同文本 + 相同模型版本返回相同向量（确定性）
//   - 返回向量维度固定，由实现方的模型决定
//   - 构建期对每个物品描述调用一次（批量），查询期对 query 调用一次
//
// 实现：
//   - llm.Client 实现此接口（OpenAI Embeddings API）
type Embedder interface {
	// Embed 将单条文本转为定长向量
	Embed(ctx context.Context, text string) ([]float64, error)

	// BatchEmbed 批量向量化（减少网络往返，构建期使用）
	// 返回向量与输入文本一一对应
	BatchEmbed(ctx context.Context, texts []string) ([][]float64, error)
}
