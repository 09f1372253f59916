package llm

import (
	"context"
	"fmt"
	"log"
	"math"

	openai "github.com/sashabaranov/go-openai"

	"github.com/rushteam/hybridrec/core"
)

// Client 基于 OpenAI API 实现 core.TextService 与 core.Embedder。
//
// 失败策略：
//   - 文本分析/生成失败时返回保守的兜底结果（不中断请求），只记录日志
//   - 向量化失败向调用方传播 UNAVAILABLE（调用方决定如何降级）
type Client struct {
	api        *openai.Client
	chatModel  string
	embedModel string
}

// Option 配置 Client。
type Option func(*Client)

// WithChatModel 设置对话模型（默认 gpt-3.5-turbo）。
func WithChatModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.chatModel = model
		}
	}
}

// WithEmbedModel 设置向量化模型（默认 text-embedding-3-small）。
func WithEmbedModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.embedModel = model
		}
	}
}

// NewClient 创建 OpenAI 客户端。baseURL 为空时使用官方地址。
func NewClient(apiKey, baseURL string, opts ...Option) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	c := &Client{
		api:        openai.NewClientWithConfig(cfg),
		chatModel:  openai.GPT3Dot5Turbo,
		embedModel: string(openai.SmallEmbedding3),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AnalyzeQuery 将自然语言搜索词解析为结构化意图。
// 失败时返回通用意图兜底。
func (c *Client) AnalyzeQuery(ctx context.Context, query string) (*core.QueryIntent, error) {
	prompt := fmt.Sprintf(`Extract structured info from this e-commerce search query: %q
Return strictly JSON with keys:
- category (str)
- features (list of strings)
- budget (str or null)
- intent (informational/transactional/gift)
- use_case (str, e.g. "gaming", "programming", "running")

If specific fields aren't mentioned, infer them if possible or use null.`, query)

	content, err := c.chat(ctx, "You are a shopping assistant api. Respond in JSON only.", prompt, 0, 0)
	if err == nil {
		var intent core.QueryIntent
		if err = decodeJSON(content, &intent); err == nil {
			return &intent, nil
		}
	}
	log.Printf("hybridrec: analyze query fallback: %v", err)
	return &core.QueryIntent{Category: "general", Features: []string{}, Intent: "general"}, nil
}

// ExplainRecommendation 为一条推荐生成结构化解释。
// 失败时返回通用解释兜底。
func (c *Client) ExplainRecommendation(ctx context.Context, userProfile, itemName string, score float64) (*core.Explanation, error) {
	prompt := fmt.Sprintf(`User Profile: %s
Item: %s
Relevance: %.2f

Why is this recommended? Return JSON:
{
    "reason": "1 short sentence explaining the match based on user history/preferences.",
    "match_factors": ["List", "3", "Key", "Factors", "e.g. Brand Affinity", "Price Match"]
}`, userProfile, itemName, score)

	content, err := c.chat(ctx, "You are a helpful recommender system. Respond in JSON only.", prompt, 0.7, 150)
	if err == nil {
		var ex core.Explanation
		if err := decodeJSON(content, &ex); err == nil {
			return &ex, nil
		}
	}
	return &core.Explanation{
		Reason:       "Recommended based on your browsing history.",
		MatchFactors: []string{"Similar Items"},
	}, nil
}

// AnalyzeUserProfile 根据购买历史摘要生成用户画像。
// 失败时返回通用画像兜底。
func (c *Client) AnalyzeUserProfile(ctx context.Context, historySummary string) (*core.UserPersona, error) {
	prompt := fmt.Sprintf(`Analyze this user based on their purchase history:
%s

Return JSON:
{
    "persona": "Short description (e.g. Tech-savvy buyer)",
    "price_sensitivity": "Low/Moderate/High",
    "best_time": "Best time to recommend (e.g. Weekends)"
}`, historySummary)

	content, err := c.chat(ctx, "You are a data analyst. Respond in JSON only.", prompt, 0.5, 150)
	if err == nil {
		var p core.UserPersona
		if err := decodeJSON(content, &p); err == nil {
			return &p, nil
		}
	}
	return &core.UserPersona{
		Persona:          "Valued Customer",
		PriceSensitivity: "Unknown",
		BestTime:         "Anytime",
	}, nil
}

// ColdStartQuestions 为新用户返回固定的引导问题。
func (c *Client) ColdStartQuestions(ctx context.Context) ([]string, error) {
	return []string{
		"What type of products are you looking for today?",
		"Do you have a specific budget in mind?",
		"Are you shopping for yourself or for a gift?",
	}, nil
}

// Embed 将单条文本转为定长向量。
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	vecs, err := c.BatchEmbed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// BatchEmbed 批量向量化，返回向量与输入文本一一对应。
func (c *Client) BatchEmbed(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.embedModel),
	})
	if err != nil {
		return nil, core.NewDomainError(core.ModuleLLM, core.ErrorCodeUnavailable,
			fmt.Sprintf("llm: embeddings: %v", err))
	}
	if len(resp.Data) != len(texts) {
		return nil, core.NewDomainError(core.ModuleLLM, core.ErrorCodeUnavailable,
			fmt.Sprintf("llm: embeddings returned %d vectors for %d texts", len(resp.Data), len(texts)))
	}
	out := make([][]float64, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float64, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float64(v)
		}
		out[i] = vec
	}
	return out, nil
}

func (c *Client) chat(ctx context.Context, system, prompt string, temperature float32, maxTokens int) (string, error) {
	// 字段带 omitempty，字面 0 会被整个丢掉、落到 API 默认值 1.0；
	// 用最小非零值代替 0，保证意图解析确定性
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

var _ core.TextService = (*Client)(nil)
var _ core.Embedder = (*Client)(nil)
