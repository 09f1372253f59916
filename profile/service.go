package profile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rushteam/hybridrec/core"
)

// UserStats 是用户的消费统计与画像。
type UserStats struct {
	TotalSpent    float64           `json:"total_spent"`
	OrderCount    int               `json:"order_count"`
	TopCategories []string          `json:"top_categories"`
	Profile       *core.UserPersona `json:"llm_profile,omitempty"`
}

// MetaFunc 按物品 ID 查询元信息（通常由当前模型产物提供）。
type MetaFunc func(itemID string) (core.ItemMeta, bool)

// Service 聚合用户交易统计并生成画像。
//
// 统计口径：
//   - TotalSpent 按单价 × 数量累加
//   - OrderCount 按去重发票号计数
//   - TopCategories 从购买物品描述中取高频关键词
type Service struct {
	interactions core.InteractionSource
	text         core.TextService // 可选：为空时不生成画像
	meta         MetaFunc         // 可选：为空时描述缺失
}

// NewService 创建用户画像服务。
func NewService(interactions core.InteractionSource, text core.TextService, meta MetaFunc) *Service {
	return &Service{interactions: interactions, text: text, meta: meta}
}

// Stats 聚合指定用户的统计信息。
// 无任何交易的用户返回零值统计，不触发画像生成。
func (s *Service) Stats(ctx context.Context, userID string) (*UserStats, error) {
	all, err := s.interactions.Interactions(ctx)
	if err != nil {
		return nil, err
	}

	var (
		totalSpent float64
		invoices   = make(map[string]struct{})
		descs      []string
	)
	for _, in := range all {
		if in.UserID != userID {
			continue
		}
		totalSpent += in.UnitPrice * in.Quantity
		if in.Invoice != "" {
			invoices[in.Invoice] = struct{}{}
		}
		if s.meta != nil {
			if m, ok := s.meta(in.ItemID); ok && m.Description != "" {
				descs = append(descs, m.Description)
			}
		}
	}

	stats := &UserStats{
		TotalSpent:    totalSpent,
		OrderCount:    len(invoices),
		TopCategories: []string{},
	}
	if totalSpent == 0 && len(invoices) == 0 {
		return stats, nil
	}

	stats.TopCategories = topKeywords(descs, 3)

	if s.text != nil {
		recent := descs
		if len(recent) > 20 {
			recent = recent[:20]
		}
		summary := fmt.Sprintf("Total Spent: %.2f, Orders: %d. Recent items: %s",
			totalSpent, stats.OrderCount, strings.Join(recent, ", "))
		if persona, err := s.text.AnalyzeUserProfile(ctx, summary); err == nil {
			stats.Profile = persona
		}
	}
	return stats, nil
}

// topKeywords 从描述集合中取出现最多的 k 个关键词（长度不小于 4），
// 频次相同按字典序，保证结果稳定。
func topKeywords(descs []string, k int) []string {
	counts := make(map[string]int)
	for _, d := range descs {
		for _, w := range strings.Fields(strings.ToUpper(d)) {
			w = strings.Trim(w, ".,;:!?'\"()")
			if len(w) < 4 {
				continue
			}
			counts[w]++
		}
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > k {
		words = words[:k]
	}
	return words
}
