package filter

import (
	"context"

	"github.com/rushteam/hybridrec/core"
)

// Request 是一次过滤请求的上下文：谁在查、带着什么意图。
// 推荐路径通常只有 UserID，搜索路径通常只有 Intent，两者都可为空。
type Request struct {
	UserID string
	Intent *core.QueryIntent
}

// Filter 是过滤器的抽象接口，用于判断一个候选物品是否应该被剔除。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断物品是否应该被过滤
	ShouldFilter(ctx context.Context, req *Request, itemID string, meta core.ItemMeta) (bool, error)
}

// Chain 组合多个过滤器，任何一个返回 true 该物品就被过滤掉。
// 单个过滤器出错时跳过它而不中断流程，结果宁多勿断。
type Chain struct {
	Filters []Filter
}

func (c *Chain) Name() string {
	return "filter.chain"
}

func (c *Chain) ShouldFilter(ctx context.Context, req *Request, itemID string, meta core.ItemMeta) (bool, error) {
	for _, f := range c.Filters {
		ok, err := f.ShouldFilter(ctx, req, itemID, meta)
		if err != nil {
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

var _ Filter = (*Chain)(nil)
