package feedback

import (
	"context"
	"sync"
	"time"

	"github.com/rushteam/hybridrec/core"
)

// EventType 反馈事件类型
type EventType string

const (
	EventTypeImpression EventType = "impression" // 推荐曝光
	EventTypeClick      EventType = "click"      // 点击
	EventTypePurchase   EventType = "purchase"   // 购买
	EventTypeSearch     EventType = "search"     // 搜索命中
)

// Event 反馈事件（轻量级，只包含必要信息）。
// 事件流回灌到交易存储后成为下一轮训练的输入。
type Event struct {
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id"`
	Query     string    `json:"query,omitempty"` // 搜索事件携带原始查询词
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"` // Unix 时间戳（秒）
	Position  int       `json:"position"`  // 物品在列表中的位置
	Score     float64   `json:"score"`     // 推荐分数或检索距离
	Quantity  float64   `json:"quantity,omitempty"`
	Price     float64   `json:"price,omitempty"`
}

// Collector 反馈收集器接口（异步非阻塞）。
type Collector interface {
	// RecordImpressions 异步记录一次推荐曝光（不阻塞）
	RecordImpressions(ctx context.Context, userID string, recs []core.Recommendation) error

	// RecordSearch 异步记录一次搜索及其命中
	RecordSearch(ctx context.Context, query string, hits []core.SearchHit) error

	// RecordPurchase 异步记录购买
	RecordPurchase(ctx context.Context, userID, itemID string, quantity, price float64) error

	// Close 优雅关闭（等待缓冲数据发送完成）
	Close() error
}

// impressionEvents 把一次推荐展示转为事件列表。
func impressionEvents(userID string, recs []core.Recommendation) []*Event {
	now := time.Now().Unix()
	events := make([]*Event, 0, len(recs))
	for i, rec := range recs {
		events = append(events, &Event{
			UserID:    userID,
			ItemID:    rec.ItemID,
			Type:      EventTypeImpression,
			Timestamp: now,
			Position:  i,
			Score:     rec.Score,
		})
	}
	return events
}

// searchEvents 把一次搜索命中转为事件列表。
func searchEvents(query string, hits []core.SearchHit) []*Event {
	now := time.Now().Unix()
	events := make([]*Event, 0, len(hits))
	for i, h := range hits {
		events = append(events, &Event{
			ItemID:    h.ItemID,
			Query:     query,
			Type:      EventTypeSearch,
			Timestamp: now,
			Position:  i,
			Score:     h.Distance,
		})
	}
	return events
}

// MemoryCollector 是内存收集器，用于测试/开发。
type MemoryCollector struct {
	mu     sync.Mutex
	events []*Event
}

// NewMemoryCollector 创建内存收集器。
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

func (c *MemoryCollector) RecordImpressions(_ context.Context, userID string, recs []core.Recommendation) error {
	c.append(impressionEvents(userID, recs))
	return nil
}

func (c *MemoryCollector) RecordSearch(_ context.Context, query string, hits []core.SearchHit) error {
	c.append(searchEvents(query, hits))
	return nil
}

func (c *MemoryCollector) RecordPurchase(_ context.Context, userID, itemID string, quantity, price float64) error {
	c.append([]*Event{{
		UserID:    userID,
		ItemID:    itemID,
		Type:      EventTypePurchase,
		Timestamp: time.Now().Unix(),
		Quantity:  quantity,
		Price:     price,
	}})
	return nil
}

func (c *MemoryCollector) Close() error {
	return nil
}

// Events 返回已收集事件的副本。
func (c *MemoryCollector) Events() []*Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *MemoryCollector) append(events []*Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, events...)
}

var _ Collector = (*MemoryCollector)(nil)
