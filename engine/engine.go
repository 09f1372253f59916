package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rushteam/hybridrec/artifact"
	"github.com/rushteam/hybridrec/core"
)

// Engine 是混合推荐/搜索的服务门面。
//
// 并发契约：
//   - 持有唯一的"当前产物"引用，训练完成时整体原子替换（替换而非修改）
//   - 每次服务调用开始时加载一次产物快照并全程使用，
//     构建发布发生在调用中途也不会出现新旧混搭的撕裂读
//   - 产物本身不可变，多 worker 无锁并发读取；
//     除这一个引用的原子写以外不存在共享可变状态
//
// 错误契约：
//   - 冷用户（产物中无此 ID）与尚未发布产物都返回空结果，不是错误
//   - 只有非法入参（k <= 0）与协作方调用失败才返回错误
type Engine struct {
	current atomic.Pointer[artifact.Artifact]

	embedder   core.Embedder      // 查询文本向量化（可选，SearchText 需要）
	popular    core.KeyValueStore // 热门物品有序集合（可选，冷启动兜底）
	popularKey string

	noArtifactOnce sync.Once
}

// Option 配置 Engine。
type Option func(*Engine)

// WithEmbedder 设置查询向量化能力（SearchText 使用）。
func WithEmbedder(e core.Embedder) Option {
	return func(eng *Engine) { eng.embedder = e }
}

// WithPopularStore 设置热门物品有序集合的存储与 key。
func WithPopularStore(kv core.KeyValueStore, key string) Option {
	return func(eng *Engine) {
		eng.popular = kv
		if key != "" {
			eng.popularKey = key
		}
	}
}

// New 创建服务引擎。初始为 NoArtifact 状态：所有查询返回空结果。
func New(opts ...Option) *Engine {
	eng := &Engine{popularKey: "popular:items"}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// Current 返回当前已发布的产物快照，未发布时为 nil。
func (e *Engine) Current() *artifact.Artifact {
	return e.current.Load()
}

// Publish 原子发布一个新产物，替换旧引用。
// 在途的服务调用继续使用各自已加载的旧快照，旧产物在无人引用后被 GC。
func (e *Engine) Publish(a *artifact.Artifact) {
	e.current.Store(a)
}

// Restore 从持久化 bundle 恢复产物（进程启动时调用）。
// 不存在时保持 NoArtifact 状态并返回 nil；
// 损坏时拒绝加载、保持 NoArtifact 状态并返回 CORRUPT。
func (e *Engine) Restore(ctx context.Context, bundles *artifact.BundleStore) error {
	a, err := bundles.Load(ctx)
	if err != nil {
		if core.IsNotFound(err) {
			return nil
		}
		return err
	}
	e.Publish(a)
	return nil
}

// snapshot 加载产物快照；未发布时记录一次日志并返回 nil。
func (e *Engine) snapshot() *artifact.Artifact {
	a := e.current.Load()
	if a == nil {
		e.noArtifactOnce.Do(func() {
			log.Println("hybridrec: no artifact published yet, serving empty results")
		})
	}
	return a
}

// MetaOf 返回当前产物中物品的元信息。
// 未发布产物或物品不在产物中时 ok=false。
func (e *Engine) MetaOf(itemID string) (core.ItemMeta, bool) {
	a := e.current.Load()
	if a == nil {
		return core.ItemMeta{}, false
	}
	m, ok := a.Meta[itemID]
	return m, ok
}

// Recommend 返回用户的 TopK 协同过滤推荐，按分数降序，同分下标小者优先。
// 冷用户或未发布产物返回空列表（正常结果，非错误）。
func (e *Engine) Recommend(ctx context.Context, userID string, k int) ([]core.Recommendation, error) {
	if k <= 0 {
		return nil, invalidInput(fmt.Sprintf("recommend: invalid k %d", k))
	}

	a := e.snapshot()
	if a == nil {
		return []core.Recommendation{}, nil
	}
	uidx, ok := a.Users.IndexOf(userID)
	if !ok {
		return []core.Recommendation{}, nil
	}

	top := a.Factors.TopK(uidx, k)
	out := make([]core.Recommendation, 0, len(top))
	for _, s := range top {
		itemID, ok := a.Items.IDOf(s.Index)
		if !ok {
			continue
		}
		out = append(out, core.Recommendation{
			ItemID:      itemID,
			Description: a.Meta[itemID].Description,
			Score:       s.Score,
		})
	}
	return out, nil
}

// Search 在当前产物的物品向量上做精确近邻检索，平方欧氏距离升序。
// 未发布产物返回空列表。
func (e *Engine) Search(ctx context.Context, query []float64, k int) ([]core.SearchHit, error) {
	if k <= 0 {
		return nil, invalidInput(fmt.Sprintf("search: invalid k %d", k))
	}

	a := e.snapshot()
	if a == nil {
		return []core.SearchHit{}, nil
	}

	hits, err := a.Index.Search(query, k)
	if err != nil {
		return nil, err
	}
	out := make([]core.SearchHit, 0, len(hits))
	for _, h := range hits {
		itemID, ok := a.Items.IDOf(h.Index)
		if !ok {
			continue
		}
		out = append(out, core.SearchHit{
			ItemID:      itemID,
			Description: a.Meta[itemID].Description,
			Distance:    h.Distance,
		})
	}
	return out, nil
}

// SearchText 将查询文本向量化后检索。
// 向量化失败属于协作方失败，向调用方传播，不影响已发布产物。
func (e *Engine) SearchText(ctx context.Context, query string, k int) ([]core.SearchHit, error) {
	if k <= 0 {
		return nil, invalidInput(fmt.Sprintf("search: invalid k %d", k))
	}
	if e.embedder == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeUnavailable,
			"engine: no embedder configured")
	}
	if e.snapshot() == nil {
		return []core.SearchHit{}, nil
	}

	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return e.Search(ctx, vec, k)
}

// Popular 返回受欢迎度最高的 k 个物品（冷启动兜底）。
// 优先读取发布时写入的有序集合，缺失时退回产物元信息中的频次排序。
func (e *Engine) Popular(ctx context.Context, k int) ([]core.PopularItem, error) {
	if k <= 0 {
		return nil, invalidInput(fmt.Sprintf("popular: invalid k %d", k))
	}

	a := e.snapshot()
	if a == nil {
		return []core.PopularItem{}, nil
	}

	if e.popular != nil {
		ids, err := e.popular.ZRange(ctx, e.popularKey, 0, int64(k)-1)
		if err == nil && len(ids) > 0 {
			out := make([]core.PopularItem, 0, len(ids))
			for _, id := range ids {
				meta, ok := a.Meta[id]
				if !ok {
					continue
				}
				out = append(out, core.PopularItem{
					ItemID:      id,
					Description: meta.Description,
					Frequency:   float64(meta.Frequency),
				})
			}
			if len(out) > 0 {
				return out, nil
			}
		}
	}

	// 兜底：按产物元信息中的频次降序（同频按 ID 升序）
	out := make([]core.PopularItem, 0, len(a.Meta))
	for id, meta := range a.Meta {
		out = append(out, core.PopularItem{
			ItemID:      id,
			Description: meta.Description,
			Frequency:   float64(meta.Frequency),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].ItemID < out[j].ItemID
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func invalidInput(msg string) *core.DomainError {
	return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "engine: "+msg)
}
