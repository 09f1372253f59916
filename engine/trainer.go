package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/hybridrec/artifact"
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/factor"
	"github.com/rushteam/hybridrec/idmap"
	"github.com/rushteam/hybridrec/matrix"
	"github.com/rushteam/hybridrec/vector"
)

// State 是训练流水线的状态。
type State int32

const (
	StateIdle       State = iota // 无构建进行中
	StateBuilding                // 正在从快照构建产物
	StatePublishing              // 正在原子发布
	StateFailed                  // 构建失败（随即回到 Idle，旧产物保持有效）
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuilding:
		return "building"
	case StatePublishing:
		return "publishing"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrBusy 表示已有构建在进行中，本次构建请求被拒绝（不排队、不交错）。
var ErrBusy = core.NewDomainError(core.ModuleEngine, core.ErrorCodeBusy,
	"engine: a build is already in progress")

// Trainer 是离线训练流水线：
// Idle → Building → Publishing → Idle，失败时 Building → Failed → Idle。
//
// 整个构建基于构建开始时取的数据快照，期间到达的新数据不会混入。
// 构建作为后台任务运行，绝不阻塞服务路径；
// 中途放弃的构建只是丢弃其产物，对已发布产物与在途查询无影响。
type Trainer struct {
	engine       *Engine
	interactions core.InteractionSource
	items        core.ItemSource
	embedder     core.Embedder

	bundles    *artifact.BundleStore // 可选：发布后持久化
	popular    core.KeyValueStore    // 可选：发布时写入热门有序集合
	popularKey string

	rank         int
	seed         int64
	embedBatch   int
	embedWorkers int

	mu    sync.Mutex
	state State
}

// TrainerOption 配置 Trainer。
type TrainerOption func(*Trainer)

// WithRank 设置分解秩（默认 50）。
func WithRank(rank int) TrainerOption {
	return func(t *Trainer) {
		if rank > 0 {
			t.rank = rank
		}
	}
}

// WithSeed 设置随机种子（默认 42，保证可复现）。
func WithSeed(seed int64) TrainerOption {
	return func(t *Trainer) { t.seed = seed }
}

// WithBundleStore 设置产物持久化器，发布后保存 bundle。
func WithBundleStore(b *artifact.BundleStore) TrainerOption {
	return func(t *Trainer) { t.bundles = b }
}

// WithTrainerPopularStore 设置热门物品有序集合，发布时按频次写入。
func WithTrainerPopularStore(kv core.KeyValueStore, key string) TrainerOption {
	return func(t *Trainer) {
		t.popular = kv
		if key != "" {
			t.popularKey = key
		}
	}
}

// WithEmbedBatch 设置向量化批大小（默认 64）。
func WithEmbedBatch(n int) TrainerOption {
	return func(t *Trainer) {
		if n > 0 {
			t.embedBatch = n
		}
	}
}

// WithEmbedWorkers 设置向量化并发数（默认 4）。
func WithEmbedWorkers(n int) TrainerOption {
	return func(t *Trainer) {
		if n > 0 {
			t.embedWorkers = n
		}
	}
}

// NewTrainer 创建训练流水线。
func NewTrainer(
	engine *Engine,
	interactions core.InteractionSource,
	items core.ItemSource,
	embedder core.Embedder,
	opts ...TrainerOption,
) *Trainer {
	t := &Trainer{
		engine:       engine,
		interactions: interactions,
		items:        items,
		embedder:     embedder,
		popularKey:   "popular:items",
		rank:         50,
		seed:         42,
		embedBatch:   64,
		embedWorkers: 4,
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State 返回当前流水线状态。
func (t *Trainer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// TriggerTraining 异步触发一次构建。
// 已有构建进行中时返回 ErrBusy；接受后立即返回，不等待产物。
func (t *Trainer) TriggerTraining(ctx context.Context) error {
	if err := t.begin(); err != nil {
		return err
	}
	go func() {
		// 后台构建不继承请求的生命周期
		if err := t.run(context.Background()); err != nil {
			log.Printf("hybridrec: training failed: %v", err)
		}
	}()
	return nil
}

// Train 同步执行一次构建（脚本/测试用），遵循同样的状态机与互斥约束。
func (t *Trainer) Train(ctx context.Context) error {
	if err := t.begin(); err != nil {
		return err
	}
	return t.run(ctx)
}

func (t *Trainer) begin() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateIdle {
		return ErrBusy
	}
	t.state = StateBuilding
	return nil
}

func (t *Trainer) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

func (t *Trainer) run(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			// Failed 是瞬态：记录后回到 Idle，已发布产物保持有效
			t.setState(StateFailed)
		}
		t.setState(StateIdle)
	}()

	a, err := t.build(ctx)
	if err != nil {
		return err
	}

	t.setState(StatePublishing)
	t.engine.Publish(a)

	// 发布已完成；持久化与热门集合写入失败只记录，不回滚
	if t.bundles != nil {
		if err := t.bundles.Save(ctx, a); err != nil {
			log.Printf("hybridrec: persist artifact bundle: %v", err)
		}
	}
	if t.popular != nil {
		for id, meta := range a.Meta {
			if err := t.popular.ZAdd(ctx, t.popularKey, float64(meta.Frequency), id); err != nil {
				log.Printf("hybridrec: publish popular items: %v", err)
				break
			}
		}
	}
	return nil
}

// build 从数据快照完整构建一个产物：
// ID 映射 → 交互矩阵 → 隐因子分解 → 描述向量化 → 向量索引。
func (t *Trainer) build(ctx context.Context) (*artifact.Artifact, error) {
	interactions, err := t.interactions.Interactions(ctx)
	if err != nil {
		return nil, err
	}
	items, err := t.items.Items(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInsufficientData,
			"engine: training snapshot has no items")
	}

	userIDs := make([]string, 0, len(interactions))
	for _, in := range interactions {
		userIDs = append(userIDs, in.UserID)
	}
	users := idmap.New(userIDs)

	itemIDs := make([]string, 0, len(items))
	meta := make(map[string]core.ItemMeta, len(items))
	for _, it := range items {
		itemIDs = append(itemIDs, it.ID)
		meta[it.ID] = core.ItemMeta{
			Description: it.Description,
			Price:       it.Price,
			Frequency:   it.Frequency,
		}
	}
	itemReg := idmap.New(itemIDs)

	// 协同信号
	csr := matrix.Aggregate(interactions, users, itemReg)
	model, err := factor.Decompose(csr, t.rank, t.seed)
	if err != nil {
		return nil, err
	}

	// 内容信号：按内部下标顺序向量化每个物品描述
	descs := make([]string, itemReg.Len())
	for i := 0; i < itemReg.Len(); i++ {
		id, _ := itemReg.IDOf(i)
		descs[i] = meta[id].Description
	}
	vecs, err := t.embedAll(ctx, descs)
	if err != nil {
		return nil, err
	}

	idx, err := vecindexOf(vecs)
	if err != nil {
		return nil, err
	}

	built := time.Now().UTC()
	a := &artifact.Artifact{
		Version: built.Format("20060102T150405.000000000"),
		BuiltAt: built,
		Users:   users,
		Items:   itemReg,
		Factors: model,
		Index:   idx,
		Meta:    meta,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// vecindexOf 从向量集合构建平铺索引，维度由外部 embedding 模型决定。
func vecindexOf(vecs [][]float64) (*vector.FlatIndex, error) {
	dim := 0
	if len(vecs) > 0 {
		dim = len(vecs[0])
	}
	if dim <= 0 {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInternalError,
			"engine: embedder returned empty vectors")
	}
	idx, err := vector.NewFlatIndex(dim)
	if err != nil {
		return nil, err
	}
	if err := idx.AddBatch(vecs); err != nil {
		return nil, err
	}
	return idx, nil
}

// embedAll 分批并发向量化，保持与输入一一对应的顺序。
func (t *Trainer) embedAll(ctx context.Context, texts []string) ([][]float64, error) {
	vecs := make([][]float64, len(texts))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(t.embedWorkers)
	for start := 0; start < len(texts); start += t.embedBatch {
		start := start
		end := start + t.embedBatch
		if end > len(texts) {
			end = len(texts)
		}
		eg.Go(func() error {
			out, err := t.embedder.BatchEmbed(ctx, texts[start:end])
			if err != nil {
				return err
			}
			if len(out) != end-start {
				return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInternalError,
					"engine: embedder returned mismatched batch size")
			}
			copy(vecs[start:end], out)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return vecs, nil
}
