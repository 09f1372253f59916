package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/hybridrec/artifact"
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/source"
	"github.com/rushteam/hybridrec/store"
)

// fakeEmbedder 按描述查表返回固定向量，查询文本回退到 queryVec。
// block 非 nil 时 BatchEmbed 阻塞直至其被关闭，用于卡住构建阶段。
type fakeEmbedder struct {
	vecs     map[string][]float64
	queryVec []float64
	err      error
	block    chan struct{}
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vecs[text]; ok {
		return v, nil
	}
	return f.queryVec, nil
}

func (f *fakeEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float64, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

var _ core.Embedder = (*fakeEmbedder)(nil)

func trainerFixture() (*source.MemorySource, *fakeEmbedder) {
	src := source.NewMemorySource()
	src.AddInteractions(
		core.Interaction{UserID: "u1", ItemID: "A", Quantity: 5, UnitPrice: 2.55, Invoice: "536365"},
		core.Interaction{UserID: "u1", ItemID: "C", Quantity: 1, UnitPrice: 4.25, Invoice: "536365"},
		core.Interaction{UserID: "u2", ItemID: "B", Quantity: 8, UnitPrice: 3.39, Invoice: "536401"},
	)
	src.AddItems(
		core.ItemRecord{ID: "A", Description: "WHITE HANGING HEART", Price: 2.55, Frequency: 5},
		core.ItemRecord{ID: "B", Description: "RED WOOLLY HOTTIE", Price: 3.39, Frequency: 9},
		core.ItemRecord{ID: "C", Description: "GLASS STAR FROSTED", Price: 4.25, Frequency: 2},
	)
	emb := &fakeEmbedder{
		vecs: map[string][]float64{
			"WHITE HANGING HEART": {0, 0},
			"RED WOOLLY HOTTIE":   {1, 0},
			"GLASS STAR FROSTED":  {5, 5},
		},
		queryVec: []float64{0.1, 0.1},
	}
	return src, emb
}

func TestTrain_PublishesArtifact(t *testing.T) {
	ctx := context.Background()
	src, emb := trainerFixture()
	e := New(WithEmbedder(emb))
	tr := NewTrainer(e, src, src, emb)

	if err := tr.Train(ctx); err != nil {
		t.Fatalf("Train: %v", err)
	}
	if got := tr.State(); got != StateIdle {
		t.Errorf("State after Train = %v, want idle", got)
	}

	a := e.Current()
	if a == nil {
		t.Fatal("no artifact published after Train")
	}
	if a.Users.Len() != 2 || a.Items.Len() != 3 {
		t.Errorf("artifact sizes = %d users, %d items, want 2, 3", a.Users.Len(), a.Items.Len())
	}
	if a.Version == "" {
		t.Error("artifact version must be set")
	}

	// 交互矩阵秩不超过 2，分解应精确重建：u1 最强信号为 A（数量 5）
	recs, err := e.Recommend(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs) != 3 || recs[0].ItemID != "A" {
		t.Errorf("Recommend(u1) = %v, want A first", recs)
	}

	hits, err := e.SearchText(ctx, "white heart", 1)
	if err != nil {
		t.Fatalf("SearchText: %v", err)
	}
	if len(hits) != 1 || hits[0].ItemID != "A" {
		t.Errorf("SearchText = %v, want [A]", hits)
	}
}

func TestTrain_PersistsBundle(t *testing.T) {
	ctx := context.Background()
	src, emb := trainerFixture()
	kv := store.NewMemoryStore()
	defer kv.Close()
	bundles := artifact.NewBundleStore(kv, "")

	e := New()
	tr := NewTrainer(e, src, src, emb, WithBundleStore(bundles))
	if err := tr.Train(ctx); err != nil {
		t.Fatalf("Train: %v", err)
	}

	restored := New()
	if err := restored.Restore(ctx, bundles); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got := restored.Current()
	if got == nil || got.Version != e.Current().Version {
		t.Fatalf("restored version = %v, want %q", got, e.Current().Version)
	}
}

func TestTrain_PublishesPopular(t *testing.T) {
	ctx := context.Background()
	src, emb := trainerFixture()
	kv := store.NewMemoryStore()
	defer kv.Close()

	e := New(WithPopularStore(kv, "popular:items"))
	tr := NewTrainer(e, src, src, emb, WithTrainerPopularStore(kv, "popular:items"))
	if err := tr.Train(ctx); err != nil {
		t.Fatalf("Train: %v", err)
	}

	score, err := kv.ZScore(ctx, "popular:items", "B")
	if err != nil || score != 9 {
		t.Errorf("ZScore(B) = %v, %v, want 9", score, err)
	}

	pop, err := e.Popular(ctx, 1)
	if err != nil {
		t.Fatalf("Popular: %v", err)
	}
	if len(pop) != 1 || pop[0].ItemID != "B" {
		t.Errorf("Popular = %v, want [B]", pop)
	}
}

func TestTrain_InsufficientData_KeepsOldArtifact(t *testing.T) {
	ctx := context.Background()
	src, emb := trainerFixture()
	e := New()
	tr := NewTrainer(e, src, src, emb)
	if err := tr.Train(ctx); err != nil {
		t.Fatalf("first Train: %v", err)
	}
	old := e.Current()

	empty := source.NewMemorySource()
	tr2 := NewTrainer(e, empty, empty, emb)
	if err := tr2.Train(ctx); !core.IsInsufficientData(err) {
		t.Fatalf("Train(empty): error = %v, want INSUFFICIENT_DATA", err)
	}
	if tr2.State() != StateIdle {
		t.Errorf("State after failed Train = %v, want idle", tr2.State())
	}
	if e.Current() != old {
		t.Error("failed build must not touch the published artifact")
	}
}

func TestTriggerTraining_Busy(t *testing.T) {
	ctx := context.Background()
	src, emb := trainerFixture()
	emb.block = make(chan struct{})

	e := New()
	tr := NewTrainer(e, src, src, emb)
	if err := tr.TriggerTraining(ctx); err != nil {
		t.Fatalf("TriggerTraining: %v", err)
	}

	// 状态机已离开 Idle，第二次触发必须被拒绝
	if err := tr.TriggerTraining(ctx); !core.IsBusy(err) {
		t.Errorf("second TriggerTraining: error = %v, want BUSY", err)
	}
	if err := tr.Train(ctx); !core.IsBusy(err) {
		t.Errorf("Train during build: error = %v, want BUSY", err)
	}

	close(emb.block)
	deadline := time.After(5 * time.Second)
	for tr.State() != StateIdle || e.Current() == nil {
		select {
		case <-deadline:
			t.Fatalf("build did not finish: state = %v", tr.State())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestState_String(t *testing.T) {
	cases := map[State]string{
		StateIdle:       "idle",
		StateBuilding:   "building",
		StatePublishing: "publishing",
		StateFailed:     "failed",
		State(99):       "unknown",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
