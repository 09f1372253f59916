package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/filter"
)

const sampleYAML = `
server:
  addr: ":9000"
store:
  backend: redis
  redis:
    addr: "localhost:6379"
    db: 1
data:
  retail_csv: "./data/online_retail_II.csv"
training:
  rank: 32
llm:
  api_key: "sk-test"
  chat_model: "gpt-4o-mini"
filters:
  - type: blacklist
    config:
      item_ids: ["85123A", "22423"]
  - type: rule
    config:
      expr: "item.price > 100.0"
  - type: budget
`

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Store.Backend != "redis" || cfg.Store.Redis.DB != 1 {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Training.Rank != 32 {
		t.Errorf("Training.Rank = %d, want 32", cfg.Training.Rank)
	}
	// 未设置的字段保持默认值
	if cfg.Training.Seed != 42 || cfg.Training.EmbedBatch != 64 {
		t.Errorf("Training defaults = %+v", cfg.Training)
	}
	if cfg.LLM.ChatModel != "gpt-4o-mini" {
		t.Errorf("LLM.ChatModel = %q", cfg.LLM.ChatModel)
	}
	if len(cfg.Filters) != 3 || cfg.Filters[0].Type != "blacklist" {
		t.Errorf("Filters = %+v", cfg.Filters)
	}
}

func TestLoadFromYAML_MissingFile(t *testing.T) {
	if _, err := LoadFromYAML("/no/such/config.yaml"); err == nil {
		t.Error("LoadFromYAML(missing) must fail")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Addr != ":8000" || cfg.Store.Backend != "memory" {
		t.Errorf("Default = %+v", cfg)
	}
	if cfg.Training.Rank != 50 || cfg.Training.Seed != 42 {
		t.Errorf("Training defaults = %+v", cfg.Training)
	}
}

func TestBuildFilters(t *testing.T) {
	chain, err := BuildFilters([]FilterConfig{
		{Type: "blacklist", Config: map[string]interface{}{"item_ids": []interface{}{"BAD"}}},
		{Type: "rule", Config: map[string]interface{}{"expr": "item.price > 100.0"}},
		{Type: "budget"},
	}, nil)
	if err != nil {
		t.Fatalf("BuildFilters: %v", err)
	}
	if len(chain.Filters) != 3 {
		t.Fatalf("len(Filters) = %d, want 3", len(chain.Filters))
	}

	ctx := context.Background()
	got, _ := chain.ShouldFilter(ctx, nil, "BAD", core.ItemMeta{})
	if !got {
		t.Error("blacklisted item must be filtered")
	}
	got, _ = chain.ShouldFilter(ctx, nil, "OK", core.ItemMeta{Price: 250})
	if !got {
		t.Error("rule must filter expensive item")
	}

	req := &filter.Request{Intent: &core.QueryIntent{Budget: "under 20"}}
	got, _ = chain.ShouldFilter(ctx, req, "OK", core.ItemMeta{Price: 50})
	if !got {
		t.Error("budget filter must drop item above budget")
	}
}

func TestBuildFilters_UnknownType(t *testing.T) {
	if _, err := BuildFilters([]FilterConfig{{Type: "nope"}}, nil); err == nil {
		t.Error("BuildFilters with unknown type must fail")
	}
}

func TestBuildFilters_RuleWithoutExpr(t *testing.T) {
	if _, err := BuildFilters([]FilterConfig{{Type: "rule"}}, nil); err == nil {
		t.Error("rule filter without expr must fail")
	}
}
