package filter

import (
	"context"
	"testing"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/store"
)

func TestBlacklistFilter(t *testing.T) {
	ctx := context.Background()
	f := NewBlacklistFilter([]string{"85123A"}, nil, "")

	got, err := f.ShouldFilter(ctx, nil, "85123A", core.ItemMeta{})
	if err != nil || !got {
		t.Errorf("ShouldFilter(blacklisted) = %v, %v, want true", got, err)
	}
	got, err = f.ShouldFilter(ctx, nil, "84406B", core.ItemMeta{})
	if err != nil || got {
		t.Errorf("ShouldFilter(other) = %v, %v, want false", got, err)
	}
}

func TestBlacklistFilter_FromStore(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	defer kv.Close()
	_ = kv.Set(ctx, "blacklist:items", []byte(`["22423","85048"]`))

	f := NewBlacklistFilter(nil, NewStoreAdapter(kv), "blacklist:items")
	got, err := f.ShouldFilter(ctx, nil, "22423", core.ItemMeta{})
	if err != nil || !got {
		t.Errorf("ShouldFilter(store blacklisted) = %v, %v, want true", got, err)
	}
}

func TestUserBlockFilter(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	defer kv.Close()
	_ = kv.Set(ctx, "user:block:13085", []byte(`["85123A"]`))

	f := NewUserBlockFilter(NewStoreAdapter(kv), "user:block")
	req := &Request{UserID: "13085"}

	got, err := f.ShouldFilter(ctx, req, "85123A", core.ItemMeta{})
	if err != nil || !got {
		t.Errorf("ShouldFilter(blocked) = %v, %v, want true", got, err)
	}
	got, err = f.ShouldFilter(ctx, &Request{UserID: "99999"}, "85123A", core.ItemMeta{})
	if err != nil || got {
		t.Errorf("ShouldFilter(other user) = %v, %v, want false", got, err)
	}
	got, err = f.ShouldFilter(ctx, nil, "85123A", core.ItemMeta{})
	if err != nil || got {
		t.Errorf("ShouldFilter(no request) = %v, %v, want false", got, err)
	}
}

func TestRuleFilter(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		expr string
		req  *Request
		meta core.ItemMeta
		want bool
	}{
		{
			name: "price above limit",
			expr: "item.price > 50.0",
			meta: core.ItemMeta{Price: 99.9},
			want: true,
		},
		{
			name: "price within limit",
			expr: "item.price > 50.0",
			meta: core.ItemMeta{Price: 2.55},
			want: false,
		},
		{
			name: "description match",
			expr: `item.description.contains("CHRISTMAS")`,
			meta: core.ItemMeta{Description: "CHRISTMAS LIGHTS"},
			want: true,
		},
		{
			name: "intent category",
			expr: `query.category == "gift" && item.price > 20.0`,
			req:  &Request{Intent: &core.QueryIntent{Category: "gift"}},
			meta: core.ItemMeta{Price: 25},
			want: true,
		},
		{
			name: "missing intent is empty",
			expr: `query.category == "gift"`,
			meta: core.ItemMeta{},
			want: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := NewRuleFilter(tc.expr)
			if err != nil {
				t.Fatalf("NewRuleFilter(%q): %v", tc.expr, err)
			}
			got, err := f.ShouldFilter(ctx, tc.req, "X", tc.meta)
			if err != nil {
				t.Fatalf("ShouldFilter: %v", err)
			}
			if got != tc.want {
				t.Errorf("ShouldFilter = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRuleFilter_CompileError(t *testing.T) {
	if _, err := NewRuleFilter("item.price >"); err == nil {
		t.Error("NewRuleFilter with broken expression must fail")
	}
}

func TestBudgetFilter(t *testing.T) {
	ctx := context.Background()
	f := BudgetFilter{}
	cases := []struct {
		name   string
		budget string
		price  float64
		want   bool
	}{
		{"under ceiling", "under 20", 15.0, false},
		{"over ceiling", "under 20", 25.0, true},
		{"currency symbol", "around £15", 20.0, true},
		{"floor keeps expensive", "over 50", 80.0, false},
		{"floor drops cheap", "over 50", 10.0, true},
		{"no number", "cheap please", 999.0, false},
		{"no budget", "", 999.0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var req *Request
			if tc.budget != "" {
				req = &Request{Intent: &core.QueryIntent{Budget: tc.budget}}
			}
			got, err := f.ShouldFilter(ctx, req, "X", core.ItemMeta{Price: tc.price})
			if err != nil {
				t.Fatalf("ShouldFilter: %v", err)
			}
			if got != tc.want {
				t.Errorf("ShouldFilter(%q, price=%v) = %v, want %v", tc.budget, tc.price, got, tc.want)
			}
		})
	}
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	rule, err := NewRuleFilter("item.price > 100.0")
	if err != nil {
		t.Fatalf("NewRuleFilter: %v", err)
	}
	c := &Chain{Filters: []Filter{
		NewBlacklistFilter([]string{"BAD"}, nil, ""),
		rule,
	}}

	got, _ := c.ShouldFilter(ctx, nil, "BAD", core.ItemMeta{})
	if !got {
		t.Error("chain must filter blacklisted item")
	}
	got, _ = c.ShouldFilter(ctx, nil, "OK", core.ItemMeta{Price: 150})
	if !got {
		t.Error("chain must filter by rule")
	}
	got, _ = c.ShouldFilter(ctx, nil, "OK", core.ItemMeta{Price: 5})
	if got {
		t.Error("chain must keep unmatched item")
	}
}
