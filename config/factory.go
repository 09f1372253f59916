package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/hybridrec/filter"
	"github.com/rushteam/hybridrec/pkg/conv"
)

// FilterBuilder 根据配置构建一个过滤器。
// adapter 可为 nil，表示没有可用的存储后端。
type FilterBuilder func(config map[string]interface{}, adapter *filter.StoreAdapter) (filter.Filter, error)

var (
	defaultBuilders   = make(map[string]FilterBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种过滤器的构建逻辑，供配置驱动使用。
func Register(typeName string, builder FilterBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedFilterTypes 返回当前已注册的过滤器类型列表（排序），用于错误提示与校验。
func SupportedFilterTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// BuildFilters 根据配置构建过滤器链。
func BuildFilters(cfgs []FilterConfig, adapter *filter.StoreAdapter) (*filter.Chain, error) {
	filters := make([]filter.Filter, 0, len(cfgs))
	for _, fc := range cfgs {
		defaultBuildersMu.RLock()
		builder, ok := defaultBuilders[fc.Type]
		defaultBuildersMu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("unknown filter type: %s (supported: %v)", fc.Type, SupportedFilterTypes())
		}
		f, err := builder(fc.Config, adapter)
		if err != nil {
			return nil, fmt.Errorf("build filter %s: %w", fc.Type, err)
		}
		filters = append(filters, f)
	}
	return &filter.Chain{Filters: filters}, nil
}

func init() {
	Register("blacklist", buildBlacklistFilter)
	Register("user_block", buildUserBlockFilter)
	Register("rule", buildRuleFilter)
	Register("budget", buildBudgetFilter)
}

func buildBlacklistFilter(config map[string]interface{}, adapter *filter.StoreAdapter) (filter.Filter, error) {
	ids := conv.SliceAnyToString(config["item_ids"])
	if ids == nil {
		ids = []string{}
	}
	key := conv.ConfigGet[string](config, "key", "")
	return filter.NewBlacklistFilter(ids, adapter, key), nil
}

func buildUserBlockFilter(config map[string]interface{}, adapter *filter.StoreAdapter) (filter.Filter, error) {
	keyPrefix := conv.ConfigGet[string](config, "key_prefix", "")
	return filter.NewUserBlockFilter(adapter, keyPrefix), nil
}

func buildRuleFilter(config map[string]interface{}, _ *filter.StoreAdapter) (filter.Filter, error) {
	expr := conv.ConfigGet[string](config, "expr", "")
	if expr == "" {
		return nil, fmt.Errorf("expr not found")
	}
	return filter.NewRuleFilter(expr)
}

func buildBudgetFilter(_ map[string]interface{}, _ *filter.StoreAdapter) (filter.Filter, error) {
	return filter.BudgetFilter{}, nil
}
