package filter

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/hybridrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

// getCELEnv 获取或创建 CEL 环境，定义变量
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("query", cel.DynType),
			cel.Variable("user_id", cel.StringType),
		)
	})
	return celEnv, celEnvErr
}

// RuleFilter 是规则过滤器，使用 CEL (Common Expression Language) 表达式
// 描述要剔除的物品。表达式在构造时编译一次，之后可并发复用。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：item.price > 50.0 / item.frequency < 3
//   - 文本：item.description.contains("CHRISTMAS")
//   - 意图：query.category == "gift" && item.price > 20.0
//   - 逻辑：item.price > 10.0 && item.frequency < 5
//
// 表达式返回 true 表示该物品被过滤掉。
type RuleFilter struct {
	expr string
	prg  cel.Program
}

// NewRuleFilter 编译 CEL 表达式并创建规则过滤器。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("filter: cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("filter: compile rule %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("filter: program rule %q: %w", expr, err)
	}
	return &RuleFilter{expr: expr, prg: prg}, nil
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(_ context.Context, req *Request, itemID string, meta core.ItemMeta) (bool, error) {
	out, _, err := f.prg.Eval(buildInput(req, itemID, meta))
	if err != nil {
		return false, fmt.Errorf("filter: eval rule %q: %w", f.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter: rule %q must return boolean, got %T", f.expr, out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据。
// 缺失的意图字段以空值呈现，表达式可安全访问。
func buildInput(req *Request, itemID string, meta core.ItemMeta) map[string]interface{} {
	item := map[string]interface{}{
		"id":          itemID,
		"description": meta.Description,
		"price":       meta.Price,
		"frequency":   meta.Frequency,
	}

	query := map[string]interface{}{
		"category": "",
		"features": []string{},
		"budget":   "",
		"intent":   "",
		"use_case": "",
	}
	userID := ""
	if req != nil {
		userID = req.UserID
		if req.Intent != nil {
			query["category"] = req.Intent.Category
			query["features"] = req.Intent.Features
			query["budget"] = req.Intent.Budget
			query["intent"] = req.Intent.Intent
			query["use_case"] = req.Intent.UseCase
		}
	}

	return map[string]interface{}{
		"item":    item,
		"query":   query,
		"user_id": userID,
	}
}

var _ Filter = (*RuleFilter)(nil)
