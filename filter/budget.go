package filter

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/rushteam/hybridrec/core"
)

// BudgetFilter 按查询意图中的预算描述过滤价格不符的物品。
// 预算是自由文本（如 "under 20"、"around £15"、"over 50"），
// 从中提取首个数字作为界限；未提及数字时不过滤。
type BudgetFilter struct{}

func (BudgetFilter) Name() string {
	return "filter.budget"
}

func (BudgetFilter) ShouldFilter(_ context.Context, req *Request, _ string, meta core.ItemMeta) (bool, error) {
	if req == nil || req.Intent == nil || req.Intent.Budget == "" {
		return false, nil
	}
	limit, ok := firstNumber(req.Intent.Budget)
	if !ok {
		return false, nil
	}
	if isFloor(req.Intent.Budget) {
		return meta.Price < limit, nil
	}
	return meta.Price > limit, nil
}

// isFloor 判断预算描述是下限还是上限，未指明时按上限处理。
func isFloor(budget string) bool {
	s := strings.ToLower(budget)
	for _, kw := range []string{"over", "above", "more than", "at least", "minimum"} {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// firstNumber 提取文本中的首个数字（忽略货币符号等）。
func firstNumber(s string) (float64, bool) {
	start := -1
	for i, r := range s {
		if unicode.IsDigit(r) {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(s) && (unicode.IsDigit(rune(s[end])) || s[end] == '.') {
		end++
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s[start:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

var _ Filter = (BudgetFilter{})
