// Package conv 提供配置解析用的类型转换工具。
// YAML/JSON 反序列化产出 map[string]interface{} 与 []interface{}，
// 这里统一转成过滤器构建所需的具体类型。
package conv

import "fmt"

// ConfigGet 从 map[string]interface{}（如 YAML 解析结果）按 key 取 T，
// 取不到或类型不符时返回 defaultVal。
func ConfigGet[T any](m map[string]interface{}, key string, defaultVal T) T {
	if m == nil {
		return defaultVal
	}
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	t, ok := v.(T)
	if !ok {
		return defaultVal
	}
	return t
}

// SliceAnyToString 将 []interface{} 转为 []string，无法转换的元素被跳过。
// 元素为 string 直接保留；为数字时格式化为整数字符串
// （YAML 中裸写的物品编号常被解析成数字而非字符串）。
func SliceAnyToString(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := toString(e); ok {
			out = append(out, s)
		}
	}
	return out
}

func toString(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case int:
		return fmt.Sprintf("%d", val), true
	case int64:
		return fmt.Sprintf("%d", val), true
	case float64:
		return fmt.Sprintf("%.0f", val), true
	case float32:
		return fmt.Sprintf("%.0f", val), true
	default:
		return "", false
	}
}
