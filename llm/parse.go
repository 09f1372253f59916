package llm

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// decodeJSON 解析模型返回的 JSON。
// 模型偶尔会把 JSON 包在 markdown 代码块里或带上前后说明文字，
// 这里截取首个 '{' 到末个 '}' 之间的内容再解析。
func decodeJSON(content string, v interface{}) error {
	s := strings.TrimSpace(content)
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return fmt.Errorf("llm: no JSON object in response %q", content)
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), v); err != nil {
		return fmt.Errorf("llm: decode response: %w", err)
	}
	return nil
}
