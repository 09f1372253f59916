package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 是服务的完整配置（支持 YAML）。
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Data     DataConfig     `yaml:"data"`
	Training TrainingConfig `yaml:"training"`
	LLM      LLMConfig      `yaml:"llm"`
	Feedback FeedbackConfig `yaml:"feedback"`
	Filters  []FilterConfig `yaml:"filters"`
}

// ServerConfig 是 HTTP 服务配置。
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StoreConfig 是存储后端配置。
type StoreConfig struct {
	// Backend 可选 memory / redis / file
	Backend string `yaml:"backend"`
	Redis   struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	File struct {
		Dir string `yaml:"dir"`
	} `yaml:"file"`
}

// DataConfig 是数据源配置。
type DataConfig struct {
	// RetailCSV 是零售流水 CSV 路径，为空时使用内存数据源
	RetailCSV string `yaml:"retail_csv"`
}

// TrainingConfig 是训练流水线配置。
type TrainingConfig struct {
	Rank         int   `yaml:"rank"`
	Seed         int64 `yaml:"seed"`
	EmbedBatch   int   `yaml:"embed_batch"`
	EmbedWorkers int   `yaml:"embed_workers"`
}

// LLMConfig 是 OpenAI 服务配置。
type LLMConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	ChatModel  string `yaml:"chat_model"`
	EmbedModel string `yaml:"embed_model"`
}

// FeedbackConfig 是反馈事件采集配置。
// Brokers 为空时不采集；非空时事件批量写入 Kafka。
type FeedbackConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// FilterConfig 是单个过滤器的配置。
type FilterConfig struct {
	Type   string                 `yaml:"type"`   // blacklist / user_block / rule / budget
	Config map[string]interface{} `yaml:"config"` // 过滤器特定配置
}

// Default 返回默认配置。
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8000"
	cfg.Store.Backend = "memory"
	cfg.Training.Rank = 50
	cfg.Training.Seed = 42
	cfg.Training.EmbedBatch = 64
	cfg.Training.EmbedWorkers = 4
	return cfg
}

// LoadFromYAML 从 YAML 文件加载配置，未设置的字段保持默认值。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	// 环境变量优先于文件中的明文密钥
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	return cfg, nil
}
