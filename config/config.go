// Package config 为 Aegis 组件库提供统一的配置加载能力。
// 基于 Viper 实现，支持多源加载、热更新与按 key 监听。
//
// 配置优先级：环境变量 > .env 文件 > 配置文件。
// 环境变量前缀默认 "AEGIS"，key 中的 "." 映射为 "_"，
// 例如 breaker.failure_threshold 对应 AEGIS_BREAKER_FAILURE_THRESHOLD。
//
// ## 基本使用
//
//	loader, _ := config.New(&config.Config{
//		Name:  "aegis",
//		Paths: []string{".", "./config"},
//	}, config.WithLogger(logger))
//	if err := loader.Load(ctx); err != nil {
//		return err
//	}
//
//	settings, _ := config.LoadSettings(loader)
//
// ## 监听变更
//
//	ch, _ := loader.Watch(ctx, "pressure.limit_bytes")
//	for event := range ch {
//		logger.Info("config changed", clog.Any("value", event.Value))
//	}
package config

import (
	"context"
	"strings"
	"time"
)

// Loader 配置加载器核心接口
type Loader interface {
	// Load 从所有来源加载配置并启动文件监听
	Load(ctx context.Context) error

	// Get 获取原始配置值
	Get(key string) any

	// Unmarshal 将整个配置反序列化到结构体（按 yaml 标签匹配）
	Unmarshal(v any) error

	// UnmarshalKey 将指定 key 的配置反序列化到结构体
	UnmarshalKey(key string, v any) error

	// Watch 订阅指定 key 的变更，通过 ctx 取消订阅
	Watch(ctx context.Context, key string) (<-chan Event, error)
}

// Event 配置变更事件
type Event struct {
	// Key 发生变更的配置 key
	Key string

	// Value 新值
	Value any

	// OldValue 旧值
	OldValue any

	// Timestamp 变更时间
	Timestamp time.Time
}

// Config 加载器配置
type Config struct {
	// Name 配置文件名称，不含扩展名（默认："aegis"）
	Name string `json:"name" yaml:"name"`

	// Paths 配置文件搜索路径（默认：["."，"./config"]）
	Paths []string `json:"paths" yaml:"paths"`

	// FileType 配置文件类型（默认："yaml"）
	FileType string `json:"file_type" yaml:"file_type"`

	// EnvPrefix 环境变量前缀（默认："AEGIS"）
	EnvPrefix string `json:"env_prefix" yaml:"env_prefix"`
}

// setDefaults 补齐默认值（内部使用）
func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = "aegis"
	}
	if c.Paths == nil {
		c.Paths = []string{".", "./config"}
	}
	if c.FileType == "" {
		c.FileType = "yaml"
	}
	if c.EnvPrefix == "" {
		c.EnvPrefix = "AEGIS"
	}
	c.EnvPrefix = strings.ToUpper(c.EnvPrefix)
}

// New 创建配置加载器
//
// cfg 为 nil 时使用默认配置。
func New(cfg *Config, opts ...Option) (Loader, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	c := *cfg
	c.setDefaults()

	opt := options{}
	for _, o := range opts {
		o(&opt)
	}

	return newLoader(&c, &opt), nil
}
