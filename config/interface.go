// Package config 为 shardkit 提供统一的配置加载能力，基于 Viper 实现。
//
// 配置来源优先级：环境变量 > .env > 环境特定配置 (config.<env>.yaml) > 基础配置 (config.yaml)。
// 环境由 <PREFIX>_ENV 指定，默认前缀为 SHARDKIT。
//
// 基本使用：
//
//	loader := config.MustLoad(
//		config.WithConfigName("shardkit"),
//		config.WithConfigPaths("./configs"),
//	)
//
//	rc, err := config.Section[routing.Config](loader, "routing")
//
//	// 分片规则变更时重建路由器
//	ch, _ := loader.Watch(ctx, "routing.rules")
//	for event := range ch {
//		log.Info("routing rules changed", clog.String("key", event.Key))
//	}
package config

import (
	"context"
	"time"
)

// Loader 配置加载器
type Loader interface {
	// Load 读取所有来源并开始监听配置文件
	Load(ctx context.Context) error

	// Get 获取原始配置值
	Get(key string) any

	// Unmarshal 将整个配置反序列化到结构体
	Unmarshal(v any) error

	// UnmarshalKey 将指定 key 的配置反序列化到结构体
	UnmarshalKey(key string, v any) error

	// Watch 监听 key 的变化，ctx 取消后通道关闭
	Watch(ctx context.Context, key string) (<-chan Event, error)

	// Validate 验证当前配置的有效性
	Validate() error
}

// Event 配置变更事件
type Event struct {
	Key       string
	Value     any
	OldValue  any
	Source    string // "file" | "env"
	Timestamp time.Time
}
