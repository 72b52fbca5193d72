package db

import (
	"time"

	"github.com/ceyewan/shardkit/routing"
	"github.com/ceyewan/shardkit/xerrors"
)

// Config DB 组件配置
type Config struct {
	// Driver 数据库驱动: "mysql" 或 "sqlite"，默认 "mysql"
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	// DSN 连接串，仅 Open 使用
	DSN string `json:"dsn" yaml:"dsn" mapstructure:"dsn"`

	// DataSource 当前连接对应的数据源名，与 routing 规则中的 data_sources 对应；
	// 为空时不校验路由出的数据源
	DataSource string `json:"data_source" yaml:"data_source" mapstructure:"data_source"`

	// 连接池，仅 Open 使用
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`

	// SlowThreshold 慢 SQL 阈值，默认 200ms
	SlowThreshold time.Duration `json:"slow_threshold" yaml:"slow_threshold" mapstructure:"slow_threshold"`

	// EnableTracing 为每条 SQL 创建 OpenTelemetry Span（otelgorm）
	EnableTracing bool `json:"enable_tracing" yaml:"enable_tracing" mapstructure:"enable_tracing"`

	// EnableSharding 开启基于 SQL 条件的自动分表（gorm.io/sharding）
	EnableSharding bool `json:"enable_sharding" yaml:"enable_sharding" mapstructure:"enable_sharding"`

	// ShardingRules gorm.io/sharding 的分表规则
	ShardingRules []ShardingRule `json:"sharding_rules" yaml:"sharding_rules" mapstructure:"sharding_rules"`

	// Routing 由 Hint 或 WHERE 条件驱动的分片规则，与 ShardingRules 的表不能重叠
	Routing routing.Config `json:"routing" yaml:"routing" mapstructure:"routing"`
}

// ShardingRule gorm.io/sharding 分片规则
type ShardingRule struct {
	// 分片键 (例如 "user_id")
	ShardingKey string `json:"sharding_key" yaml:"sharding_key" mapstructure:"sharding_key"`

	// 分片数量 (例如 64)
	NumberOfShards uint `json:"number_of_shards" yaml:"number_of_shards" mapstructure:"number_of_shards"`

	// 应用此规则的逻辑表名列表
	Tables []string `json:"tables" yaml:"tables" mapstructure:"tables"`
}

func (c *Config) setDefaults() {
	if c.Driver == "" {
		c.Driver = "mysql"
	}
	if c.SlowThreshold <= 0 {
		c.SlowThreshold = 200 * time.Millisecond
	}
}

func (c *Config) validate() error {
	if c.Driver != "mysql" && c.Driver != "sqlite" {
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "unsupported driver: %s (must be 'mysql' or 'sqlite')", c.Driver)
	}
	if c.EnableSharding && len(c.ShardingRules) == 0 {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "sharding enabled but no rules provided")
	}

	routed := make(map[string]struct{}, len(c.Routing.Rules))
	for _, rule := range c.Routing.Rules {
		routed[rule.LogicTable] = struct{}{}
	}
	for _, rule := range c.ShardingRules {
		if rule.ShardingKey == "" {
			return xerrors.Wrap(xerrors.ErrInvalidInput, "sharding key cannot be empty")
		}
		if rule.NumberOfShards == 0 {
			return xerrors.Wrap(xerrors.ErrInvalidInput, "number of shards must be greater than 0")
		}
		if len(rule.Tables) == 0 {
			return xerrors.Wrap(xerrors.ErrInvalidInput, "sharding tables cannot be empty")
		}
		for _, table := range rule.Tables {
			if table == "" {
				return xerrors.Wrap(xerrors.ErrInvalidInput, "sharding table name cannot be empty")
			}
			if _, ok := routed[table]; ok {
				return xerrors.Wrapf(xerrors.ErrInvalidInput, "table %s is configured in both sharding_rules and routing", table)
			}
		}
	}
	return nil
}
