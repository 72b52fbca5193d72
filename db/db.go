// Package db 提供基于 GORM 的数据库组件，支持两种分表方式：
//   - ShardingRules: gorm.io/sharding，按 SQL 中的分片键自动改写表名
//   - Routing: Hint 优先的分片路由，调用方通过 hint.Obtain 在 ctx 上指定分片值，
//     没有 Hint 时回退到 WHERE 条件
//
// 每次 Invoke/Transaction 都会触发 rootInvoke 事件，每次路由前后触发 parsing 事件，
// Open 创建的连接在 Close 时触发 closeConnection 事件。
//
// ## 基本使用
//
//	database, _ := db.Open(&db.Config{
//		Driver:     "mysql",
//		DSN:        dsn,
//		DataSource: "ds_0",
//		Routing: routing.Config{Rules: []routing.Rule{{
//			LogicTable:     "t_order",
//			TableColumn:    "order_id",
//			DataSources:    []string{"ds_0"},
//			NumberOfTables: 4,
//		}}},
//	}, db.WithLogger(logger))
//	defer database.Close()
//
//	err := hint.Use(ctx, func(ctx context.Context, m *hint.Manager) error {
//		if err := m.AddTableShardingValue("t_order", "order_id", 7); err != nil {
//			return err
//		}
//		return database.Invoke(ctx, "query", func(ctx context.Context, tx *gorm.DB) error {
//			return tx.Find(&orders).Error // SELECT * FROM t_order_3
//		})
//	})
package db

import (
	"context"

	"github.com/ceyewan/shardkit/clog"
	"github.com/ceyewan/shardkit/event/closeconn"
	"github.com/ceyewan/shardkit/event/rootinvoke"
	"github.com/ceyewan/shardkit/routing"
	"github.com/ceyewan/shardkit/xerrors"

	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/sharding"
)

// DB 数据库组件
type DB interface {
	// DB 获取带 ctx 的 *gorm.DB，不触发根调用事件
	DB(ctx context.Context) *gorm.DB

	// Invoke 把 fn 作为一次根调用执行，op 为操作名（如 "query"）
	Invoke(ctx context.Context, op string, fn func(ctx context.Context, tx *gorm.DB) error) error

	// Transaction 在事务中执行 fn，整个事务是一次根调用
	Transaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error

	// Router 返回 Hint 路由器
	Router() *routing.Router

	// Close 关闭组件，只有 Open 创建的连接会被真正关闭
	Close() error
}

type database struct {
	client       *gorm.DB
	router       *routing.Router
	events       Events
	logger       clog.Logger
	dataSource   string
	connectionID string
	owned        bool
}

// New 在已有的 *gorm.DB 上创建组件（借用模式，Close 不关闭连接）
func New(gormDB *gorm.DB, cfg *Config, opts ...Option) (DB, error) {
	if gormDB == nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "gorm db is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Wrap(err, "invalid db config")
	}
	return newDatabase(gormDB, cfg, applyOptions(opts...), false)
}

// Open 按 Driver 打开连接并创建组件，Close 时关闭连接
func Open(cfg *Config, opts ...Option) (DB, error) {
	if cfg == nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "config is required")
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Wrap(err, "invalid db config")
	}
	if cfg.DSN == "" {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "dsn is required")
	}
	o := applyOptions(opts...)

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		dialector = mysql.Open(cfg.DSN)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(o.logger, o.silentMode, cfg.SlowThreshold),
	})
	if err != nil {
		return nil, xerrors.Wrapf(err, "open %s", cfg.Driver)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, xerrors.Wrap(err, "get sql.DB")
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	d, err := newDatabase(gormDB, cfg, o, true)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return d, nil
}

func newDatabase(gormDB *gorm.DB, cfg *Config, o *options, owned bool) (*database, error) {
	router, err := routing.New(&cfg.Routing, routing.WithLogger(o.logger))
	if err != nil {
		return nil, xerrors.Wrap(err, "invalid routing config")
	}

	if cfg.EnableTracing {
		pluginOpts := []otelgorm.Option{otelgorm.WithDBName(cfg.DataSource)}
		if o.tracer != nil {
			pluginOpts = append(pluginOpts, otelgorm.WithTracerProvider(o.tracer))
		}
		if err := gormDB.Use(otelgorm.NewPlugin(pluginOpts...)); err != nil {
			return nil, xerrors.Wrap(err, "failed to register otelgorm plugin")
		}
	}

	if cfg.EnableSharding {
		for _, rule := range cfg.ShardingRules {
			tables := make([]any, len(rule.Tables))
			for i, v := range rule.Tables {
				tables[i] = v
			}
			middleware := sharding.Register(sharding.Config{
				ShardingKey:         rule.ShardingKey,
				NumberOfShards:      rule.NumberOfShards,
				PrimaryKeyGenerator: sharding.PKSnowflake,
			}, tables...)
			if err := gormDB.Use(middleware); err != nil {
				return nil, xerrors.Wrapf(err, "failed to register sharding middleware for tables %v", rule.Tables)
			}
		}
	}

	if len(cfg.Routing.Rules) > 0 {
		plugin := &routerPlugin{
			router:     router,
			dataSource: cfg.DataSource,
			events:     o.events,
			logger:     o.logger,
		}
		if err := gormDB.Use(plugin); err != nil {
			return nil, xerrors.Wrap(err, "failed to register router plugin")
		}
	}

	d := &database{
		client:       gormDB,
		router:       router,
		events:       o.events,
		logger:       o.logger,
		dataSource:   cfg.DataSource,
		connectionID: uuid.NewString(),
		owned:        owned,
	}
	d.logger.Info("db component created",
		clog.String("driver", cfg.Driver),
		clog.String("data_source", cfg.DataSource),
		clog.Strings("routed_tables", router.LogicTables()),
		clog.Bool("sharding", cfg.EnableSharding),
	)
	return d, nil
}

func (d *database) DB(ctx context.Context) *gorm.DB {
	return d.client.WithContext(ctx)
}

func (d *database) Invoke(ctx context.Context, op string, fn func(ctx context.Context, tx *gorm.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := rootinvoke.NewStartEvent(op)
	ctx, err := d.events.RootInvoke.Start(ctx, start)
	if err != nil {
		// 已成功的 Handler 仍需结束，fn 不再执行
		return xerrors.Combine(err, d.events.RootInvoke.Finish(ctx, start.Finish(err)))
	}
	err = fn(ctx, d.client.WithContext(ctx))
	return xerrors.Combine(err, d.events.RootInvoke.Finish(ctx, start.Finish(err)))
}

func (d *database) Transaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error {
	return d.Invoke(ctx, "transaction", func(ctx context.Context, db *gorm.DB) error {
		return db.Transaction(func(tx *gorm.DB) error {
			return fn(ctx, tx)
		})
	})
}

func (d *database) Router() *routing.Router {
	return d.router
}

func (d *database) Close() error {
	if !d.owned {
		return nil
	}
	sqlDB, err := d.client.DB()
	if err != nil {
		return xerrors.Wrap(err, "get sql.DB")
	}

	start := closeconn.NewStartEvent(d.dataSource, d.connectionID)
	ctx, serr := d.events.CloseConn.Start(context.Background(), start)
	err = sqlDB.Close()
	if err != nil {
		d.logger.Error("failed to close connection", clog.Error(err))
	} else {
		d.logger.Info("connection closed", clog.String("connection_id", d.connectionID))
	}
	return xerrors.Combine(serr, err, d.events.CloseConn.Finish(ctx, start.Finish(err)))
}
