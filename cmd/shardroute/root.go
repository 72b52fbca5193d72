package main

import (
	"github.com/spf13/cobra"

	"github.com/ceyewan/shardkit/clog"
	"github.com/ceyewan/shardkit/config"
	"github.com/ceyewan/shardkit/routing"
	"github.com/ceyewan/shardkit/xerrors"
)

type globalFlags struct {
	configDir  string
	configName string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "shardroute",
		Short:         "Compute shard routes from sharding rules",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&g.configDir, "config-dir", ".", "directory containing the config file")
	root.PersistentFlags().StringVar(&g.configName, "config-name", "config", "config file name without extension")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level (debug|info|warn|error)")

	root.AddCommand(newRouteCmd(g), newTablesCmd(g))
	return root
}

// loadRouter 读取配置中的 clog 与 routing 段并构建路由器
func (g *globalFlags) loadRouter(cmd *cobra.Command) (*routing.Router, clog.Logger, error) {
	logger, err := clog.New(&clog.Config{Level: g.logLevel, Format: "console", Output: "stderr"},
		clog.WithNamespace("shardroute"))
	if err != nil {
		return nil, nil, err
	}

	loader, err := config.New(
		config.WithConfigName(g.configName),
		config.WithConfigPaths(g.configDir),
		config.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}
	if err := loader.Load(cmd.Context()); err != nil {
		return nil, nil, xerrors.Wrap(err, "load config")
	}

	rc, err := config.Section[routing.Config](loader, "routing")
	if err != nil {
		return nil, nil, err
	}
	router, err := routing.New(&rc, routing.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return router, logger, nil
}
