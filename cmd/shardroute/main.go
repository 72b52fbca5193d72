// shardroute 根据配置中的分片规则计算一次路由，用于核对分片配置。
//
//	shardroute route --table t_order --column user_id --value 7
//	shardroute route --table t_order --value 3 --database
//	shardroute tables --config-dir ./configs
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
