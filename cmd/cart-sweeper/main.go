// cmd/cart-sweeper/main.go
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/IRedDragonICY/progress-jogja-sub001/internal/pkg/bootstrap"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/pkg/logger"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/pkg/redis"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/pkg/zookeeper"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/application"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/infrastructure"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/infrastructure/adapter"
)

const serviceName = "cart-sweeper"

// 清扫任务没有入站流量，不走 bootstrap.StartService，
// 只组装存储、购物车和分布式锁，然后跑后台循环直到收到退出信号。
func main() {
	bootstrap.Init()
	logger.Init(serviceName)
	cfg := bootstrap.GetCurrentConfig()

	db, err := infrastructure.NewOrderDB(cfg.Infra.Mysql.DSN)
	if err != nil {
		log.Fatalf("failed to connect to mysql: %v", err)
	}
	orderRepo := infrastructure.NewGormOrderRepository(db)

	redisClient := redis.NewClient(cfg.Infra.Redis.Addr)
	defer redisClient.Close()
	cartAdapter, err := adapter.NewCartRedisAdapter(redisClient)
	if err != nil {
		log.Fatalf("failed to create cart adapter: %v", err)
	}

	zkConn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers, 5*time.Second)
	if err != nil {
		log.Fatalf("failed to connect to zookeeper: %v", err)
	}
	defer zkConn.Close()

	sweepLock, err := zookeeper.NewDistributedLock(zkConn, "cart-sweep")
	if err != nil {
		log.Fatalf("failed to create sweep lock: %v", err)
	}

	sweeper := application.NewCartSweeper(
		orderRepo,
		cartAdapter,
		sweepLock,
		cfg.App.SweepInterval,
		cfg.App.SweepLookback,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("%s started, interval=%s lookback=%s", serviceName, cfg.App.SweepInterval, cfg.App.SweepLookback)
	sweeper.Run(ctx)
	log.Printf("%s gracefully shut down.", serviceName)
}
