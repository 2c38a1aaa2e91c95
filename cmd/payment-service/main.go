// cmd/payment-service/main.go
package main

import (
	"log"

	"go.opentelemetry.io/otel"

	"github.com/IRedDragonICY/progress-jogja-sub001/internal/pkg/bootstrap"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/pkg/httpclient"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/pkg/logger"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/pkg/mq"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/pkg/redis"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/application"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain/port"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/infrastructure"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/infrastructure/adapter"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/interfaces"
)

const serviceName = "payment-service"

// main 函数是应用的"组装根" (Composition Root)
// 它的核心职责是：创建并组装所有依赖项，然后启动应用。
func main() {
	bootstrap.Init()
	logger.Init(serviceName)
	cfg := bootstrap.GetCurrentConfig()

	// --- 依赖组装 ---

	// 1. 存储 (MySQL + GORM)
	db, err := infrastructure.NewOrderDB(cfg.Infra.Mysql.DSN)
	if err != nil {
		log.Fatalf("failed to connect to mysql: %v", err)
	}
	orderRepo := infrastructure.NewGormOrderRepository(db)

	// 2. 出站适配器
	tracer := otel.Tracer(serviceName)

	gatewayAdapter := adapter.NewGatewayHTTPAdapter(
		httpclient.NewClient(tracer),
		cfg.Infra.Gateway.BaseURL,
		cfg.Infra.Gateway.ServerKey,
		cfg.App.GatewayStatusFetch,
	)

	redisClient := redis.NewClient(cfg.Infra.Redis.Addr)
	defer redisClient.Close()
	cartAdapter, err := adapter.NewCartRedisAdapter(redisClient)
	if err != nil {
		log.Fatalf("failed to create cart adapter: %v", err)
	}

	eventWriter := mq.NewWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.OrderEventsTopic)
	defer eventWriter.Close()
	eventPublisher := adapter.NewEventKafkaAdapter(eventWriter)

	// 告警策略是可选的，规则为空时不装配
	var alertPolicy port.AlertPolicy
	if cfg.App.AlertRule != "" {
		alertPolicy, err = adapter.NewAlertCELAdapter(cfg.App.AlertRule)
		if err != nil {
			log.Fatalf("failed to compile alert rule: %v", err)
		}
	}

	// 3. 应用服务
	reconcileService := application.NewReconcileService(
		orderRepo,
		gatewayAdapter,
		cartAdapter,
		eventPublisher,
		alertPolicy,
		tracer,
		cfg.App.OperationTimeout,
	)

	// 4. 入站接口 + 启动
	handler := interfaces.NewPaymentHandler(reconcileService)
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8089,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
	})
}
