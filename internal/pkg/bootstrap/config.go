// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是所有服务共享的配置结构，来自 yaml 文件，敏感项允许环境变量覆盖。
type Config struct {
	App   AppConfig   `yaml:"app"`
	Infra InfraConfig `yaml:"infra"`
}

type AppConfig struct {
	// 对账时单次下游调用（验签、存储读写）的超时预算
	OperationTimeout time.Duration `yaml:"operationTimeout"`

	// 告警策略的 CEL 表达式，为空则不启用告警
	AlertRule string `yaml:"alertRule"`

	// 是否回查网关状态接口，而不是直接信任通知携带的状态字段
	GatewayStatusFetch bool `yaml:"gatewayStatusFetch"`

	// 购物车清扫周期与回看窗口
	SweepInterval time.Duration `yaml:"sweepInterval"`
	SweepLookback time.Duration `yaml:"sweepLookback"`
}

type InfraConfig struct {
	Mysql struct {
		DSN string `yaml:"dsn"`
	} `yaml:"mysql"`
	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`
	Kafka struct {
		Brokers          []string `yaml:"brokers"`
		OrderEventsTopic string   `yaml:"orderEventsTopic"`
	} `yaml:"kafka"`
	Jaeger struct {
		Endpoint string `yaml:"endpoint"`
	} `yaml:"jaeger"`
	Zookeeper struct {
		Servers []string `yaml:"servers"`
	} `yaml:"zookeeper"`
	Gateway struct {
		BaseURL   string `yaml:"baseURL"`
		ServerKey string `yaml:"serverKey"`
	} `yaml:"gateway"`
}

var (
	currentConfig *Config
	configOnce    sync.Once
)

// Init 加载配置。路径由 CONFIG_PATH 指定，默认 ./configs/config.yaml。
func Init() {
	configOnce.Do(func() {
		path := getEnv("CONFIG_PATH", "./configs/config.yaml")

		cfg := defaultConfig()
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("WARN: could not read config file %s: %v. Using defaults and env overrides.", path, err)
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Fatalf("FATAL: failed to parse config file %s: %v", path, err)
		}

		applyEnvOverrides(cfg)
		currentConfig = cfg
	})
}

// GetCurrentConfig 返回已加载的配置。必须先调用 Init。
func GetCurrentConfig() *Config {
	if currentConfig == nil {
		log.Fatal("FATAL: bootstrap.Init must be called before GetCurrentConfig")
	}
	return currentConfig
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.App.OperationTimeout = 3 * time.Second
	cfg.App.SweepInterval = 5 * time.Minute
	cfg.App.SweepLookback = 24 * time.Hour
	cfg.Infra.Mysql.DSN = "root:root@tcp(localhost:3306)/storefront?charset=utf8mb4&parseTime=True&loc=Local"
	cfg.Infra.Redis.Addr = "localhost:6379"
	cfg.Infra.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Infra.Kafka.OrderEventsTopic = "order-status-events"
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	cfg.Infra.Zookeeper.Servers = []string{"localhost:2181"}
	return cfg
}

// applyEnvOverrides 允许部署环境覆盖关键配置，尤其是不应落盘的密钥。
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		cfg.Infra.Mysql.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Infra.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Infra.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("JAEGER_ENDPOINT"); v != "" {
		cfg.Infra.Jaeger.Endpoint = v
	}
	if v := os.Getenv("ZOOKEEPER_SERVERS"); v != "" {
		cfg.Infra.Zookeeper.Servers = strings.Split(v, ",")
	}
	if v := os.Getenv("GATEWAY_BASE_URL"); v != "" {
		cfg.Infra.Gateway.BaseURL = v
	}
	if v := os.Getenv("GATEWAY_SERVER_KEY"); v != "" {
		cfg.Infra.Gateway.ServerKey = v
	}
}

// getEnv 从环境变量中读取配置，缺省时返回 fallback。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
