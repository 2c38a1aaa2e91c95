// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Init 配置全局 zerolog Logger，所有服务在启动时调用一次。
func Init(serviceName string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Ctx 返回与上下文关联的 Logger。
// 如果上下文中携带了有效的 Span，则自动附加 trace_id 字段，
// 便于在日志系统中与 Jaeger 链路相互跳转。
func Ctx(ctx context.Context) *zerolog.Logger {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		l := log.With().Str("trace_id", sc.TraceID().String()).Logger()
		return &l
	}
	return &log.Logger
}

// WithContext 将全局 Logger 存入 context，供下游 handler 使用。
func WithContext(ctx context.Context) context.Context {
	return log.Logger.WithContext(ctx)
}
