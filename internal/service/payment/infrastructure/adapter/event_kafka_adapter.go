package adapter

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"github.com/IRedDragonICY/progress-jogja-sub001/internal/pkg/mq"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain/port"
)

// 事件信封的类型标签，消费端据此分发。
const (
	eventTypeStatusChanged   = "order.status.changed"
	eventTypeCartClearFailed = "order.cart.clear.failed"
	eventTypeAlert           = "payment.notification.alert"
)

// eventEnvelope 是写入 Kafka 的统一外层结构。
type eventEnvelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// EventKafkaAdapter 是 port.EventPublisher 接口的 Kafka 实现。
// 所有事件写同一个 topic，以 ownerId 作为消息 key，
// 保证同一买家的事件落在同一分区、按序消费。
type EventKafkaAdapter struct {
	writer *kafka.Writer
}

// NewEventKafkaAdapter 创建一个新的事件发布适配器实例。
func NewEventKafkaAdapter(writer *kafka.Writer) *EventKafkaAdapter {
	return &EventKafkaAdapter{writer: writer}
}

var _ port.EventPublisher = (*EventKafkaAdapter)(nil)

func (a *EventKafkaAdapter) PublishStatusChanged(ctx context.Context, event *domain.OrderStatusChanged) error {
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	return a.publish(ctx, eventTypeStatusChanged, event.OwnerID, event)
}

func (a *EventKafkaAdapter) PublishCartClearFailed(ctx context.Context, event *domain.CartClearFailed) error {
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	return a.publish(ctx, eventTypeCartClearFailed, event.OwnerID, event)
}

func (a *EventKafkaAdapter) PublishAlert(ctx context.Context, event *domain.NotificationAlert) error {
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	// 告警没有买家归属，用订单号做 key。
	return a.publish(ctx, eventTypeAlert, event.OrderID, event)
}

func (a *EventKafkaAdapter) publish(ctx context.Context, eventType, key string, data interface{}) error {
	payload, err := json.Marshal(eventEnvelope{Type: eventType, Data: data})
	if err != nil {
		return errors.Wrapf(err, "failed to marshal %s event", eventType)
	}
	if err := mq.ProduceMessage(ctx, a.writer, []byte(key), payload); err != nil {
		return errors.Wrapf(err, "failed to produce %s event", eventType)
	}
	return nil
}
