package messaging

import (
	"context"
	"fmt"

	"github.com/wyfcoding/dexsettlement/internal/dex/domain"
	"github.com/wyfcoding/dexsettlement/pkg/mq"
)

// KafkaEventPublisher 把领域事件按事件类型投递到对应的 Kafka 主题，
// 事件键使用池 ID，保证同一池的事件在分区内有序
type KafkaEventPublisher struct {
	producer *mq.KafkaProducer
}

func NewKafkaEventPublisher(producer *mq.KafkaProducer) domain.EventPublisher {
	return &KafkaEventPublisher{producer: producer}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, event any) error {
	base, err := baseOf(event)
	if err != nil {
		return err
	}
	return p.producer.SendMessage(ctx, string(base.Type), base.PoolID, event)
}

func baseOf(event any) (domain.BaseEvent, error) {
	switch e := event.(type) {
	case *domain.PoolCreatedEvent:
		return e.BaseEvent, nil
	case *domain.LiquidityChangedEvent:
		return e.BaseEvent, nil
	case *domain.BatchSettledEvent:
		return e.BaseEvent, nil
	case *domain.FeeAccruedEvent:
		return e.BaseEvent, nil
	case *domain.BondSlashedEvent:
		return e.BaseEvent, nil
	case *domain.BreakerTrippedEvent:
		return e.BaseEvent, nil
	default:
		return domain.BaseEvent{}, fmt.Errorf("unknown event type %T", event)
	}
}
