package messaging

import (
	"context"

	"github.com/wyfcoding/dexsettlement/internal/dex/domain"
	"github.com/wyfcoding/dexsettlement/pkg/metrics"
)

// InstrumentedPublisher 在投递事件的同时更新业务指标
type InstrumentedPublisher struct {
	next    domain.EventPublisher
	metrics *metrics.Metrics
}

func NewInstrumentedPublisher(next domain.EventPublisher, m *metrics.Metrics) domain.EventPublisher {
	return &InstrumentedPublisher{next: next, metrics: m}
}

func (p *InstrumentedPublisher) Publish(ctx context.Context, event any) error {
	switch event.(type) {
	case *domain.PoolCreatedEvent:
		p.metrics.PoolsCreated.Inc()
	case *domain.LiquidityChangedEvent:
		p.metrics.LiquidityChanges.Inc()
	case *domain.BatchSettledEvent:
		p.metrics.BatchesSettled.Inc()
	case *domain.FeeAccruedEvent:
		p.metrics.FeeAccruals.Inc()
	case *domain.BondSlashedEvent:
		p.metrics.BondsSlashed.Inc()
	case *domain.BreakerTrippedEvent:
		p.metrics.BreakerTrips.Inc()
	}
	return p.next.Publish(ctx, event)
}
