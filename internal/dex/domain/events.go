package domain

import (
	"github.com/shopspring/decimal"
)

// EventType 领域事件类型
type EventType string

const (
	EventPoolCreated      EventType = "dex.pool.created"
	EventLiquidityChanged EventType = "dex.liquidity.changed"
	EventBatchSettled     EventType = "dex.batch.settled"
	EventFeeAccrued       EventType = "dex.fee.accrued"
	EventBondSlashed      EventType = "dex.bond.slashed"
	EventBreakerTripped   EventType = "dex.breaker.tripped"
)

// BaseEvent 领域事件公共字段
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	Type      EventType `json:"type"`
	PoolID    string    `json:"pool_id"`
	Timestamp int64     `json:"timestamp"`
}

// PoolCreatedEvent 池创建事件
type PoolCreatedEvent struct {
	BaseEvent
	Asset0    string `json:"asset0"`
	Asset1    string `json:"asset1"`
	CurveKind string `json:"curve_kind"`
	FeeBps    int64  `json:"fee_bps"`
	CreatedBy string `json:"created_by"`
}

// LiquidityChangedEvent 流动性存入或提取事件
type LiquidityChangedEvent struct {
	BaseEvent
	Depositor string          `json:"depositor"`
	Direction string          `json:"direction"` // DEPOSIT / WITHDRAW
	Amount0   decimal.Decimal `json:"amount0"`
	Amount1   decimal.Decimal `json:"amount1"`
	Shares    decimal.Decimal `json:"shares"`
}

// BatchSettledEvent 批次结算完成事件
type BatchSettledEvent struct {
	BaseEvent
	BatchNumber   int64           `json:"batch_number"`
	ClearingPrice decimal.Decimal `json:"clearing_price"`
	FilledCount   int             `json:"filled_count"`
	ExcludedCount int             `json:"excluded_count"`
	TotalIn0      decimal.Decimal `json:"total_in0"`
	TotalIn1      decimal.Decimal `json:"total_in1"`
	TotalOut0     decimal.Decimal `json:"total_out0"`
	TotalOut1     decimal.Decimal `json:"total_out1"`
}

// FeeAccruedEvent 协议费入库事件，下游金库服务消费
type FeeAccruedEvent struct {
	BaseEvent
	BatchNumber int64           `json:"batch_number"`
	Asset       string          `json:"asset"`
	Amount      decimal.Decimal `json:"amount"`
}

// BondSlashedEvent 保证金罚没事件
type BondSlashedEvent struct {
	BaseEvent
	CommitmentID string          `json:"commitment_id"`
	Submitter    string          `json:"submitter"`
	Amount       decimal.Decimal `json:"amount"`
	BatchNumber  int64           `json:"batch_number"`
}

// BreakerTrippedEvent 熔断触发事件
type BreakerTrippedEvent struct {
	BaseEvent
	WindowNotional decimal.Decimal `json:"window_notional"`
	Threshold      decimal.Decimal `json:"threshold"`
}
