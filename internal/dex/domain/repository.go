package domain

import (
	"context"
)

// PoolRepository 资金池仓储
type PoolRepository interface {
	Save(ctx context.Context, pool *Pool) error
	// FindByID 未找到时返回 (nil, nil)
	FindByID(ctx context.Context, poolID string) (*Pool, error)
	FindAll(ctx context.Context) ([]*Pool, error)
}

// CommitmentRepository 订单承诺仓储
type CommitmentRepository interface {
	Save(ctx context.Context, commitment *OrderCommitment) error
	// FindByID 未找到时返回 (nil, nil)
	FindByID(ctx context.Context, commitmentID string) (*OrderCommitment, error)
	// FindByBatch 返回某池某批次的全部承诺
	FindByBatch(ctx context.Context, poolID string, batchNumber int64) ([]*OrderCommitment, error)
}

// BatchRepository 批次仓储。批次永不删除，结算后保留为历史。
type BatchRepository interface {
	Save(ctx context.Context, batch *Batch) error
	// FindCurrent 返回某池当前（未关闭）的批次，未找到时返回 (nil, nil)
	FindCurrent(ctx context.Context, poolID string) (*Batch, error)
	// FindByNumber 未找到时返回 (nil, nil)
	FindByNumber(ctx context.Context, poolID string, number int64) (*Batch, error)
}

// PositionRepository 流动性头寸仓储
type PositionRepository interface {
	Save(ctx context.Context, position *LiquidityPosition) error
	// Find 未找到时返回 (nil, nil)
	Find(ctx context.Context, poolID, depositor string) (*LiquidityPosition, error)
	FindByPool(ctx context.Context, poolID string) ([]*LiquidityPosition, error)
}

// BondRepository 保证金台账仓储
type BondRepository interface {
	Save(ctx context.Context, bond *BondEntry) error
	// FindByCommitment 未找到时返回 (nil, nil)
	FindByCommitment(ctx context.Context, commitmentID string) (*BondEntry, error)
}

// OracleRepository 参考价样本仓储（外部预言机写入，核心只读最新样本）
type OracleRepository interface {
	SaveSample(ctx context.Context, sample *ReferenceSample) error
	// LatestSample 未找到时返回 (nil, nil)
	LatestSample(ctx context.Context, poolID string) (*ReferenceSample, error)
}

// EventPublisher 领域事件发布
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// Clock 逻辑时钟。核心不读墙钟，所有时间从这里取。
type Clock interface {
	Now() int64
}

// UnitOfWork 在同一事务内执行 fn，fn 内的仓储操作要么全部生效要么全部回滚
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}
