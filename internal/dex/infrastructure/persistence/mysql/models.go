package mysql

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/dexsettlement/internal/dex/domain"
)

// PoolModel 资金池表
type PoolModel struct {
	PoolID        string          `gorm:"column:pool_id;primaryKey;size:128"`
	Asset0        string          `gorm:"column:asset0;size:64;not null"`
	Asset1        string          `gorm:"column:asset1;size:64;not null"`
	Reserve0      decimal.Decimal `gorm:"column:reserve0;type:decimal(65,0);not null"`
	Reserve1      decimal.Decimal `gorm:"column:reserve1;type:decimal(65,0);not null"`
	TotalShares   decimal.Decimal `gorm:"column:total_shares;type:decimal(65,0);not null"`
	FeeBps        int64           `gorm:"column:fee_bps;not null"`
	CurveKind     string          `gorm:"column:curve_kind;size:32;not null"`
	Amplification int64           `gorm:"column:amplification;not null;default:0"`
	Initialized   bool            `gorm:"column:initialized;not null;default:false"`
	CreatedBy     string          `gorm:"column:created_by;size:128"`
	CreatedAt     int64           `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (PoolModel) TableName() string { return "dex_pools" }

func (m *PoolModel) toDomain() *domain.Pool {
	return &domain.Pool{
		PoolID:        m.PoolID,
		Asset0:        m.Asset0,
		Asset1:        m.Asset1,
		Reserve0:      m.Reserve0,
		Reserve1:      m.Reserve1,
		TotalShares:   m.TotalShares,
		FeeBps:        m.FeeBps,
		CurveKind:     domain.CurveKind(m.CurveKind),
		Amplification: m.Amplification,
		Initialized:   m.Initialized,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}

func poolModelFrom(p *domain.Pool) *PoolModel {
	return &PoolModel{
		PoolID:        p.PoolID,
		Asset0:        p.Asset0,
		Asset1:        p.Asset1,
		Reserve0:      p.Reserve0,
		Reserve1:      p.Reserve1,
		TotalShares:   p.TotalShares,
		FeeBps:        p.FeeBps,
		CurveKind:     string(p.CurveKind),
		Amplification: p.Amplification,
		Initialized:   p.Initialized,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     p.CreatedAt,
	}
}

// CommitmentModel 订单承诺表
type CommitmentModel struct {
	CommitmentID string          `gorm:"column:commitment_id;primaryKey;size:64"`
	PoolID       string          `gorm:"column:pool_id;size:128;index:idx_commitment_batch;not null"`
	BatchNumber  int64           `gorm:"column:batch_number;index:idx_commitment_batch;not null"`
	Submitter    string          `gorm:"column:submitter;size:128;not null"`
	Hash         string          `gorm:"column:hash;size:64;not null"`
	Bond         decimal.Decimal `gorm:"column:bond;type:decimal(65,0);not null"`
	Status       string          `gorm:"column:status;size:16;not null"`
	CreatedAt    int64           `gorm:"column:created_at;not null"`
	RevealedAt   *int64          `gorm:"column:revealed_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (CommitmentModel) TableName() string { return "dex_commitments" }

func (m *CommitmentModel) toDomain() *domain.OrderCommitment {
	return &domain.OrderCommitment{
		CommitmentID: m.CommitmentID,
		PoolID:       m.PoolID,
		BatchNumber:  m.BatchNumber,
		Submitter:    m.Submitter,
		Hash:         m.Hash,
		Bond:         m.Bond,
		Status:       domain.CommitmentStatus(m.Status),
		CreatedAt:    m.CreatedAt,
		RevealedAt:   m.RevealedAt,
	}
}

func commitmentModelFrom(c *domain.OrderCommitment) *CommitmentModel {
	return &CommitmentModel{
		CommitmentID: c.CommitmentID,
		PoolID:       c.PoolID,
		BatchNumber:  c.BatchNumber,
		Submitter:    c.Submitter,
		Hash:         c.Hash,
		Bond:         c.Bond,
		Status:       string(c.Status),
		CreatedAt:    c.CreatedAt,
		RevealedAt:   c.RevealedAt,
	}
}

// BatchModel 批次表，(池, 批次号) 唯一
type BatchModel struct {
	ID             uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	PoolID         string          `gorm:"column:pool_id;size:128;uniqueIndex:uk_batch;not null"`
	Number         int64           `gorm:"column:number;uniqueIndex:uk_batch;not null"`
	Phase          string          `gorm:"column:phase;size:16;index;not null"`
	PhaseStart     int64           `gorm:"column:phase_start;not null"`
	CommitDuration int64           `gorm:"column:commit_duration;not null"`
	RevealDuration int64           `gorm:"column:reveal_duration;not null"`
	ClearingPrice  decimal.Decimal `gorm:"column:clearing_price;type:decimal(65,18);not null"`
	PriceSet       bool            `gorm:"column:price_set;not null;default:false"`
	SettledAt      *int64          `gorm:"column:settled_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (BatchModel) TableName() string { return "dex_batches" }

// RevealedOrderModel 批次内已揭示订单表
type RevealedOrderModel struct {
	ID           uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	PoolID       string          `gorm:"column:pool_id;size:128;uniqueIndex:uk_order;not null"`
	BatchNumber  int64           `gorm:"column:batch_number;uniqueIndex:uk_order;not null"`
	RevealIndex  int             `gorm:"column:reveal_index;uniqueIndex:uk_order;not null"`
	CommitmentID string          `gorm:"column:commitment_id;size:64;not null"`
	Trader       string          `gorm:"column:trader;size:128;not null"`
	AssetIn      string          `gorm:"column:asset_in;size:64;not null"`
	AssetOut     string          `gorm:"column:asset_out;size:64;not null"`
	AmountIn     decimal.Decimal `gorm:"column:amount_in;type:decimal(65,0);not null"`
	MinAmountOut decimal.Decimal `gorm:"column:min_amount_out;type:decimal(65,0);not null"`
	Priority     bool            `gorm:"column:priority;not null;default:false"`
}

func (RevealedOrderModel) TableName() string { return "dex_revealed_orders" }

func (m *RevealedOrderModel) toDomain() *domain.RevealedOrder {
	return &domain.RevealedOrder{
		CommitmentID: m.CommitmentID,
		PoolID:       m.PoolID,
		BatchNumber:  m.BatchNumber,
		OrderFields: domain.OrderFields{
			Trader:       m.Trader,
			AssetIn:      m.AssetIn,
			AssetOut:     m.AssetOut,
			AmountIn:     m.AmountIn,
			MinAmountOut: m.MinAmountOut,
			Priority:     m.Priority,
		},
		RevealIndex: m.RevealIndex,
	}
}

func orderModelFrom(o *domain.RevealedOrder) *RevealedOrderModel {
	return &RevealedOrderModel{
		PoolID:       o.PoolID,
		BatchNumber:  o.BatchNumber,
		RevealIndex:  o.RevealIndex,
		CommitmentID: o.CommitmentID,
		Trader:       o.Trader,
		AssetIn:      o.AssetIn,
		AssetOut:     o.AssetOut,
		AmountIn:     o.AmountIn,
		MinAmountOut: o.MinAmountOut,
		Priority:     o.Priority,
	}
}

// PositionModel 流动性头寸表，(池, 存入人) 唯一
type PositionModel struct {
	ID            uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	PoolID        string          `gorm:"column:pool_id;size:128;uniqueIndex:uk_position;not null"`
	Depositor     string          `gorm:"column:depositor;size:128;uniqueIndex:uk_position;not null"`
	Shares        decimal.Decimal `gorm:"column:shares;type:decimal(65,0);not null"`
	LastDepositAt int64           `gorm:"column:last_deposit_at;not null"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (PositionModel) TableName() string { return "dex_positions" }

func (m *PositionModel) toDomain() *domain.LiquidityPosition {
	return &domain.LiquidityPosition{
		PoolID:        m.PoolID,
		Depositor:     m.Depositor,
		Shares:        m.Shares,
		LastDepositAt: m.LastDepositAt,
	}
}

// BondModel 保证金台账表
type BondModel struct {
	CommitmentID string          `gorm:"column:commitment_id;primaryKey;size:64"`
	PoolID       string          `gorm:"column:pool_id;size:128;index;not null"`
	Submitter    string          `gorm:"column:submitter;size:128;not null"`
	Amount       decimal.Decimal `gorm:"column:amount;type:decimal(65,0);not null"`
	Status       string          `gorm:"column:status;size:16;not null"`
	CreatedAt    int64           `gorm:"column:created_at;not null"`
	SettledAt    *int64          `gorm:"column:settled_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (BondModel) TableName() string { return "dex_bonds" }

func (m *BondModel) toDomain() *domain.BondEntry {
	return &domain.BondEntry{
		CommitmentID: m.CommitmentID,
		PoolID:       m.PoolID,
		Submitter:    m.Submitter,
		Amount:       m.Amount,
		Status:       domain.BondStatus(m.Status),
		CreatedAt:    m.CreatedAt,
		SettledAt:    m.SettledAt,
	}
}

func bondModelFrom(b *domain.BondEntry) *BondModel {
	return &BondModel{
		CommitmentID: b.CommitmentID,
		PoolID:       b.PoolID,
		Submitter:    b.Submitter,
		Amount:       b.Amount,
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt,
		SettledAt:    b.SettledAt,
	}
}

// Models 返回全部表模型，供启动时 AutoMigrate 使用
func Models() []any {
	return []any{
		&PoolModel{},
		&CommitmentModel{},
		&BatchModel{},
		&RevealedOrderModel{},
		&PositionModel{},
		&BondModel{},
	}
}
