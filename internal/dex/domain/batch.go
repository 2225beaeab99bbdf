package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BatchPhase 批次阶段。迁移严格前向且受时间门控：
// COMMIT →(时长已满)→ REVEAL →(时长已满)→ SETTLE →(结算执行)→ CLOSED，
// CLOSED 的同时开启下一批次的 COMMIT。
type BatchPhase string

const (
	PhaseCommit BatchPhase = "COMMIT"
	PhaseReveal BatchPhase = "REVEAL"
	PhaseSettle BatchPhase = "SETTLE"
	PhaseClosed BatchPhase = "CLOSED"
)

// Batch 批次聚合根，(池, 批次号) 唯一，批次号单调递增。
// 批次永不删除，结算后保留为历史记录。
type Batch struct {
	PoolID string
	// Number 批次号，每池从 1 开始单调递增
	Number int64
	Phase  BatchPhase
	// PhaseStart 当前阶段的起始逻辑时间（unix 秒）
	PhaseStart int64
	// CommitDuration / RevealDuration 配置的阶段时长（秒）
	CommitDuration int64
	RevealDuration int64
	// Orders 已准入的揭示订单，按揭示顺序排列
	Orders []*RevealedOrder
	// ClearingPrice 结算时一次性写入，之后不可变
	ClearingPrice decimal.Decimal
	// PriceSet 清算价是否已写入
	PriceSet bool
	// SettledAt 结算时间
	SettledAt *int64
}

// NewBatch 开启一个新批次，初始阶段为 COMMIT
func NewBatch(poolID string, number int64, now, commitDuration, revealDuration int64) *Batch {
	return &Batch{
		PoolID:         poolID,
		Number:         number,
		Phase:          PhaseCommit,
		PhaseStart:     now,
		CommitDuration: commitDuration,
		RevealDuration: revealDuration,
		Orders:         nil,
		ClearingPrice:  decimal.Zero,
	}
}

// RequirePhase 校验当前阶段，出错即 ErrPhaseViolation
func (b *Batch) RequirePhase(phase BatchPhase) error {
	if b.Phase != phase {
		return fmt.Errorf("%w: batch %d in %s, operation requires %s",
			ErrPhaseViolation, b.Number, b.Phase, phase)
	}
	return nil
}

// Advance 按逻辑时钟推进阶段。时长未满返回 ErrPhaseNotElapsed；
// SETTLE → CLOSED 只能经由 MarkSettled 完成。
func (b *Batch) Advance(now int64) error {
	switch b.Phase {
	case PhaseCommit:
		if now < b.PhaseStart+b.CommitDuration {
			return fmt.Errorf("%w: COMMIT ends at %d, now %d",
				ErrPhaseNotElapsed, b.PhaseStart+b.CommitDuration, now)
		}
		b.Phase = PhaseReveal
		b.PhaseStart = now
		return nil
	case PhaseReveal:
		if now < b.PhaseStart+b.RevealDuration {
			return fmt.Errorf("%w: REVEAL ends at %d, now %d",
				ErrPhaseNotElapsed, b.PhaseStart+b.RevealDuration, now)
		}
		b.Phase = PhaseSettle
		b.PhaseStart = now
		return nil
	default:
		return fmt.Errorf("%w: cannot advance batch %d from %s", ErrPhaseViolation, b.Number, b.Phase)
	}
}

// AdmitOrder 将揭示订单准入批次（仅 REVEAL 阶段），按揭示顺序编号
func (b *Batch) AdmitOrder(order *RevealedOrder) error {
	if err := b.RequirePhase(PhaseReveal); err != nil {
		return err
	}
	order.RevealIndex = len(b.Orders)
	b.Orders = append(b.Orders, order)
	return nil
}

// MarkSettled 写入清算价并关闭批次。清算价只允许写一次。
func (b *Batch) MarkSettled(clearingPrice decimal.Decimal, now int64) error {
	if err := b.RequirePhase(PhaseSettle); err != nil {
		return err
	}
	if b.PriceSet {
		return ErrPriceImmutable
	}
	b.ClearingPrice = clearingPrice
	b.PriceSet = true
	b.Phase = PhaseClosed
	b.SettledAt = &now
	return nil
}

// NextBatch 开启后继批次。阶段时长由调用方给出，
// 协议级的时长调整从下一批次起生效。
func (b *Batch) NextBatch(now, commitDuration, revealDuration int64) *Batch {
	return NewBatch(b.PoolID, b.Number+1, now, commitDuration, revealDuration)
}
