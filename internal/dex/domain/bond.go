package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BondStatus 保证金状态，前向迁移：HELD → REFUNDED 或 HELD → SLASHED
type BondStatus string

const (
	BondHeld     BondStatus = "HELD"
	BondRefunded BondStatus = "REFUNDED"
	BondSlashed  BondStatus = "SLASHED"
)

// BondEntry 随承诺缴纳的保证金台账。
// 诚实揭示在批次结算时返还；只承诺不揭示的在其所属批次结算时罚没入库。
type BondEntry struct {
	CommitmentID string
	PoolID       string
	Submitter    string
	Amount       decimal.Decimal
	Status       BondStatus
	CreatedAt    int64
	// SettledAt 返还或罚没的时间
	SettledAt *int64
}

// NewBondEntry 登记一笔持有中的保证金
func NewBondEntry(commitmentID, poolID, submitter string, amount decimal.Decimal, now int64) (*BondEntry, error) {
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: bond cannot be negative", ErrInvalidAmount)
	}
	return &BondEntry{
		CommitmentID: commitmentID,
		PoolID:       poolID,
		Submitter:    submitter,
		Amount:       amount,
		Status:       BondHeld,
		CreatedAt:    now,
	}, nil
}

// Refund 揭示方的保证金返还
func (b *BondEntry) Refund(now int64) error {
	if b.Status != BondHeld {
		return fmt.Errorf("%w: cannot refund bond in status %s", ErrPhaseViolation, b.Status)
	}
	b.Status = BondRefunded
	b.SettledAt = &now
	return nil
}

// Slash 未揭示方的保证金罚没
func (b *BondEntry) Slash(now int64) error {
	if b.Status != BondHeld {
		return fmt.Errorf("%w: cannot slash bond in status %s", ErrPhaseViolation, b.Status)
	}
	b.Status = BondSlashed
	b.SettledAt = &now
	return nil
}
