package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CommitmentStatus 承诺状态，只允许前向迁移：
// COMMITTED → REVEALED 或 COMMITTED → EXPIRED，终态后不再变更
type CommitmentStatus string

const (
	CommitmentCommitted CommitmentStatus = "COMMITTED"
	CommitmentRevealed  CommitmentStatus = "REVEALED"
	CommitmentExpired   CommitmentStatus = "EXPIRED"
)

// OrderCommitment 隐藏订单承诺，承诺 ID 全局唯一
type OrderCommitment struct {
	CommitmentID string
	PoolID       string
	// BatchNumber 所属批次号
	BatchNumber int64
	// Submitter 提交者
	Submitter string
	// Hash 订单字段与秘密值的摘要（hex 编码）
	Hash string
	// Bond 随承诺缴纳的经济保证金
	Bond      decimal.Decimal
	Status    CommitmentStatus
	CreatedAt int64
	// RevealedAt 揭示时间，仅 REVEALED 状态非空
	RevealedAt *int64
}

// MarkRevealed 迁移到 REVEALED。重复揭示与对终态的改写都被拒绝。
func (c *OrderCommitment) MarkRevealed(now int64) error {
	switch c.Status {
	case CommitmentRevealed:
		return ErrAlreadyRevealed
	case CommitmentExpired:
		return ErrCommitmentExpired
	}
	c.Status = CommitmentRevealed
	c.RevealedAt = &now
	return nil
}

// MarkExpired 迁移到 EXPIRED，仅允许从 COMMITTED 出发
func (c *OrderCommitment) MarkExpired() error {
	if c.Status != CommitmentCommitted {
		return fmt.Errorf("%w: cannot expire commitment in status %s", ErrPhaseViolation, c.Status)
	}
	c.Status = CommitmentExpired
	return nil
}

// OrderFields 揭示时声明的订单字段，参与承诺哈希
type OrderFields struct {
	Trader string
	// AssetIn / AssetOut 输入与输出资产
	AssetIn  string
	AssetOut string
	// AmountIn 输入量，必须为正
	AmountIn decimal.Decimal
	// MinAmountOut 最小可接受输出
	MinAmountOut decimal.Decimal
	// Priority 优先标记：同批次内优先成交，但不改变统一清算价
	Priority bool
}

// RevealedOrder 已揭示订单，由 ClearingEngine 在所属批次的 SETTLE 中消费且仅消费一次
type RevealedOrder struct {
	CommitmentID string
	PoolID       string
	BatchNumber  int64
	OrderFields
	// RevealIndex 批次内的揭示序号，决定同优先级的成交顺序
	RevealIndex int
}

// HashOrder 计算承诺摘要：sha256(订单字段规范化编码 ++ 秘密值)
func HashOrder(fields OrderFields, secret string) string {
	payload := strings.Join([]string{
		fields.Trader,
		fields.AssetIn,
		fields.AssetOut,
		fields.AmountIn.String(),
		fields.MinAmountOut.String(),
		strconv.FormatBool(fields.Priority),
		secret,
	}, "|")
	digest := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(digest[:])
}

// RevealValidator 揭示校验器：验证声明的订单字段确实哈希到先前的承诺
type RevealValidator struct{}

// NewRevealValidator 创建揭示校验器
func NewRevealValidator() *RevealValidator {
	return &RevealValidator{}
}

// Validate 校验揭示。失败时承诺保持 COMMITTED（过了 REVEAL 窗口后按过期处理），
// 成功时调用方负责 MarkRevealed 并把订单准入批次。
func (v *RevealValidator) Validate(commitment *OrderCommitment, fields OrderFields, secret string) (*RevealedOrder, error) {
	switch commitment.Status {
	case CommitmentRevealed:
		return nil, ErrAlreadyRevealed
	case CommitmentExpired:
		return nil, ErrCommitmentExpired
	}

	if fields.AmountIn.Sign() <= 0 {
		return nil, fmt.Errorf("%w: order input must be positive", ErrInvalidAmount)
	}
	if fields.MinAmountOut.IsNegative() {
		return nil, fmt.Errorf("%w: minimum output cannot be negative", ErrInvalidAmount)
	}
	if fields.AssetIn == fields.AssetOut {
		return nil, fmt.Errorf("%w: input and output assets must differ", ErrUnknownAsset)
	}

	if HashOrder(fields, secret) != commitment.Hash {
		return nil, ErrPreimageMismatch
	}

	return &RevealedOrder{
		CommitmentID: commitment.CommitmentID,
		PoolID:       commitment.PoolID,
		BatchNumber:  commitment.BatchNumber,
		OrderFields:  fields,
	}, nil
}
