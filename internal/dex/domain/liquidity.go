package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BurnSink 首次注资锁定的最小份额归属地址，永不可取回
const BurnSink = "0x000000000000000000000000000000000000dEaD"

// MinimumLiquidityShares 首次注资锁定的最小份额数，
// 防止通过退化的首笔注资操纵份额单价
var MinimumLiquidityShares = decimal.NewFromInt(1000)

// LiquidityPosition 流动性头寸，(池, 存入人) 唯一
type LiquidityPosition struct {
	PoolID    string
	Depositor string
	// Shares 份额余额。全池头寸份额之和恒等于池的份额总供给。
	Shares decimal.Decimal
	// LastDepositAt 最近一次存入的逻辑时间，供闪电贷防护使用
	LastDepositAt int64
}

// DepositResult 注资结果
type DepositResult struct {
	// Amount0 / Amount1 实际消耗的两侧资产量
	Amount0 decimal.Decimal
	Amount1 decimal.Decimal
	// SharesMinted 铸给存入人的份额
	SharesMinted decimal.Decimal
	// SharesLocked 锁入销毁地址的份额（仅首次注资非零）
	SharesLocked decimal.Decimal
	// Refund0 / Refund1 非限制侧资产的退还量
	Refund0 decimal.Decimal
	Refund1 decimal.Decimal
}

// LiquidityLedger 流动性份额账本。
// 只负责存取流动性时的储备与份额变化，绝不为撮合改动储备。
type LiquidityLedger struct{}

// NewLiquidityLedger 创建流动性账本
func NewLiquidityLedger() *LiquidityLedger {
	return &LiquidityLedger{}
}

// Deposit 注资。
// 首次注资：总份额 = amount0，其中最小份额锁入销毁地址，余量归存入人；
// 后续注资：按两侧资产相对现有储备折算份额，取较小值防止捐赠攻击，
// 非限制侧多余的部分退还。
// 任一侧实际消耗量低于声明的下限则整笔拒绝，状态不变。
func (l *LiquidityLedger) Deposit(pool *Pool, amount0Desired, amount1Desired, minAmount0, minAmount1 decimal.Decimal) (*DepositResult, error) {
	if amount0Desired.Sign() <= 0 || amount1Desired.Sign() <= 0 {
		return nil, fmt.Errorf("%w: deposit amounts must be positive", ErrInvalidAmount)
	}

	if !pool.Initialized {
		return l.initialDeposit(pool, amount0Desired, amount1Desired, minAmount0, minAmount1)
	}

	share0, err := mulDivFloor(amount0Desired, pool.TotalShares, pool.Reserve0)
	if err != nil {
		return nil, err
	}
	share1, err := mulDivFloor(amount1Desired, pool.TotalShares, pool.Reserve1)
	if err != nil {
		return nil, err
	}

	shares := decimal.Min(share0, share1)
	if shares.Sign() <= 0 {
		return nil, fmt.Errorf("%w: deposit too small to mint shares", ErrInvalidAmount)
	}

	// 限制侧全额消耗，另一侧按份额反推所需量（向上取整），余量退还
	var amount0, amount1 decimal.Decimal
	if share0.LessThanOrEqual(share1) {
		amount0 = amount0Desired
		amount1, err = mulDivCeil(shares, pool.Reserve1, pool.TotalShares)
	} else {
		amount1 = amount1Desired
		amount0, err = mulDivCeil(shares, pool.Reserve0, pool.TotalShares)
	}
	if err != nil {
		return nil, err
	}
	if amount0.GreaterThan(amount0Desired) || amount1.GreaterThan(amount1Desired) {
		return nil, ErrArithmetic
	}
	if amount0.LessThan(minAmount0) || amount1.LessThan(minAmount1) {
		return nil, fmt.Errorf("%w: consumed (%s, %s) below declared minimums (%s, %s)",
			ErrSlippageViolation, amount0, amount1, minAmount0, minAmount1)
	}

	pool.Reserve0 = pool.Reserve0.Add(amount0)
	pool.Reserve1 = pool.Reserve1.Add(amount1)
	pool.TotalShares = pool.TotalShares.Add(shares)

	return &DepositResult{
		Amount0:      amount0,
		Amount1:      amount1,
		SharesMinted: shares,
		SharesLocked: decimal.Zero,
		Refund0:      amount0Desired.Sub(amount0),
		Refund1:      amount1Desired.Sub(amount1),
	}, nil
}

func (l *LiquidityLedger) initialDeposit(pool *Pool, amount0, amount1, minAmount0, minAmount1 decimal.Decimal) (*DepositResult, error) {
	if amount0.LessThanOrEqual(MinimumLiquidityShares) {
		return nil, fmt.Errorf("%w: first deposit must exceed minimum locked shares %s",
			ErrInvalidAmount, MinimumLiquidityShares)
	}
	// 首次注资双侧全额消耗
	if amount0.LessThan(minAmount0) || amount1.LessThan(minAmount1) {
		return nil, fmt.Errorf("%w: consumed (%s, %s) below declared minimums (%s, %s)",
			ErrSlippageViolation, amount0, amount1, minAmount0, minAmount1)
	}

	pool.Reserve0 = amount0
	pool.Reserve1 = amount1
	pool.TotalShares = amount0
	pool.Initialized = true

	return &DepositResult{
		Amount0:      amount0,
		Amount1:      amount1,
		SharesMinted: amount0.Sub(MinimumLiquidityShares),
		SharesLocked: MinimumLiquidityShares,
		Refund0:      decimal.Zero,
		Refund1:      decimal.Zero,
	}, nil
}

// Withdraw 按份额占比提取两侧储备，向下取整，提取量不可能超过当前储备。
// 任一侧实际提取量低于声明的下限则整笔拒绝，状态不变。
func (l *LiquidityLedger) Withdraw(pool *Pool, position *LiquidityPosition, shares, minAmount0, minAmount1 decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if shares.Sign() <= 0 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: shares must be positive", ErrInvalidAmount)
	}
	if !pool.Initialized || pool.TotalShares.Sign() <= 0 {
		return decimal.Zero, decimal.Zero, ErrPoolNotInitialized
	}
	if shares.GreaterThan(position.Shares) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: position holds %s shares, requested %s",
			ErrInsufficientLiquidity, position.Shares, shares)
	}

	amount0, err := mulDivFloor(shares, pool.Reserve0, pool.TotalShares)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	amount1, err := mulDivFloor(shares, pool.Reserve1, pool.TotalShares)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if amount0.LessThan(minAmount0) || amount1.LessThan(minAmount1) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: withdrawal (%s, %s) below declared minimums (%s, %s)",
			ErrSlippageViolation, amount0, amount1, minAmount0, minAmount1)
	}

	pool.Reserve0 = pool.Reserve0.Sub(amount0)
	pool.Reserve1 = pool.Reserve1.Sub(amount1)
	pool.TotalShares = pool.TotalShares.Sub(shares)
	position.Shares = position.Shares.Sub(shares)

	return amount0, amount1, nil
}
