package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T) *Pool {
	t.Helper()
	pool, err := NewPool("ETH", "USDC", CurveConstantProduct, 30, CurveParams{}, 100, "creator", 1000)
	require.NoError(t, err)
	return pool
}

func TestInitialDeposit(t *testing.T) {
	pool := newTestPool(t)
	ledger := NewLiquidityLedger()

	result, err := ledger.Deposit(pool, d(1_000_000), d(4_000_000), decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	assert.True(t, pool.Initialized)
	assert.True(t, d(1_000_000).Equal(pool.Reserve0))
	assert.True(t, d(4_000_000).Equal(pool.Reserve1))
	assert.True(t, d(1_000_000).Equal(pool.TotalShares))
	assert.True(t, d(999_000).Equal(result.SharesMinted))
	assert.True(t, MinimumLiquidityShares.Equal(result.SharesLocked))
	assert.True(t, result.Refund0.IsZero())
	assert.True(t, result.Refund1.IsZero())
}

func TestInitialDepositTooSmall(t *testing.T) {
	pool := newTestPool(t)
	ledger := NewLiquidityLedger()

	_, err := ledger.Deposit(pool, d(1000), d(1000), decimal.Zero, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.False(t, pool.Initialized)
}

func TestProportionalDeposit(t *testing.T) {
	pool := newTestPool(t)
	ledger := NewLiquidityLedger()
	_, err := ledger.Deposit(pool, d(1_000_000), d(4_000_000), decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	result, err := ledger.Deposit(pool, d(100_000), d(400_000), decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	assert.True(t, d(100_000).Equal(result.SharesMinted))
	assert.True(t, d(100_000).Equal(result.Amount0))
	assert.True(t, d(400_000).Equal(result.Amount1))
	assert.True(t, result.Refund0.IsZero())
	assert.True(t, result.Refund1.IsZero())
	assert.True(t, d(1_100_000).Equal(pool.TotalShares))
}

func TestLopsidedDepositRefundsExcess(t *testing.T) {
	pool := newTestPool(t)
	ledger := NewLiquidityLedger()
	_, err := ledger.Deposit(pool, d(1_000_000), d(4_000_000), decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	// asset1 侧多带了一倍，限制侧是 asset0
	result, err := ledger.Deposit(pool, d(100_000), d(800_000), decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	assert.True(t, d(100_000).Equal(result.SharesMinted))
	assert.True(t, d(100_000).Equal(result.Amount0))
	assert.True(t, d(400_000).Equal(result.Amount1))
	assert.True(t, d(400_000).Equal(result.Refund1))
	assert.True(t, result.Refund0.IsZero())
}

func TestDepositZeroRejected(t *testing.T) {
	pool := newTestPool(t)
	ledger := NewLiquidityLedger()

	_, err := ledger.Deposit(pool, decimal.Zero, d(100), decimal.Zero, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestWithdrawProRata(t *testing.T) {
	pool := newTestPool(t)
	ledger := NewLiquidityLedger()
	first, err := ledger.Deposit(pool, d(1_000_000), d(4_000_000), decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	position := &LiquidityPosition{
		PoolID:    pool.PoolID,
		Depositor: "alice",
		Shares:    first.SharesMinted,
	}

	amount0, amount1, err := ledger.Withdraw(pool, position, d(100_000), decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	assert.True(t, d(100_000).Equal(amount0))
	assert.True(t, d(400_000).Equal(amount1))
	assert.True(t, d(900_000).Equal(pool.TotalShares))
	assert.True(t, d(899_000).Equal(position.Shares))
	assert.True(t, d(900_000).Equal(pool.Reserve0))
	assert.True(t, d(3_600_000).Equal(pool.Reserve1))
}

func TestWithdrawMoreThanPosition(t *testing.T) {
	pool := newTestPool(t)
	ledger := NewLiquidityLedger()
	first, err := ledger.Deposit(pool, d(1_000_000), d(4_000_000), decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	position := &LiquidityPosition{PoolID: pool.PoolID, Depositor: "alice", Shares: first.SharesMinted}
	_, _, err = ledger.Withdraw(pool, position, first.SharesMinted.Add(decimalOne), decimal.Zero, decimal.Zero)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestDepositBelowMinimumsRejected(t *testing.T) {
	pool := newTestPool(t)
	ledger := NewLiquidityLedger()
	_, err := ledger.Deposit(pool, d(1_000_000), d(4_000_000), decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	// 限制侧是 asset0，asset1 只消耗 400000：低于声明下限即整笔拒绝
	_, err = ledger.Deposit(pool, d(100_000), d(800_000), decimal.Zero, d(500_000))
	assert.ErrorIs(t, err, ErrSlippageViolation)
	assert.True(t, d(1_000_000).Equal(pool.Reserve0))
	assert.True(t, d(4_000_000).Equal(pool.Reserve1))
	assert.True(t, d(1_000_000).Equal(pool.TotalShares))

	// 下限不高于实际消耗量则照常成交
	result, err := ledger.Deposit(pool, d(100_000), d(800_000), d(100_000), d(400_000))
	require.NoError(t, err)
	assert.True(t, d(400_000).Equal(result.Amount1))
}

func TestWithdrawBelowMinimumsRejected(t *testing.T) {
	pool := newTestPool(t)
	ledger := NewLiquidityLedger()
	first, err := ledger.Deposit(pool, d(1_000_000), d(4_000_000), decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	position := &LiquidityPosition{PoolID: pool.PoolID, Depositor: "alice", Shares: first.SharesMinted}

	// 100000 份额对应 (100000, 400000)，任一侧低于下限都拒绝且状态不变
	_, _, err = ledger.Withdraw(pool, position, d(100_000), d(100_001), decimal.Zero)
	assert.ErrorIs(t, err, ErrSlippageViolation)
	assert.True(t, d(1_000_000).Equal(pool.Reserve0))
	assert.True(t, first.SharesMinted.Equal(position.Shares))

	amount0, amount1, err := ledger.Withdraw(pool, position, d(100_000), d(100_000), d(400_000))
	require.NoError(t, err)
	assert.True(t, d(100_000).Equal(amount0))
	assert.True(t, d(400_000).Equal(amount1))
}

func TestSharesConservation(t *testing.T) {
	pool := newTestPool(t)
	ledger := NewLiquidityLedger()

	first, err := ledger.Deposit(pool, d(1_000_000), d(4_000_000), decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	second, err := ledger.Deposit(pool, d(300_000), d(1_200_000), decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	// 全部头寸份额之和等于总供给
	sum := first.SharesMinted.Add(first.SharesLocked).Add(second.SharesMinted)
	assert.True(t, sum.Equal(pool.TotalShares))
}
