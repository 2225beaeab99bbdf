package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// settledPool 构造已注资的恒定乘积池（1M/1M，30bps）
func settledPool(t *testing.T) *Pool {
	t.Helper()
	pool, err := NewPool("ETH", "USDC", CurveConstantProduct, 30, CurveParams{}, 100, "creator", 1000)
	require.NoError(t, err)
	pool.Reserve0 = d(1_000_000)
	pool.Reserve1 = d(1_000_000)
	pool.TotalShares = d(1_000_000)
	pool.Initialized = true
	return pool
}

// settleBatchWith 把订单装入处于 SETTLE 阶段的批次
func settleBatchWith(t *testing.T, poolID string, orders ...*RevealedOrder) *Batch {
	t.Helper()
	b := NewBatch(poolID, 1, 1000, 30, 30)
	b.Phase = PhaseReveal
	for _, o := range orders {
		require.NoError(t, b.AdmitOrder(o))
	}
	b.Phase = PhaseSettle
	return b
}

// feelessPool 构造小储备零费率池，便于直接核对曲线腿的数值
func feelessPool(t *testing.T) *Pool {
	t.Helper()
	pool, err := NewPool("ETH", "USDC", CurveConstantProduct, 0, CurveParams{}, 100, "creator", 1000)
	require.NoError(t, err)
	pool.Reserve0 = d(10_000)
	pool.Reserve1 = d(10_000)
	pool.TotalShares = d(10_000)
	pool.Initialized = true
	return pool
}

func order(id, trader, assetIn, assetOut string, amountIn, minOut int64) *RevealedOrder {
	return &RevealedOrder{
		CommitmentID: id,
		PoolID:       "ETH-USDC-CONSTANT_PRODUCT",
		BatchNumber:  1,
		OrderFields: OrderFields{
			Trader:       trader,
			AssetIn:      assetIn,
			AssetOut:     assetOut,
			AmountIn:     d(amountIn),
			MinAmountOut: d(minOut),
		},
	}
}

func TestSettlePerfectNetting(t *testing.T) {
	pool := settledPool(t)
	engine := NewClearingEngine(NewOracleDamper(200, 60))

	// 双向流量完全对冲：无人承担曲线滑点，只扣协议费
	batch := settleBatchWith(t, pool.PoolID,
		order("C-1", "alice", "ETH", "USDC", 1000, 990),
		order("C-2", "bob", "USDC", "ETH", 1000, 990),
	)

	result, err := engine.SettleBatch(pool, batch, nil, 2000)
	require.NoError(t, err)

	assert.True(t, decimalOne.Equal(result.ClearingPrice), "price %s", result.ClearingPrice)
	assert.Equal(t, 0, result.ExcludedCount)

	byID := fillsByCommitment(result)
	assert.True(t, d(997).Equal(byID["C-1"].AmountOut), "alice got %s", byID["C-1"].AmountOut)
	assert.True(t, d(997).Equal(byID["C-2"].AmountOut), "bob got %s", byID["C-2"].AmountOut)

	assert.True(t, d(3).Equal(result.TreasuryFee0))
	assert.True(t, d(3).Equal(result.TreasuryFee1))

	// 对冲量全部在中点成交：储备不动
	assert.True(t, d(1_000_000).Equal(pool.Reserve0))
	assert.True(t, d(1_000_000).Equal(pool.Reserve1))
}

func TestSettleUniformPriceIndependentOfRevealOrder(t *testing.T) {
	engine := NewClearingEngine(NewOracleDamper(200, 60))

	poolA := settledPool(t)
	batchA := settleBatchWith(t, poolA.PoolID,
		order("C-1", "alice", "ETH", "USDC", 1000, 0),
		order("C-2", "bob", "USDC", "ETH", 1000, 0),
		order("C-3", "carol", "ETH", "USDC", 500, 0),
	)
	resultA, err := engine.SettleBatch(poolA, batchA, nil, 2000)
	require.NoError(t, err)

	poolB := settledPool(t)
	batchB := settleBatchWith(t, poolB.PoolID,
		order("C-3", "carol", "ETH", "USDC", 500, 0),
		order("C-2", "bob", "USDC", "ETH", 1000, 0),
		order("C-1", "alice", "ETH", "USDC", 1000, 0),
	)
	resultB, err := engine.SettleBatch(poolB, batchB, nil, 2000)
	require.NoError(t, err)

	// 揭示顺序不改变清算价，也不改变任何人的成交量
	assert.True(t, resultA.ClearingPrice.Equal(resultB.ClearingPrice))
	fillsA, fillsB := fillsByCommitment(resultA), fillsByCommitment(resultB)
	for id := range fillsA {
		assert.True(t, fillsA[id].AmountOut.Equal(fillsB[id].AmountOut),
			"%s: %s vs %s", id, fillsA[id].AmountOut, fillsB[id].AmountOut)
	}
}

func TestSettleImbalancedBatchPricesCurveLeg(t *testing.T) {
	engine := NewClearingEngine(NewOracleDamper(200, 60))

	run := func(orders ...*RevealedOrder) *BatchSwapResult {
		pool := feelessPool(t)
		batch := settleBatchWith(t, pool.PoolID, orders...)
		result, err := engine.SettleBatch(pool, batch, nil, 2000)
		require.NoError(t, err)
		return result
	}

	forward := run(
		order("C-1", "alice", "ETH", "USDC", 1000, 0),
		order("C-2", "bob", "USDC", "ETH", 3000, 0),
		order("C-3", "carol", "USDC", "ETH", 3000, 0),
	)

	// asset1 侧残差 5000 经曲线换得 3333，加上对冲的 1000，
	// 清算价必须是混合执行价 6000/4333，而不是现货中点 1
	wantPrice := d(6000).DivRound(d(4333), pricePrecision)
	assert.True(t, wantPrice.Equal(forward.ClearingPrice), "price %s", forward.ClearingPrice)

	byID := fillsByCommitment(forward)
	// 同价同量的订单分得完全相同的成交量
	assert.True(t, byID["C-2"].AmountOut.Equal(byID["C-3"].AmountOut),
		"bob %s vs carol %s", byID["C-2"].AmountOut, byID["C-3"].AmountOut)
	assert.True(t, d(2166).Equal(byID["C-2"].AmountOut), "bob got %s", byID["C-2"].AmountOut)
	assert.True(t, d(1000).Equal(byID["C-1"].AmountOut), "alice got %s", byID["C-1"].AmountOut)

	reversed := run(
		order("C-3", "carol", "USDC", "ETH", 3000, 0),
		order("C-2", "bob", "USDC", "ETH", 3000, 0),
		order("C-1", "alice", "ETH", "USDC", 1000, 0),
	)
	assert.True(t, forward.ClearingPrice.Equal(reversed.ClearingPrice))
	revByID := fillsByCommitment(reversed)
	for id := range byID {
		assert.True(t, byID[id].AmountOut.Equal(revByID[id].AmountOut),
			"%s: %s vs %s", id, byID[id].AmountOut, revByID[id].AmountOut)
	}
}

func TestSettleImbalancedBatchScalesNettedSideProRata(t *testing.T) {
	engine := NewClearingEngine(NewOracleDamper(200, 60))

	run := func(orders ...*RevealedOrder) *BatchSwapResult {
		pool := feelessPool(t)
		batch := settleBatchWith(t, pool.PoolID, orders...)
		result, err := engine.SettleBatch(pool, batch, nil, 2000)
		require.NoError(t, err)
		return result
	}

	forward := run(
		order("C-1", "alice", "ETH", "USDC", 6000, 0),
		order("C-2", "bob", "USDC", "ETH", 500, 0),
		order("C-3", "carol", "USDC", "ETH", 500, 0),
	)

	// 残差在 asset0 侧：混合价 4333/6000，低于现货中点
	wantPrice := d(4333).DivRound(d(6000), pricePrecision)
	assert.True(t, wantPrice.Equal(forward.ClearingPrice), "price %s", forward.ClearingPrice)

	byID := fillsByCommitment(forward)
	// 对冲侧预算 1000：两笔等量订单各分一半，绝不是先到先得
	assert.True(t, d(500).Equal(byID["C-2"].AmountOut), "bob got %s", byID["C-2"].AmountOut)
	assert.True(t, d(500).Equal(byID["C-3"].AmountOut), "carol got %s", byID["C-3"].AmountOut)
	assert.True(t, d(4333).Equal(byID["C-1"].AmountOut), "alice got %s", byID["C-1"].AmountOut)

	reversed := run(
		order("C-3", "carol", "USDC", "ETH", 500, 0),
		order("C-2", "bob", "USDC", "ETH", 500, 0),
		order("C-1", "alice", "ETH", "USDC", 6000, 0),
	)
	revByID := fillsByCommitment(reversed)
	for id := range byID {
		assert.True(t, byID[id].AmountOut.Equal(revByID[id].AmountOut),
			"%s: %s vs %s", id, byID[id].AmountOut, revByID[id].AmountOut)
	}
}

func TestSettleSlippageExclusionAndRecompute(t *testing.T) {
	pool := settledPool(t)
	engine := NewClearingEngine(NewOracleDamper(200, 60))

	// carol 的最小输出不可能满足：被排除后其余订单按纯对冲重算
	batch := settleBatchWith(t, pool.PoolID,
		order("C-1", "alice", "ETH", "USDC", 1000, 990),
		order("C-2", "bob", "USDC", "ETH", 1000, 990),
		order("C-3", "carol", "ETH", "USDC", 1000, 1500),
	)

	result, err := engine.SettleBatch(pool, batch, nil, 2000)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ExcludedCount)
	byID := fillsByCommitment(result)
	assert.True(t, byID["C-3"].Excluded)
	assert.True(t, byID["C-3"].AmountOut.IsZero())

	// 排除后回到完全对冲的均衡
	assert.True(t, decimalOne.Equal(result.ClearingPrice))
	assert.True(t, d(997).Equal(byID["C-1"].AmountOut))
	assert.True(t, d(997).Equal(byID["C-2"].AmountOut))
	assert.True(t, d(1_000_000).Equal(pool.Reserve0))
}

func TestSettleWrongAssetExcluded(t *testing.T) {
	pool := settledPool(t)
	engine := NewClearingEngine(NewOracleDamper(200, 60))

	batch := settleBatchWith(t, pool.PoolID,
		order("C-1", "alice", "ETH", "USDC", 1000, 0),
		order("C-2", "mallory", "DOGE", "USDC", 1000, 0),
	)

	result, err := engine.SettleBatch(pool, batch, nil, 2000)
	require.NoError(t, err)

	byID := fillsByCommitment(result)
	assert.True(t, byID["C-2"].Excluded)
	assert.False(t, byID["C-1"].Excluded)
	assert.Equal(t, 1, result.ExcludedCount)
}

func TestSettleEmptyBatch(t *testing.T) {
	pool := settledPool(t)
	engine := NewClearingEngine(NewOracleDamper(200, 60))
	batch := settleBatchWith(t, pool.PoolID)

	result, err := engine.SettleBatch(pool, batch, nil, 2000)
	require.NoError(t, err)

	// 空批次：清算价记录为现货中点，储备不动
	assert.True(t, decimalOne.Equal(result.ClearingPrice))
	assert.Empty(t, result.Fills)
	assert.True(t, d(1_000_000).Equal(pool.Reserve0))
	assert.True(t, d(1_000_000).Equal(pool.Reserve1))
}

func TestSettleOneSidedFlowMovesReserves(t *testing.T) {
	pool := settledPool(t)
	engine := NewClearingEngine(NewOracleDamper(200, 60))

	batch := settleBatchWith(t, pool.PoolID,
		order("C-1", "alice", "ETH", "USDC", 10_000, 0),
	)

	result, err := engine.SettleBatch(pool, batch, nil, 2000)
	require.NoError(t, err)

	// 单向流量全额走曲线：税前执行价 9900/10000
	assert.True(t, decimal.NewFromFloat(0.99).Equal(result.ClearingPrice), "price %s", result.ClearingPrice)
	byID := fillsByCommitment(result)
	assert.True(t, d(9870).Equal(byID["C-1"].AmountOut), "got %s", byID["C-1"].AmountOut)

	// 对冲量为零：协议费为零，曲线费留在储备里
	assert.True(t, result.TreasuryFee0.IsZero())
	assert.True(t, result.TreasuryFee1.IsZero())
	assert.True(t, d(1_010_000).Equal(pool.Reserve0))
	assert.True(t, d(990_130).Equal(pool.Reserve1))
}

func TestSettleDampedPrice(t *testing.T) {
	pool := settledPool(t)
	// 紧预算：10bps 基准
	engine := NewClearingEngine(NewOracleDamper(10, 60))

	sample := &ReferenceSample{
		PoolID:    pool.PoolID,
		Price:     decimalOne,
		Regime:    RegimeNormal,
		Timestamp: 2000,
	}

	batch := settleBatchWith(t, pool.PoolID,
		order("C-1", "alice", "ETH", "USDC", 10_000, 0),
	)

	result, err := engine.SettleBatch(pool, batch, sample, 2000)
	require.NoError(t, err)

	// 单侧主导把预算放大到 2 倍：价带 [0.998, 1.002]，0.99 被夹到下沿
	assert.True(t, decimal.NewFromFloat(0.998).Equal(result.ClearingPrice), "price %s", result.ClearingPrice)

	// 分配仍受含费曲线输出的上限约束
	byID := fillsByCommitment(result)
	assert.True(t, d(9871).Equal(byID["C-1"].AmountOut), "got %s", byID["C-1"].AmountOut)
}

func TestSettlePriorityOrderingUnderScarcity(t *testing.T) {
	pool := settledPool(t)
	engine := NewClearingEngine(NewOracleDamper(10, 60))

	// 参考价把清算价夹到上沿，名义应得超过可分发上限
	sample := &ReferenceSample{
		PoolID:    pool.PoolID,
		Price:     decimal.NewFromFloat(1.05),
		Regime:    RegimeNormal,
		Timestamp: 2000,
	}

	alice := order("C-1", "alice", "ETH", "USDC", 5000, 0)
	bob := order("C-2", "bob", "ETH", "USDC", 5000, 0)
	bob.Priority = true

	batch := settleBatchWith(t, pool.PoolID, alice, bob)
	result, err := engine.SettleBatch(pool, batch, sample, 2000)
	require.NoError(t, err)

	byID := fillsByCommitment(result)
	// 优先单先领满额，普通单领剩余预算
	assert.True(t, byID["C-2"].AmountOut.GreaterThan(byID["C-1"].AmountOut),
		"priority %s vs normal %s", byID["C-2"].AmountOut, byID["C-1"].AmountOut)
	total := byID["C-1"].AmountOut.Add(byID["C-2"].AmountOut)
	assert.True(t, d(9871).Equal(total), "total %s", total)
}

func TestSettleRequiresSettlePhase(t *testing.T) {
	pool := settledPool(t)
	engine := NewClearingEngine(NewOracleDamper(200, 60))

	batch := NewBatch(pool.PoolID, 1, 1000, 30, 30)
	_, err := engine.SettleBatch(pool, batch, nil, 2000)
	assert.ErrorIs(t, err, ErrPhaseViolation)
}

func TestSettleRequiresInitializedPool(t *testing.T) {
	pool, err := NewPool("ETH", "USDC", CurveConstantProduct, 30, CurveParams{}, 100, "creator", 1000)
	require.NoError(t, err)
	engine := NewClearingEngine(NewOracleDamper(200, 60))
	batch := settleBatchWith(t, pool.PoolID)

	_, err = engine.SettleBatch(pool, batch, nil, 2000)
	assert.ErrorIs(t, err, ErrPoolNotInitialized)
}

func TestSpotMidPrice(t *testing.T) {
	pool := settledPool(t)
	pool.Reserve1 = d(2_000_000)

	mid, err := SpotMidPrice(pool)
	require.NoError(t, err)
	assert.True(t, decimalTwo.Equal(mid))

	uninitialized, err := NewPool("A", "B", CurveConstantProduct, 0, CurveParams{}, 100, "c", 0)
	require.NoError(t, err)
	_, err = SpotMidPrice(uninitialized)
	assert.ErrorIs(t, err, ErrPoolNotInitialized)
}

func fillsByCommitment(result *BatchSwapResult) map[string]*OrderFill {
	byID := make(map[string]*OrderFill, len(result.Fills))
	for _, f := range result.Fills {
		byID[f.CommitmentID] = f
	}
	return byID
}
