package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalPair(t *testing.T) {
	a, b := CanonicalPair("USDC", "ETH")
	assert.Equal(t, "ETH", a)
	assert.Equal(t, "USDC", b)

	// 两个方向得到同一个池 ID
	assert.Equal(t,
		PoolIDFor("ETH", "USDC", CurveConstantProduct),
		PoolIDFor("USDC", "ETH", CurveConstantProduct))
	// 同一资产对、不同曲线是不同的池
	assert.NotEqual(t,
		PoolIDFor("ETH", "USDC", CurveConstantProduct),
		PoolIDFor("ETH", "USDC", CurveStableSwap))
}

func TestNewPoolValidation(t *testing.T) {
	_, err := NewPool("ETH", "ETH", CurveConstantProduct, 30, CurveParams{}, 100, "c", 0)
	assert.ErrorIs(t, err, ErrInvalidCurveParams)

	_, err = NewPool("ETH", "USDC", CurveConstantProduct, 101, CurveParams{}, 100, "c", 0)
	assert.ErrorIs(t, err, ErrInvalidFee)

	_, err = NewPool("ETH", "USDC", CurveStableSwap, 30, CurveParams{Amplification: 0}, 100, "c", 0)
	assert.ErrorIs(t, err, ErrInvalidCurveParams)

	pool, err := NewPool("USDT", "USDC", CurveStableSwap, 4, CurveParams{Amplification: 200}, 100, "c", 0)
	require.NoError(t, err)
	assert.Equal(t, "USDC", pool.Asset0)
	assert.Equal(t, int64(200), pool.Amplification)
}

func TestSetAmplification(t *testing.T) {
	stable, err := NewPool("USDT", "USDC", CurveStableSwap, 4, CurveParams{Amplification: 200}, 100, "c", 0)
	require.NoError(t, err)

	require.NoError(t, stable.SetAmplification(500))
	assert.Equal(t, int64(500), stable.Amplification)

	// 越界系数被拒绝，原值保留
	assert.ErrorIs(t, stable.SetAmplification(0), ErrInvalidCurveParams)
	assert.ErrorIs(t, stable.SetAmplification(10001), ErrInvalidCurveParams)
	assert.Equal(t, int64(500), stable.Amplification)

	// 恒定乘积池没有放大系数
	cp := settledPool(t)
	assert.ErrorIs(t, cp.SetAmplification(100), ErrInvalidCurveParams)
}

func TestApplyReserveDeltaGuardsPositivity(t *testing.T) {
	pool := settledPool(t)

	err := pool.ApplyReserveDelta(d(-1_000_000), d(0))
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
	// 失败时储备不变
	assert.True(t, d(1_000_000).Equal(pool.Reserve0))

	require.NoError(t, pool.ApplyReserveDelta(d(1000), d(-500)))
	assert.True(t, d(1_001_000).Equal(pool.Reserve0))
	assert.True(t, d(999_500).Equal(pool.Reserve1))
}

func TestReservesFor(t *testing.T) {
	pool := settledPool(t)
	pool.Reserve1 = d(2_000_000)

	in, out, err := pool.ReservesFor("ETH")
	require.NoError(t, err)
	assert.True(t, d(1_000_000).Equal(in))
	assert.True(t, d(2_000_000).Equal(out))

	in, out, err = pool.ReservesFor("USDC")
	require.NoError(t, err)
	assert.True(t, d(2_000_000).Equal(in))
	assert.True(t, d(1_000_000).Equal(out))

	_, _, err = pool.ReservesFor("DOGE")
	assert.ErrorIs(t, err, ErrUnknownAsset)
}
