package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStableSwapValidateParams(t *testing.T) {
	curve := &StableSwapCurve{}
	assert.NoError(t, curve.ValidateParams(CurveParams{Amplification: 1}))
	assert.NoError(t, curve.ValidateParams(CurveParams{Amplification: 100}))
	assert.NoError(t, curve.ValidateParams(CurveParams{Amplification: 10000}))
	assert.ErrorIs(t, curve.ValidateParams(CurveParams{Amplification: 0}), ErrInvalidCurveParams)
	assert.ErrorIs(t, curve.ValidateParams(CurveParams{Amplification: 10001}), ErrInvalidCurveParams)
}

func TestStableSwapSolveDBalanced(t *testing.T) {
	curve := &StableSwapCurve{}
	// 等量储备时 D 恰好等于 x+y
	d2, err := curve.solveD(d(1_000_000), d(1_000_000), 100)
	require.NoError(t, err)
	assert.True(t, d(2_000_000).Equal(d2), "got %s", d2)
}

func TestStableSwapNearPegOutput(t *testing.T) {
	curve := &StableSwapCurve{}
	params := CurveParams{Amplification: 100}

	// 平衡池中的小额稳定币互换应接近 1:1
	out, err := curve.QuoteOutput(d(1000), d(1_000_000), d(1_000_000), 0, params)
	require.NoError(t, err)
	assert.True(t, out.LessThan(d(1000)), "got %s", out)
	assert.True(t, out.GreaterThan(d(990)), "got %s", out)
}

func TestStableSwapBeatsConstantProductOnLargeTrade(t *testing.T) {
	stable := &StableSwapCurve{}
	cp := &ConstantProductCurve{}

	amountIn := d(100_000)
	stableOut, err := stable.QuoteOutput(amountIn, d(1_000_000), d(1_000_000), 0, CurveParams{Amplification: 100})
	require.NoError(t, err)
	cpOut, err := cp.QuoteOutput(amountIn, d(1_000_000), d(1_000_000), 0, CurveParams{})
	require.NoError(t, err)

	assert.True(t, stableOut.GreaterThan(cpOut), "stable %s vs cp %s", stableOut, cpOut)
	assert.True(t, stableOut.LessThan(amountIn))
}

func TestStableSwapFeeApplied(t *testing.T) {
	curve := &StableSwapCurve{}
	params := CurveParams{Amplification: 100}

	noFee, err := curve.QuoteOutput(d(10_000), d(1_000_000), d(1_000_000), 0, params)
	require.NoError(t, err)
	withFee, err := curve.QuoteOutput(d(10_000), d(1_000_000), d(1_000_000), 30, params)
	require.NoError(t, err)

	expected, err := applyFeeFloor(noFee, 30)
	require.NoError(t, err)
	assert.True(t, expected.Equal(withFee), "expected %s, got %s", expected, withFee)
}

func TestStableSwapQuoteInputCoversOutput(t *testing.T) {
	curve := &StableSwapCurve{}
	params := CurveParams{Amplification: 50}
	reserveIn, reserveOut := d(5_000_000), d(3_000_000)

	for _, want := range []decimal.Decimal{d(100), d(10_000), d(500_000)} {
		in, err := curve.QuoteInput(want, reserveIn, reserveOut, 30, params)
		require.NoError(t, err)
		got, err := curve.QuoteOutput(in, reserveIn, reserveOut, 30, params)
		require.NoError(t, err)
		// 牛顿迭代收敛容差为 1，双程换算允许个位数级别的偏差
		assert.True(t, got.GreaterThanOrEqual(want.Sub(d(3))), "want %s, got %s for input %s", want, got, in)
		assert.True(t, got.LessThan(want.Add(d(100))), "want %s, got %s for input %s", want, got, in)
	}
}

func TestStableSwapRoundTripNeverCreatesValue(t *testing.T) {
	curve := &StableSwapCurve{}

	reserves := []struct{ r0, r1 decimal.Decimal }{
		{d(1_000_000), d(1_000_000)},
		{d(5_000_000), d(3_000_000)},
	}
	for _, amp := range []int64{1, 100, 5000} {
		params := CurveParams{Amplification: amp}
		for _, feeBps := range []int64{0, 30} {
			for _, rs := range reserves {
				for _, amountIn := range []decimal.Decimal{d(1000), d(50_000), d(400_000)} {
					out, err := curve.QuoteOutput(amountIn, rs.r0, rs.r1, feeBps, params)
					require.NoError(t, err)
					require.True(t, out.Sign() > 0)

					// 去程换仓后的储备再做回程，换回量不得超过原始输入
					back, err := curve.QuoteOutput(out, rs.r1.Sub(out), rs.r0.Add(amountIn), feeBps, params)
					require.NoError(t, err)
					assert.True(t, back.LessThanOrEqual(amountIn),
						"amp %d fee %d reserves (%s, %s) in %s: round trip returned %s",
						amp, feeBps, rs.r0, rs.r1, amountIn, back)
				}
			}
		}
	}
}

func TestStableSwapImbalancedPool(t *testing.T) {
	curve := &StableSwapCurve{}
	params := CurveParams{Amplification: 100}

	// 高度失衡的池仍能给出有限且守恒的报价
	out, err := curve.QuoteOutput(d(1000), d(10_000_000), d(100_000), 0, params)
	require.NoError(t, err)
	assert.True(t, out.Sign() > 0)
	assert.True(t, out.LessThan(d(100_000)))
}
