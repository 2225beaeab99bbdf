package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestConstantProductQuoteOutput(t *testing.T) {
	curve := &ConstantProductCurve{}
	params := CurveParams{}

	// 1000 入，储备 1M/1M，30bps 手续费
	out, err := curve.QuoteOutput(d(1000), d(1_000_000), d(1_000_000), 30, params)
	require.NoError(t, err)
	assert.True(t, d(996).Equal(out), "got %s", out)

	// 零费率
	out, err = curve.QuoteOutput(d(1000), d(1_000_000), d(1_000_000), 0, params)
	require.NoError(t, err)
	assert.True(t, d(999).Equal(out), "got %s", out)
}

func TestConstantProductNeverDrainsReserve(t *testing.T) {
	curve := &ConstantProductCurve{}
	reserveOut := d(1_000_000)

	// 再大的输入也换不空对侧储备
	huge := decimal.New(1, 30)
	out, err := curve.QuoteOutput(huge, d(1_000_000), reserveOut, 0, CurveParams{})
	require.NoError(t, err)
	assert.True(t, out.LessThan(reserveOut))
}

func TestConstantProductFeeMonotonicity(t *testing.T) {
	curve := &ConstantProductCurve{}
	params := CurveParams{}
	fees := []int64{0, 1, 5, 30, 100, 500}

	for _, amountIn := range []decimal.Decimal{d(1), d(1000), d(250_000)} {
		prev := decimal.Zero
		for i, feeBps := range fees {
			out, err := curve.QuoteOutput(amountIn, d(1_000_000), d(1_000_000), feeBps, params)
			require.NoError(t, err)
			if i > 0 {
				// 费率只升不降时，输出只会更少
				assert.True(t, out.LessThanOrEqual(prev),
					"in %s: fee %d gave %s, lower fee gave %s", amountIn, feeBps, out, prev)
			}
			prev = out
		}
	}
}

func TestConstantProductQuoteInputCoversOutput(t *testing.T) {
	curve := &ConstantProductCurve{}
	params := CurveParams{}
	reserveIn, reserveOut := d(1_000_000), d(1_000_000)

	for _, want := range []decimal.Decimal{d(1), d(996), d(50_000), d(999_999)} {
		in, err := curve.QuoteInput(want, reserveIn, reserveOut, 30, params)
		require.NoError(t, err)
		got, err := curve.QuoteOutput(in, reserveIn, reserveOut, 30, params)
		require.NoError(t, err)
		assert.True(t, got.GreaterThanOrEqual(want), "want %s, got %s for input %s", want, got, in)
	}
}

func TestConstantProductQuoteInputRejectsDrain(t *testing.T) {
	curve := &ConstantProductCurve{}
	_, err := curve.QuoteInput(d(1_000_000), d(1_000_000), d(1_000_000), 0, CurveParams{})
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestSwapArgValidation(t *testing.T) {
	curve := &ConstantProductCurve{}
	params := CurveParams{}

	_, err := curve.QuoteOutput(d(0), d(1000), d(1000), 0, params)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = curve.QuoteOutput(d(-5), d(1000), d(1000), 0, params)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = curve.QuoteOutput(d(10), d(0), d(1000), 0, params)
	assert.ErrorIs(t, err, ErrPoolNotInitialized)

	_, err = curve.QuoteOutput(d(10), d(1000), d(1000), 10000, params)
	assert.ErrorIs(t, err, ErrInvalidFee)
}

func TestCurveRegistry(t *testing.T) {
	engine, err := CurveFor(CurveConstantProduct)
	require.NoError(t, err)
	assert.Equal(t, CurveConstantProduct, engine.Kind())

	engine, err = CurveFor(CurveStableSwap)
	require.NoError(t, err)
	assert.Equal(t, CurveStableSwap, engine.Kind())

	_, err = CurveFor(CurveKind("BONDING"))
	assert.ErrorIs(t, err, ErrInvalidCurveParams)
}
