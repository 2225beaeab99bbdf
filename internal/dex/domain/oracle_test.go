package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func normalSample(price decimal.Decimal, ts int64) *ReferenceSample {
	return &ReferenceSample{
		PoolID:            "ETH-USDC-CONSTANT_PRODUCT",
		Price:             price,
		Confidence:        decimal.NewFromFloat(0.9),
		Regime:            RegimeNormal,
		ManipulationScore: decimal.Zero,
		Timestamp:         ts,
	}
}

func TestDampVacuousWithoutSample(t *testing.T) {
	damper := NewOracleDamper(200, 60)
	proposed := decimal.NewFromFloat(1.5)

	// 无样本、零价、过期样本：约束自然满足，原价返回
	assert.True(t, proposed.Equal(damper.Damp(proposed, nil, decimalOne, 100)))

	zero := normalSample(decimal.Zero, 100)
	assert.True(t, proposed.Equal(damper.Damp(proposed, zero, decimalOne, 100)))

	stale := normalSample(d(100), 10)
	assert.True(t, proposed.Equal(damper.Damp(proposed, stale, decimalOne, 100)))
}

func TestDampClampsToBand(t *testing.T) {
	// 基准 2%，NORMAL 状态，中性主导比：价带 [98, 102]
	damper := NewOracleDamper(200, 60)
	sample := normalSample(d(100), 100)

	assert.True(t, d(102).Equal(damper.Damp(d(105), sample, decimalOne, 100)))
	assert.True(t, d(98).Equal(damper.Damp(d(95), sample, decimalOne, 100)))
	assert.True(t, d(101).Equal(damper.Damp(d(101), sample, decimalOne, 100)))
	// 提议价等于参考价时恒等返回
	assert.True(t, d(100).Equal(damper.Damp(d(100), sample, decimalOne, 100)))
}

func TestAllowedDeviationRegimeMonotonic(t *testing.T) {
	damper := NewOracleDamper(200, 60)
	regimes := []Regime{RegimeCascade, RegimeManipulation, RegimeHighLeverage, RegimeNormal, RegimeTrend}

	var prev decimal.Decimal
	for i, regime := range regimes {
		sample := normalSample(d(100), 100)
		sample.Regime = regime
		budget := damper.AllowedDeviation(sample, decimalOne)
		if i > 0 {
			assert.True(t, budget.GreaterThanOrEqual(prev), "%s budget %s < previous %s", regime, budget, prev)
		}
		prev = budget
	}
}

func TestAllowedDeviationDominanceClamped(t *testing.T) {
	damper := NewOracleDamper(200, 60)
	sample := normalSample(d(100), 100)

	atCeil := damper.AllowedDeviation(sample, decimalTwo)
	beyondCeil := damper.AllowedDeviation(sample, d(10))
	assert.True(t, atCeil.Equal(beyondCeil))

	atFloor := damper.AllowedDeviation(sample, decimal.NewFromFloat(0.5))
	beyondFloor := damper.AllowedDeviation(sample, decimal.NewFromFloat(0.01))
	assert.True(t, atFloor.Equal(beyondFloor))

	assert.True(t, atCeil.GreaterThan(atFloor))
}

func TestAllowedDeviationManipulationShrinksBudget(t *testing.T) {
	damper := NewOracleDamper(200, 60)

	clean := normalSample(d(100), 100)
	dirty := normalSample(d(100), 100)
	dirty.ManipulationScore = decimal.NewFromFloat(0.8)
	certain := normalSample(d(100), 100)
	certain.ManipulationScore = decimalOne

	assert.True(t, damper.AllowedDeviation(dirty, decimalOne).LessThan(damper.AllowedDeviation(clean, decimalOne)))
	// 操纵评分为 1 时预算归零，提议价被钉在参考价上
	assert.True(t, damper.AllowedDeviation(certain, decimalOne).IsZero())
	assert.True(t, d(100).Equal(damper.Damp(d(123), certain, decimalOne, 100)))
}

func TestSampleFreshness(t *testing.T) {
	sample := normalSample(d(100), 100)
	assert.True(t, sample.IsFresh(100, 60))
	assert.True(t, sample.IsFresh(160, 60))
	assert.False(t, sample.IsFresh(161, 60))

	var missing *ReferenceSample
	assert.False(t, missing.IsFresh(100, 60))
}
