package domain

import (
	"github.com/shopspring/decimal"
)

// Regime 外部预言机给出的市场状态分类，由紧到松排序
type Regime string

const (
	RegimeCascade      Regime = "CASCADE"
	RegimeManipulation Regime = "MANIPULATION"
	RegimeHighLeverage Regime = "HIGH_LEVERAGE"
	RegimeNormal       Regime = "NORMAL"
	RegimeTrend        Regime = "TREND"
)

// regimeScaleBps 各状态对基准偏离预算的缩放（bps，10000 = 不缩放）。
// 顺序单调：CASCADE 最紧，TREND 最松。
var regimeScaleBps = map[Regime]int64{
	RegimeCascade:      2500,
	RegimeManipulation: 4000,
	RegimeHighLeverage: 6000,
	RegimeNormal:       10000,
	RegimeTrend:        12000,
}

// ReferenceSample 外部预言机提供的参考价样本，核心只读
type ReferenceSample struct {
	PoolID string
	// Price 参考价（asset1 / asset0，18 位小数）
	Price decimal.Decimal
	// Confidence 置信度 [0,1]
	Confidence decimal.Decimal
	// DeviationZScore 偏离 z 分数
	DeviationZScore decimal.Decimal
	// Regime 市场状态分类
	Regime Regime
	// ManipulationScore 操纵可能性评分 [0,1]
	ManipulationScore decimal.Decimal
	// Timestamp 采样时间（unix 秒），同一池内非递减
	Timestamp int64
}

// IsFresh 样本是否仍在可信时长内
func (s *ReferenceSample) IsFresh(now, maxAge int64) bool {
	if s == nil {
		return false
	}
	return now-s.Timestamp <= maxAge
}

// 主导比的对称夹取边界：一侧主导收紧预算，另一侧主导放宽，围绕 1 对称
var (
	dominanceScaleFloor = decimal.NewFromFloat(0.5)
	dominanceScaleCeil  = decimal.NewFromInt(2)
)

// OracleDamper 参考价阻尼器。
// 对提议的清算价施加 [ref*(1-band), ref*(1+band)] 价带，越界夹取到边沿，
// 永不拒绝——系统总能产出可用的清算价。
type OracleDamper struct {
	// BaseDeviationBps 基准最大偏离预算（bps）
	BaseDeviationBps int64
	// MaxSampleAge 参考价最大可信时长（秒）
	MaxSampleAge int64
}

// NewOracleDamper 创建阻尼器
func NewOracleDamper(baseDeviationBps, maxSampleAge int64) *OracleDamper {
	return &OracleDamper{
		BaseDeviationBps: baseDeviationBps,
		MaxSampleAge:     maxSampleAge,
	}
}

// AllowedDeviation 计算本次结算允许的偏离预算（小数比例，如 0.02 = 2%）。
// 预算 = 基准 × 状态缩放 × 主导比缩放 × (1 - 操纵评分)，逐项单调。
func (d *OracleDamper) AllowedDeviation(sample *ReferenceSample, dominance decimal.Decimal) decimal.Decimal {
	budget := decimal.NewFromInt(d.BaseDeviationBps).Div(bpsDenominator)

	if scale, ok := regimeScaleBps[sample.Regime]; ok {
		budget = budget.Mul(decimal.NewFromInt(scale)).Div(bpsDenominator)
	}

	if dominance.Sign() > 0 {
		budget = budget.Mul(clampDecimal(dominance, dominanceScaleFloor, dominanceScaleCeil))
	}

	manipulation := clampDecimal(sample.ManipulationScore, decimal.Zero, decimalOne)
	budget = budget.Mul(decimalOne.Sub(manipulation))

	if budget.IsNegative() {
		return decimal.Zero
	}
	return budget
}

// Damp 将提议的清算价夹取到参考价带内。
// 参考价缺失或为零时视为约束自然满足（退化为纯曲线定价）。
// 性质：对提议价单调；提议价等于参考价时恒等返回。
func (d *OracleDamper) Damp(proposed decimal.Decimal, sample *ReferenceSample, dominance decimal.Decimal, now int64) decimal.Decimal {
	if sample == nil || sample.Price.Sign() <= 0 || !sample.IsFresh(now, d.MaxSampleAge) {
		return proposed
	}

	band := sample.Price.Mul(d.AllowedDeviation(sample, dominance))
	lower := sample.Price.Sub(band)
	upper := sample.Price.Add(band)
	if lower.IsNegative() {
		lower = decimal.Zero
	}
	return clampDecimal(proposed, lower, upper)
}
