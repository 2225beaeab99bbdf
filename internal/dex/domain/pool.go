package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Pool 流动性池聚合根。
// 储备只允许两个写入方：ClearingEngine（批次结算）与 LiquidityLedger（存取流动性），
// 其余组件一律只读。
type Pool struct {
	PoolID string
	// Asset0 / Asset1 资产标识，按字典序规范化存储
	Asset0 string
	Asset1 string
	// Reserve0 / Reserve1 储备量（1e18 基数单位非负整数）
	Reserve0 decimal.Decimal
	Reserve1 decimal.Decimal
	// TotalShares 流动性份额总供给
	TotalShares decimal.Decimal
	// FeeBps 手续费率（基点）
	FeeBps int64
	// CurveKind 曲线类型，创建后不可变
	CurveKind CurveKind
	// Amplification 稳定曲线放大系数
	Amplification int64
	// Initialized 首次注资后置位
	Initialized bool
	// CreatedBy 创建者
	CreatedBy string
	CreatedAt int64
}

// PoolIDFor 由无序资产对与曲线类型构造规范化池 ID
func PoolIDFor(assetA, assetB string, kind CurveKind) string {
	a0, a1 := CanonicalPair(assetA, assetB)
	return fmt.Sprintf("%s-%s-%s", a0, a1, kind)
}

// CanonicalPair 按字典序规范化资产对
func CanonicalPair(assetA, assetB string) (string, string) {
	if strings.Compare(assetA, assetB) > 0 {
		return assetB, assetA
	}
	return assetA, assetB
}

// NewPool 创建新池。曲线参数与手续费在此处一次性校验，交易路径不再重复。
func NewPool(assetA, assetB string, kind CurveKind, feeBps int64, params CurveParams, maxFeeBps int64, creator string, now int64) (*Pool, error) {
	if assetA == "" || assetB == "" || assetA == assetB {
		return nil, fmt.Errorf("%w: invalid asset pair (%q, %q)", ErrInvalidCurveParams, assetA, assetB)
	}
	if feeBps < 0 || feeBps > maxFeeBps {
		return nil, fmt.Errorf("%w: fee %d bps exceeds protocol maximum %d", ErrInvalidFee, feeBps, maxFeeBps)
	}
	engine, err := CurveFor(kind)
	if err != nil {
		return nil, err
	}
	if err := engine.ValidateParams(params); err != nil {
		return nil, err
	}

	a0, a1 := CanonicalPair(assetA, assetB)
	return &Pool{
		PoolID:        PoolIDFor(a0, a1, kind),
		Asset0:        a0,
		Asset1:        a1,
		Reserve0:      decimal.Zero,
		Reserve1:      decimal.Zero,
		TotalShares:   decimal.Zero,
		FeeBps:        feeBps,
		CurveKind:     kind,
		Amplification: params.Amplification,
		Initialized:   false,
		CreatedBy:     creator,
		CreatedAt:     now,
	}, nil
}

// Curve 返回该池绑定的曲线引擎
func (p *Pool) Curve() (CurveEngine, error) {
	return CurveFor(p.CurveKind)
}

// Params 返回该池的曲线参数
func (p *Pool) Params() CurveParams {
	return CurveParams{Amplification: p.Amplification}
}

// SetAmplification 调整稳定曲线放大系数，仅对 STABLESWAP 池有意义
func (p *Pool) SetAmplification(amplification int64) error {
	if p.CurveKind != CurveStableSwap {
		return fmt.Errorf("%w: pool %s uses curve %s", ErrInvalidCurveParams, p.PoolID, p.CurveKind)
	}
	engine, err := p.Curve()
	if err != nil {
		return err
	}
	if err := engine.ValidateParams(CurveParams{Amplification: amplification}); err != nil {
		return err
	}
	p.Amplification = amplification
	return nil
}

// ContainsAsset 判断资产是否属于该池
func (p *Pool) ContainsAsset(asset string) bool {
	return asset == p.Asset0 || asset == p.Asset1
}

// ReservesFor 按输入资产返回 (输入侧储备, 输出侧储备)
func (p *Pool) ReservesFor(assetIn string) (decimal.Decimal, decimal.Decimal, error) {
	switch assetIn {
	case p.Asset0:
		return p.Reserve0, p.Reserve1, nil
	case p.Asset1:
		return p.Reserve1, p.Reserve0, nil
	default:
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %s not in pool %s", ErrUnknownAsset, assetIn, p.PoolID)
	}
}

// QuoteOutput 只读报价，不改变任何状态
func (p *Pool) QuoteOutput(assetIn string, amountIn decimal.Decimal) (decimal.Decimal, error) {
	if !p.Initialized {
		return decimal.Zero, ErrPoolNotInitialized
	}
	reserveIn, reserveOut, err := p.ReservesFor(assetIn)
	if err != nil {
		return decimal.Zero, err
	}
	engine, err := p.Curve()
	if err != nil {
		return decimal.Zero, err
	}
	return engine.QuoteOutput(amountIn, reserveIn, reserveOut, p.FeeBps, p.Params())
}

// ApplyReserveDelta 一次性套用批次净流量。结算后两侧储备必须仍严格为正。
func (p *Pool) ApplyReserveDelta(delta0, delta1 decimal.Decimal) error {
	next0 := p.Reserve0.Add(delta0)
	next1 := p.Reserve1.Add(delta1)
	if next0.Sign() <= 0 || next1.Sign() <= 0 {
		return fmt.Errorf("%w: reserves would become non-positive (%s, %s)",
			ErrInsufficientLiquidity, next0, next1)
	}
	p.Reserve0 = next0
	p.Reserve1 = next1
	return nil
}
