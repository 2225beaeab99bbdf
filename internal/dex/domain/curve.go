// Package domain 结算核心的领域模型：曲线引擎、批次拍卖、统一清算与防护机制
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CurveKind 曲线类型标签，池创建时选定，之后不可变更
type CurveKind string

const (
	// CurveConstantProduct 恒定乘积曲线 x*y=k
	CurveConstantProduct CurveKind = "CONSTANT_PRODUCT"
	// CurveStableSwap 稳定资产曲线（StableSwap 不变量）
	CurveStableSwap CurveKind = "STABLESWAP"
)

// CurveParams 曲线附加参数
type CurveParams struct {
	// Amplification 放大系数，仅稳定曲线使用，合法区间 [1, 10000]
	Amplification int64
}

// CurveEngine 曲线引擎能力接口。实现必须是纯函数式的：
// 不持有状态，相同输入永远产生相同输出。
type CurveEngine interface {
	Kind() CurveKind
	// QuoteOutput 给定输入量与储备，计算可得输出量（手续费已扣除，向下取整）
	QuoteOutput(amountIn, reserveIn, reserveOut decimal.Decimal, feeBps int64, params CurveParams) (decimal.Decimal, error)
	// QuoteInput 给定期望输出量，反解所需输入量（向上取整，保证输入足额）
	QuoteInput(amountOut, reserveIn, reserveOut decimal.Decimal, feeBps int64, params CurveParams) (decimal.Decimal, error)
	// ValidateParams 校验曲线参数，池创建时调用；交易路径不再重复校验
	ValidateParams(params CurveParams) error
}

var curveRegistry = map[CurveKind]CurveEngine{
	CurveConstantProduct: &ConstantProductCurve{},
	CurveStableSwap:      &StableSwapCurve{},
}

// CurveFor 按类型标签查找曲线引擎
func CurveFor(kind CurveKind) (CurveEngine, error) {
	engine, ok := curveRegistry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown curve kind %q", ErrInvalidCurveParams, kind)
	}
	return engine, nil
}

// ConstantProductCurve 恒定乘积曲线实现
type ConstantProductCurve struct{}

// Kind 返回曲线类型
func (c *ConstantProductCurve) Kind() CurveKind { return CurveConstantProduct }

// ValidateParams 恒定乘积曲线无附加参数
func (c *ConstantProductCurve) ValidateParams(params CurveParams) error {
	return nil
}

// QuoteOutput 计算 floor(amountIn*(10000-fee)*reserveOut / (reserveIn*10000 + amountIn*(10000-fee)))。
// 分母恒大于分子中 reserveOut 的系数，故任意有限正输入下输出严格小于 reserveOut，池不可能被抽干。
func (c *ConstantProductCurve) QuoteOutput(amountIn, reserveIn, reserveOut decimal.Decimal, feeBps int64, params CurveParams) (decimal.Decimal, error) {
	if err := validateSwapArgs(amountIn, reserveIn, reserveOut, feeBps); err != nil {
		return decimal.Zero, err
	}
	keep := decimal.NewFromInt(10000 - feeBps)
	amountInWithFee := amountIn.Mul(keep)
	denominator := reserveIn.Mul(bpsDenominator).Add(amountInWithFee)
	return mulDivFloor(amountInWithFee, reserveOut, denominator)
}

// QuoteInput 代数逆运算并向上取整：算出的输入量保证至少换得请求的输出量
func (c *ConstantProductCurve) QuoteInput(amountOut, reserveIn, reserveOut decimal.Decimal, feeBps int64, params CurveParams) (decimal.Decimal, error) {
	if err := validateSwapArgs(amountOut, reserveIn, reserveOut, feeBps); err != nil {
		return decimal.Zero, err
	}
	if amountOut.GreaterThanOrEqual(reserveOut) {
		return decimal.Zero, fmt.Errorf("%w: requested output %s >= reserve %s",
			ErrInsufficientLiquidity, amountOut, reserveOut)
	}
	keep := decimal.NewFromInt(10000 - feeBps)
	numerator := reserveIn.Mul(bpsDenominator).Mul(amountOut)
	denominator := reserveOut.Sub(amountOut).Mul(keep)
	return mulDivCeil(numerator, decimalOne, denominator)
}

// validateSwapArgs 交易路径的公共参数校验
func validateSwapArgs(amount, reserveIn, reserveOut decimal.Decimal, feeBps int64) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return ErrPoolNotInitialized
	}
	if feeBps < 0 || feeBps >= 10000 {
		return fmt.Errorf("%w: fee %d bps", ErrInvalidFee, feeBps)
	}
	return nil
}
