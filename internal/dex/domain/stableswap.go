package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// newtonMaxIterations 牛顿迭代上限。打到上限视为收敛失败，
	// 直接拒绝交易，绝不返回不精确的近似值。
	newtonMaxIterations = 255
	// stableSwapCoins 双币池
	stableSwapCoins = 2
	// MinAmplification / MaxAmplification 放大系数的协议边界
	MinAmplification = 1
	MaxAmplification = 10000
)

// StableSwapCurve 稳定资产曲线实现。
// 不变量：A*n^n*(x+y) + D = A*n^n*D + D^3/(4xy)，n=2。
// D 和换仓后的对侧储备 y 均无闭式解，用牛顿迭代求根。
type StableSwapCurve struct{}

// Kind 返回曲线类型
func (c *StableSwapCurve) Kind() CurveKind { return CurveStableSwap }

// ValidateParams 池创建时校验放大系数，交易路径不再校验
func (c *StableSwapCurve) ValidateParams(params CurveParams) error {
	if params.Amplification < MinAmplification || params.Amplification > MaxAmplification {
		return fmt.Errorf("%w: amplification %d outside [%d, %d]",
			ErrInvalidCurveParams, params.Amplification, MinAmplification, MaxAmplification)
	}
	return nil
}

// QuoteOutput 先以当前储备解出 D，再在 D 不变的约束下解出输入侧增加后的对侧储备 y，
// 输出为储备差值扣减一个保护单位，最后应用与恒定乘积一致的乘法手续费折扣。
func (c *StableSwapCurve) QuoteOutput(amountIn, reserveIn, reserveOut decimal.Decimal, feeBps int64, params CurveParams) (decimal.Decimal, error) {
	if err := validateSwapArgs(amountIn, reserveIn, reserveOut, feeBps); err != nil {
		return decimal.Zero, err
	}

	d, err := c.solveD(reserveIn, reserveOut, params.Amplification)
	if err != nil {
		return decimal.Zero, err
	}
	newIn := reserveIn.Add(amountIn)
	newOut, err := c.solveY(newIn, d, params.Amplification)
	if err != nil {
		return decimal.Zero, err
	}

	grossOut := reserveOut.Sub(newOut).Sub(decimalOne) // 留 1 单位吸收取整误差
	if grossOut.Sign() <= 0 {
		return decimal.Zero, nil
	}
	return applyFeeFloor(grossOut, feeBps)
}

// QuoteInput 反向报价：先把期望输出换算回税前量（向上取整），
// 再解出目标对侧储备对应的输入侧储备。
func (c *StableSwapCurve) QuoteInput(amountOut, reserveIn, reserveOut decimal.Decimal, feeBps int64, params CurveParams) (decimal.Decimal, error) {
	if err := validateSwapArgs(amountOut, reserveIn, reserveOut, feeBps); err != nil {
		return decimal.Zero, err
	}
	keep := decimal.NewFromInt(10000 - feeBps)
	grossOut, err := mulDivCeil(amountOut, bpsDenominator, keep)
	if err != nil {
		return decimal.Zero, err
	}
	grossOut = grossOut.Add(decimalOne)
	if grossOut.GreaterThanOrEqual(reserveOut) {
		return decimal.Zero, fmt.Errorf("%w: requested output %s >= reserve %s",
			ErrInsufficientLiquidity, amountOut, reserveOut)
	}

	d, err := c.solveD(reserveIn, reserveOut, params.Amplification)
	if err != nil {
		return decimal.Zero, err
	}
	newOut := reserveOut.Sub(grossOut)
	newIn, err := c.solveY(newOut, d, params.Amplification)
	if err != nil {
		return decimal.Zero, err
	}

	amountIn := newIn.Sub(reserveIn).Add(decimalOne)
	if amountIn.Sign() <= 0 {
		amountIn = decimalOne
	}
	return amountIn, nil
}

// solveD 从储备 (x, y) 解不变量 D。
// 迭代式：D_{k+1} = (ann*S + n*Dp) * D_k / ((ann-1)*D_k + (n+1)*Dp)，
// 其中 Dp = D^3/(n^n*x*y)，初值取 S = x+y。相邻迭代差 ≤ 1 视为收敛。
func (c *StableSwapCurve) solveD(x, y decimal.Decimal, amplification int64) (decimal.Decimal, error) {
	if x.Sign() <= 0 || y.Sign() <= 0 {
		return decimal.Zero, ErrPoolNotInitialized
	}
	n := decimal.NewFromInt(stableSwapCoins)
	ann := decimal.NewFromInt(amplification * stableSwapCoins * stableSwapCoins)
	s := x.Add(y)

	d := s
	for i := 0; i < newtonMaxIterations; i++ {
		dp := d
		var err error
		if dp, err = mulDivFloor(dp, d, x.Mul(n)); err != nil {
			return decimal.Zero, err
		}
		if dp, err = mulDivFloor(dp, d, y.Mul(n)); err != nil {
			return decimal.Zero, err
		}

		numerator := ann.Mul(s).Add(dp.Mul(n)).Mul(d)
		denominator := ann.Sub(decimalOne).Mul(d).Add(dp.Mul(n.Add(decimalOne)))
		next, err := floorDiv(numerator, denominator)
		if err != nil {
			return decimal.Zero, err
		}

		if absDiff(next, d).LessThanOrEqual(decimalOne) {
			return next, nil
		}
		d = next
	}
	return decimal.Zero, fmt.Errorf("%w: solveD after %d iterations", ErrConvergenceFailure, newtonMaxIterations)
}

// solveY 在 D 固定的约束下，由已知一侧储备 x 解另一侧储备 y。
// 方程整理为 y^2 + (b - D)*y = c，其中 b = x + D/ann，c = D^3/(n^2*x*ann)，
// 牛顿迭代 y_{k+1} = (y_k^2 + c) / (2*y_k + b - D)，初值取 D。
func (c *StableSwapCurve) solveY(x, d decimal.Decimal, amplification int64) (decimal.Decimal, error) {
	if x.Sign() <= 0 || d.Sign() <= 0 {
		return decimal.Zero, ErrArithmetic
	}
	n := decimal.NewFromInt(stableSwapCoins)
	ann := decimal.NewFromInt(amplification * stableSwapCoins * stableSwapCoins)

	cTerm, err := mulDivFloor(d, d, x.Mul(n))
	if err != nil {
		return decimal.Zero, err
	}
	if cTerm, err = mulDivFloor(cTerm, d, ann.Mul(n)); err != nil {
		return decimal.Zero, err
	}
	dOverAnn, err := floorDiv(d, ann)
	if err != nil {
		return decimal.Zero, err
	}
	b := x.Add(dOverAnn)

	y := d
	for i := 0; i < newtonMaxIterations; i++ {
		numerator := y.Mul(y).Add(cTerm)
		denominator := y.Mul(decimalTwo).Add(b).Sub(d)
		if denominator.Sign() <= 0 {
			return decimal.Zero, ErrArithmetic
		}
		next, err := floorDiv(numerator, denominator)
		if err != nil {
			return decimal.Zero, err
		}

		if absDiff(next, y).LessThanOrEqual(decimalOne) {
			return next, nil
		}
		y = next
	}
	return decimal.Zero, fmt.Errorf("%w: solveY after %d iterations", ErrConvergenceFailure, newtonMaxIterations)
}
