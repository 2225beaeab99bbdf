package domain

import (
	"github.com/shopspring/decimal"
)

// 所有金额均为 1e18 基数单位的非负整数，用 decimal 承载以避免机器字长溢出。
// 涉及除法的地方必须显式选择舍入方向：给用户的量向下取整，向用户收的量向上取整。

var (
	bpsDenominator = decimal.NewFromInt(10000)
	decimalOne     = decimal.NewFromInt(1)
	decimalTwo     = decimal.NewFromInt(2)
)

// pricePrecision 价格类中间量保留的小数位数
const pricePrecision = 18

// mulDivFloor 计算 floor(a*b/c)，操作数必须非负且 c 非零
func mulDivFloor(a, b, c decimal.Decimal) (decimal.Decimal, error) {
	if a.IsNegative() || b.IsNegative() || c.Sign() <= 0 {
		return decimal.Zero, ErrArithmetic
	}
	q, _ := a.Mul(b).QuoRem(c, 0)
	return q, nil
}

// mulDivCeil 计算 ceil(a*b/c)，操作数必须非负且 c 非零
func mulDivCeil(a, b, c decimal.Decimal) (decimal.Decimal, error) {
	if a.IsNegative() || b.IsNegative() || c.Sign() <= 0 {
		return decimal.Zero, ErrArithmetic
	}
	q, r := a.Mul(b).QuoRem(c, 0)
	if !r.IsZero() {
		q = q.Add(decimalOne)
	}
	return q, nil
}

// floorDiv 计算 floor(a/b)，操作数必须非负且 b 非零
func floorDiv(a, b decimal.Decimal) (decimal.Decimal, error) {
	if a.IsNegative() || b.Sign() <= 0 {
		return decimal.Zero, ErrArithmetic
	}
	q, _ := a.QuoRem(b, 0)
	return q, nil
}

// applyFeeFloor 对 amount 应用 feeBps 折扣并向下取整
func applyFeeFloor(amount decimal.Decimal, feeBps int64) (decimal.Decimal, error) {
	keep := decimal.NewFromInt(10000 - feeBps)
	return mulDivFloor(amount, keep, bpsDenominator)
}

// clampDecimal 将 v 限制在 [lo, hi] 区间内
func clampDecimal(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

// absDiff 返回 |a-b|
func absDiff(a, b decimal.Decimal) decimal.Decimal {
	return a.Sub(b).Abs()
}
