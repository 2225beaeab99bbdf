package domain

import (
	"github.com/shopspring/decimal"
)

// OrderFill 单笔订单的执行结果
type OrderFill struct {
	CommitmentID string
	Trader       string
	AssetIn      string
	AmountIn     decimal.Decimal
	// AmountOut 实际分得的输出量。被排除的订单为零。
	AmountOut decimal.Decimal
	// Excluded 因滑点保护被排除出本批次（保证金原样退还）
	Excluded bool
	Priority bool
}

// BatchSwapResult 批次结算结果
type BatchSwapResult struct {
	PoolID      string
	BatchNumber int64
	// ClearingPrice 统一清算价（asset1/asset0，税前，已阻尼）
	ClearingPrice decimal.Decimal
	// TotalIn0 / TotalIn1 双向消耗的输入总量
	TotalIn0 decimal.Decimal
	TotalIn1 decimal.Decimal
	// TotalOut0 / TotalOut1 双向分发的输出总量
	TotalOut0 decimal.Decimal
	TotalOut1 decimal.Decimal
	// TreasuryFee0 / TreasuryFee1 中点对冲部分产生的协议费，推送给金库
	TreasuryFee0 decimal.Decimal
	TreasuryFee1 decimal.Decimal
	// ExcludedCount 被排除的订单数
	ExcludedCount int
	Fills         []*OrderFill
}

// ClearingEngine 批次统一清算引擎。
// 同批次所有订单以同一清算价成交，揭示顺序不影响任何人的价格与成交量——
// 这是协议对抢跑/三明治攻击的核心缓解手段。
type ClearingEngine struct {
	damper *OracleDamper
}

// NewClearingEngine 创建清算引擎
func NewClearingEngine(damper *OracleDamper) *ClearingEngine {
	return &ClearingEngine{damper: damper}
}

// clearingPlan 一轮清算试算的中间结果
type clearingPlan struct {
	price        decimal.Decimal // 税前清算价（已阻尼）
	fills        []*OrderFill
	newExclusion bool
	totalIn0     decimal.Decimal
	totalIn1     decimal.Decimal
	totalOut0    decimal.Decimal
	totalOut1    decimal.Decimal
	treasuryFee0 decimal.Decimal
	treasuryFee1 decimal.Decimal
}

// SettleBatch 结算一个批次：
//  1. 按方向分组并在税前中点价内部对冲，较小一侧全额对冲，不收取曲线滑点；
//  2. 仅剩余的单向量经曲线引擎对储备执行，得到税前清算价；
//  3. 清算价经参考价阻尼器夹取；
//  4. 全部订单按同一清算价折算名义应得；输出预算不足时优先单层级先占，
//     同层级内按名义应得占比缩减；低于订单最小可接受输出的订单被排除并重算；
//  5. 对储备套用一次净流量。
//
// 排除的订单不消耗任何输入，循环重算保证最终价格只由实际成交的订单决定。
func (e *ClearingEngine) SettleBatch(pool *Pool, batch *Batch, sample *ReferenceSample, now int64) (*BatchSwapResult, error) {
	if err := batch.RequirePhase(PhaseSettle); err != nil {
		return nil, err
	}
	if !pool.Initialized {
		return nil, ErrPoolNotInitialized
	}

	excluded := make(map[string]*OrderFill)
	included := make([]*RevealedOrder, 0, len(batch.Orders))
	for _, order := range batch.Orders {
		if !pool.ContainsAsset(order.AssetIn) || !pool.ContainsAsset(order.AssetOut) {
			excluded[order.CommitmentID] = &OrderFill{
				CommitmentID: order.CommitmentID,
				Trader:       order.Trader,
				AssetIn:      order.AssetIn,
				AmountIn:     order.AmountIn,
				AmountOut:    decimal.Zero,
				Excluded:     true,
				Priority:     order.Priority,
			}
			continue
		}
		included = append(included, order)
	}

	var plan *clearingPlan
	// 每轮至少排除一单，循环必然在 len(orders)+1 轮内收敛
	for round := 0; round <= len(batch.Orders); round++ {
		var err error
		plan, err = e.computePlan(pool, included, sample, now)
		if err != nil {
			return nil, err
		}
		if !plan.newExclusion {
			break
		}
		next := included[:0]
		for i, fill := range plan.fills {
			if fill.Excluded {
				excluded[fill.CommitmentID] = fill
				continue
			}
			next = append(next, included[i])
		}
		included = next
	}

	if plan.totalIn0.Sign() > 0 || plan.totalIn1.Sign() > 0 {
		delta0 := plan.totalIn0.Sub(plan.totalOut0).Sub(plan.treasuryFee0)
		delta1 := plan.totalIn1.Sub(plan.totalOut1).Sub(plan.treasuryFee1)
		if err := pool.ApplyReserveDelta(delta0, delta1); err != nil {
			return nil, err
		}
	}

	fills := make([]*OrderFill, 0, len(plan.fills)+len(excluded))
	fills = append(fills, plan.fills...)
	for _, fill := range excluded {
		fills = append(fills, fill)
	}

	return &BatchSwapResult{
		PoolID:        pool.PoolID,
		BatchNumber:   batch.Number,
		ClearingPrice: plan.price,
		TotalIn0:      plan.totalIn0,
		TotalIn1:      plan.totalIn1,
		TotalOut0:     plan.totalOut0,
		TotalOut1:     plan.totalOut1,
		TreasuryFee0:  plan.treasuryFee0,
		TreasuryFee1:  plan.treasuryFee1,
		ExcludedCount: len(excluded),
		Fills:         fills,
	}, nil
}

// computePlan 对给定订单集试算一轮清算
func (e *ClearingEngine) computePlan(pool *Pool, orders []*RevealedOrder, sample *ReferenceSample, now int64) (*clearingPlan, error) {
	engine, err := pool.Curve()
	if err != nil {
		return nil, err
	}
	params := pool.Params()
	r0, r1 := pool.Reserve0, pool.Reserve1

	totalIn0, totalIn1 := decimal.Zero, decimal.Zero
	for _, order := range orders {
		if order.AssetIn == pool.Asset0 {
			totalIn0 = totalIn0.Add(order.AmountIn)
		} else {
			totalIn1 = totalIn1.Add(order.AmountIn)
		}
	}

	// 中点对冲：把 asset1 侧输入折算到 asset0 口径，较小侧全额对冲
	in1AsAsset0, err := mulDivFloor(totalIn1, r0, r1)
	if err != nil {
		return nil, err
	}
	var matched0, matched1, residual0, residual1 decimal.Decimal
	if totalIn0.LessThanOrEqual(in1AsAsset0) {
		matched0 = totalIn0
		if matched1, err = mulDivFloor(totalIn0, r1, r0); err != nil {
			return nil, err
		}
		residual0 = decimal.Zero
		residual1 = totalIn1.Sub(matched1)
	} else {
		matched0 = in1AsAsset0
		matched1 = totalIn1
		residual0 = totalIn0.Sub(matched0)
		residual1 = decimal.Zero
	}

	// 仅剩余单向量走曲线；税前报价用于定价，含费报价用于可分发上限
	grossNoFee1, grossWithFee1 := decimal.Zero, decimal.Zero
	if residual0.Sign() > 0 {
		if grossNoFee1, err = engine.QuoteOutput(residual0, r0, r1, 0, params); err != nil {
			return nil, err
		}
		if grossWithFee1, err = engine.QuoteOutput(residual0, r0, r1, pool.FeeBps, params); err != nil {
			return nil, err
		}
	}
	grossNoFee0, grossWithFee0 := decimal.Zero, decimal.Zero
	if residual1.Sign() > 0 {
		if grossNoFee0, err = engine.QuoteOutput(residual1, r1, r0, 0, params); err != nil {
			return nil, err
		}
		if grossWithFee0, err = engine.QuoteOutput(residual1, r1, r0, pool.FeeBps, params); err != nil {
			return nil, err
		}
	}

	price := e.grossPrice(r0, r1, totalIn0, totalIn1, matched0, matched1, grossNoFee0, grossNoFee1, residual1)
	dominance := dominanceRatio(totalIn0, in1AsAsset0)
	price = e.damper.Damp(price, sample, dominance, now)

	keep := decimal.NewFromInt(10000 - pool.FeeBps)
	treasuryFee1, err := mulDivFloor(matched1, decimal.NewFromInt(pool.FeeBps), bpsDenominator)
	if err != nil {
		return nil, err
	}
	treasuryFee0, err := mulDivFloor(matched0, decimal.NewFromInt(pool.FeeBps), bpsDenominator)
	if err != nil {
		return nil, err
	}
	// 可分发上限：对冲量扣协议费，加上曲线腿的含费输出
	cap1 := matched1.Sub(treasuryFee1).Add(grossWithFee1)
	cap0 := matched0.Sub(treasuryFee0).Add(grossWithFee0)

	// 名义应得：双向都按同一清算价折算，再扣池费率
	wants := make([]decimal.Decimal, len(orders))
	for i, order := range orders {
		if order.AssetIn == pool.Asset0 {
			// 输出 asset1：in * price * (1-fee)
			wants[i], err = mulDivFloor(order.AmountIn.Mul(price), keep, bpsDenominator)
		} else if price.Sign() > 0 {
			// 输出 asset0：in * (1-fee) / price
			wants[i], err = mulDivFloor(order.AmountIn, keep, price.Mul(bpsDenominator))
		} else {
			wants[i] = decimal.Zero
		}
		if err != nil {
			return nil, err
		}
	}

	// 优先单层级先占预算，同层级内按名义应得占比缩减，
	// 每一层的分配结果只取决于订单集合本身，与揭示顺序无关
	gives := make([]decimal.Decimal, len(orders))
	budget0, budget1 := cap0, cap1
	for _, tier := range []bool{true, false} {
		if budget1, err = allocateTier(orders, wants, gives, pool.Asset0, tier, budget1); err != nil {
			return nil, err
		}
		if budget0, err = allocateTier(orders, wants, gives, pool.Asset1, tier, budget0); err != nil {
			return nil, err
		}
	}

	fills := make([]*OrderFill, len(orders))
	newExclusion := false
	totalOut0, totalOut1 := decimal.Zero, decimal.Zero
	for i, order := range orders {
		fill := e.buildFill(order, gives[i])
		if fill.Excluded {
			newExclusion = true
		} else if order.AssetIn == pool.Asset0 {
			totalOut1 = totalOut1.Add(fill.AmountOut)
		} else {
			totalOut0 = totalOut0.Add(fill.AmountOut)
		}
		fills[i] = fill
	}

	plan := &clearingPlan{
		price:        price,
		fills:        fills,
		newExclusion: newExclusion,
		totalIn0:     decimal.Zero,
		totalIn1:     decimal.Zero,
		totalOut0:    totalOut0,
		totalOut1:    totalOut1,
		treasuryFee0: treasuryFee0,
		treasuryFee1: treasuryFee1,
	}
	// 被排除订单的输入不计入净流量
	for i, order := range orders {
		if fills[i].Excluded {
			continue
		}
		if order.AssetIn == pool.Asset0 {
			plan.totalIn0 = plan.totalIn0.Add(order.AmountIn)
		} else {
			plan.totalIn1 = plan.totalIn1.Add(order.AmountIn)
		}
	}
	if newExclusion {
		// 本轮有排除，费用与净流量以下一轮重算为准
		plan.treasuryFee0 = decimal.Zero
		plan.treasuryFee1 = decimal.Zero
	}
	return plan, nil
}

// buildFill 构建单笔成交，分配量低于订单声明的最小输出则排除
func (e *ClearingEngine) buildFill(order *RevealedOrder, give decimal.Decimal) *OrderFill {
	fill := &OrderFill{
		CommitmentID: order.CommitmentID,
		Trader:       order.Trader,
		AssetIn:      order.AssetIn,
		AmountIn:     order.AmountIn,
		AmountOut:    give,
		Priority:     order.Priority,
	}
	if give.LessThan(order.MinAmountOut) {
		fill.Excluded = true
		fill.AmountOut = decimal.Zero
	}
	return fill
}

// grossPrice 税前清算价（asset1/asset0）：
// 对冲量按中点计价，曲线腿按税前执行价计价，两者沿承载残差的一侧混合。
// 残差在 asset1 侧时，asset1 总流入换得的 asset0 是对冲量加曲线腿输出；
// 残差在 asset0 侧（或为零）时对称。
func (e *ClearingEngine) grossPrice(r0, r1, totalIn0, totalIn1, matched0, matched1, grossNoFee0, grossNoFee1, residual1 decimal.Decimal) decimal.Decimal {
	switch {
	case residual1.Sign() > 0:
		out0 := matched0.Add(grossNoFee0)
		if out0.Sign() <= 0 {
			return decimal.Zero
		}
		return totalIn1.DivRound(out0, pricePrecision)
	case totalIn0.Sign() > 0:
		return matched1.Add(grossNoFee1).DivRound(totalIn0, pricePrecision)
	default:
		// 空批次：清算价记录为现货中点
		return r1.DivRound(r0, pricePrecision)
	}
}

// allocateTier 在单个输出方向与优先层级内分配预算：
// 名义应得之和不超预算则足额分配，超出则各单按应得占比缩减（向下取整）。
// 返回该层级消耗后剩余的预算。
func allocateTier(orders []*RevealedOrder, wants, gives []decimal.Decimal, assetIn string, priority bool, budget decimal.Decimal) (decimal.Decimal, error) {
	sum := decimal.Zero
	for i, order := range orders {
		if order.AssetIn != assetIn || order.Priority != priority {
			continue
		}
		sum = sum.Add(wants[i])
	}
	if sum.Sign() <= 0 {
		return budget, nil
	}
	if sum.LessThanOrEqual(budget) {
		for i, order := range orders {
			if order.AssetIn == assetIn && order.Priority == priority {
				gives[i] = wants[i]
			}
		}
		return budget.Sub(sum), nil
	}

	spent := decimal.Zero
	for i, order := range orders {
		if order.AssetIn != assetIn || order.Priority != priority {
			continue
		}
		give, err := mulDivFloor(wants[i], budget, sum)
		if err != nil {
			return decimal.Zero, err
		}
		gives[i] = give
		spent = spent.Add(give)
	}
	return budget.Sub(spent), nil
}

// dominanceRatio 参考资产主导比：asset0 侧流入 / asset1 侧流入（asset0 口径），中性为 1
func dominanceRatio(totalIn0, in1AsAsset0 decimal.Decimal) decimal.Decimal {
	switch {
	case totalIn0.Sign() > 0 && in1AsAsset0.Sign() > 0:
		return totalIn0.DivRound(in1AsAsset0, pricePrecision)
	case totalIn0.Sign() > 0:
		return dominanceScaleCeil
	case in1AsAsset0.Sign() > 0:
		return dominanceScaleFloor
	default:
		return decimalOne
	}
}

// SpotMidPrice 现货中点价（asset1/asset0）
func SpotMidPrice(pool *Pool) (decimal.Decimal, error) {
	if !pool.Initialized || pool.Reserve0.Sign() <= 0 {
		return decimal.Zero, ErrPoolNotInitialized
	}
	return pool.Reserve1.DivRound(pool.Reserve0, pricePrecision), nil
}
