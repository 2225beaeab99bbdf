package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/dexsettlement/internal/dex/domain"
	"github.com/wyfcoding/dexsettlement/pkg/idgen"
	"github.com/wyfcoding/dexsettlement/pkg/logger"
)

// ServiceConfig 应用层配置
type ServiceConfig struct {
	// CommitDuration / RevealDuration 批次阶段时长（秒）
	CommitDuration int64
	RevealDuration int64
	// MinBond 承诺最小保证金
	MinBond decimal.Decimal
	// MaxFeeBps 协议允许的最高池费率
	MaxFeeBps int64
	// MinAmplification / MaxAmplification 稳定曲线放大系数的协议边界，
	// 零值回落到曲线引擎的绝对边界
	MinAmplification int64
	MaxAmplification int64
	// Executors 允许执行结算的账户
	Executors []string
	// Admins 允许调整协议参数与重置熔断器的账户
	Admins []string
}

// Repositories 聚合全部仓储端口
type Repositories struct {
	Pools       domain.PoolRepository
	Commitments domain.CommitmentRepository
	Batches     domain.BatchRepository
	Positions   domain.PositionRepository
	Bonds       domain.BondRepository
	Oracle      domain.OracleRepository
}

// DexService 结算核心应用服务，编排领域对象并维护事务边界
type DexService struct {
	repos     Repositories
	uow       domain.UnitOfWork
	publisher domain.EventPublisher
	clock     domain.Clock
	clearing  *domain.ClearingEngine
	ledger    *domain.LiquidityLedger
	validator *domain.RevealValidator
	breaker   *domain.CircuitBreaker

	cfg       ServiceConfig
	executors map[string]bool
	admins    map[string]bool

	// 管理员可在线调整的阶段时长，新开批次生效
	durationMu     sync.RWMutex
	commitDuration int64
	revealDuration int64
}

// NewDexService 创建应用服务
func NewDexService(
	repos Repositories,
	uow domain.UnitOfWork,
	publisher domain.EventPublisher,
	clock domain.Clock,
	breaker *domain.CircuitBreaker,
	damper *domain.OracleDamper,
	cfg ServiceConfig,
) *DexService {
	executors := make(map[string]bool, len(cfg.Executors))
	for _, e := range cfg.Executors {
		executors[e] = true
	}
	admins := make(map[string]bool, len(cfg.Admins))
	for _, a := range cfg.Admins {
		admins[a] = true
	}
	if cfg.MinAmplification <= 0 {
		cfg.MinAmplification = domain.MinAmplification
	}
	if cfg.MaxAmplification <= 0 {
		cfg.MaxAmplification = domain.MaxAmplification
	}
	return &DexService{
		repos:          repos,
		uow:            uow,
		publisher:      publisher,
		clock:          clock,
		clearing:       domain.NewClearingEngine(damper),
		ledger:         domain.NewLiquidityLedger(),
		validator:      domain.NewRevealValidator(),
		breaker:        breaker,
		cfg:            cfg,
		executors:      executors,
		admins:         admins,
		commitDuration: cfg.CommitDuration,
		revealDuration: cfg.RevealDuration,
	}
}

// phaseDurations 返回当前生效的阶段时长
func (s *DexService) phaseDurations() (int64, int64) {
	s.durationMu.RLock()
	defer s.durationMu.RUnlock()
	return s.commitDuration, s.revealDuration
}

// checkAmplification 校验协议配置的放大系数边界，可比曲线引擎的绝对边界更严
func (s *DexService) checkAmplification(amplification int64) error {
	if amplification < s.cfg.MinAmplification || amplification > s.cfg.MaxAmplification {
		return fmt.Errorf("%w: amplification %d outside protocol bounds [%d, %d]",
			domain.ErrInvalidCurveParams, amplification, s.cfg.MinAmplification, s.cfg.MaxAmplification)
	}
	return nil
}

// CreatePool 创建资金池并开启其第一个批次
func (s *DexService) CreatePool(ctx context.Context, req *CreatePoolRequest) (*PoolDTO, error) {
	if domain.CurveKind(req.CurveKind) == domain.CurveStableSwap {
		if err := s.checkAmplification(req.Amplification); err != nil {
			return nil, err
		}
	}
	now := s.clock.Now()
	pool, err := domain.NewPool(
		req.AssetA, req.AssetB,
		domain.CurveKind(req.CurveKind),
		req.FeeBps,
		domain.CurveParams{Amplification: req.Amplification},
		s.cfg.MaxFeeBps,
		req.Creator,
		now,
	)
	if err != nil {
		return nil, err
	}

	err = s.uow.Execute(ctx, func(txCtx context.Context) error {
		existing, err := s.repos.Pools.FindByID(txCtx, pool.PoolID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %s", domain.ErrPoolExists, pool.PoolID)
		}
		if err := s.repos.Pools.Save(txCtx, pool); err != nil {
			return err
		}
		commitDur, revealDur := s.phaseDurations()
		first := domain.NewBatch(pool.PoolID, 1, now, commitDur, revealDur)
		return s.repos.Batches.Save(txCtx, first)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, &domain.PoolCreatedEvent{
		BaseEvent: s.baseEvent(domain.EventPoolCreated, pool.PoolID, now),
		Asset0:    pool.Asset0,
		Asset1:    pool.Asset1,
		CurveKind: string(pool.CurveKind),
		FeeBps:    pool.FeeBps,
		CreatedBy: pool.CreatedBy,
	})

	logger.Info(ctx, "pool created", "pool_id", pool.PoolID, "curve", pool.CurveKind, "fee_bps", pool.FeeBps)
	return toPoolDTO(pool), nil
}

// Deposit 注入流动性
func (s *DexService) Deposit(ctx context.Context, req *DepositRequest) (*DepositDTO, error) {
	amount0, err := decimal.NewFromString(req.Amount0)
	if err != nil {
		return nil, fmt.Errorf("%w: amount0 %q", domain.ErrInvalidAmount, req.Amount0)
	}
	amount1, err := decimal.NewFromString(req.Amount1)
	if err != nil {
		return nil, fmt.Errorf("%w: amount1 %q", domain.ErrInvalidAmount, req.Amount1)
	}
	min0, err := parseMinAmount("min_amount0", req.MinAmount0)
	if err != nil {
		return nil, err
	}
	min1, err := parseMinAmount("min_amount1", req.MinAmount1)
	if err != nil {
		return nil, err
	}
	if err := s.breaker.Check(req.PoolID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var result *domain.DepositResult
	err = s.uow.Execute(ctx, func(txCtx context.Context) error {
		pool, err := s.findPool(txCtx, req.PoolID)
		if err != nil {
			return err
		}

		result, err = s.ledger.Deposit(pool, amount0, amount1, min0, min1)
		if err != nil {
			return err
		}

		position, err := s.repos.Positions.Find(txCtx, req.PoolID, req.Depositor)
		if err != nil {
			return err
		}
		if position == nil {
			position = &domain.LiquidityPosition{PoolID: req.PoolID, Depositor: req.Depositor, Shares: decimal.Zero}
		}
		position.Shares = position.Shares.Add(result.SharesMinted)
		position.LastDepositAt = now
		if err := s.repos.Positions.Save(txCtx, position); err != nil {
			return err
		}

		// 首次注资的最小份额记入销毁地址，保持份额守恒
		if result.SharesLocked.Sign() > 0 {
			sink := &domain.LiquidityPosition{
				PoolID:        req.PoolID,
				Depositor:     domain.BurnSink,
				Shares:        result.SharesLocked,
				LastDepositAt: now,
			}
			if err := s.repos.Positions.Save(txCtx, sink); err != nil {
				return err
			}
		}

		return s.repos.Pools.Save(txCtx, pool)
	})
	if err != nil {
		return nil, err
	}

	s.breaker.NoteDeposit(req.PoolID, req.Depositor, now)
	s.publish(ctx, &domain.LiquidityChangedEvent{
		BaseEvent: s.baseEvent(domain.EventLiquidityChanged, req.PoolID, now),
		Depositor: req.Depositor,
		Direction: "DEPOSIT",
		Amount0:   result.Amount0,
		Amount1:   result.Amount1,
		Shares:    result.SharesMinted,
	})

	return &DepositDTO{
		PoolID:       req.PoolID,
		Amount0:      result.Amount0.String(),
		Amount1:      result.Amount1.String(),
		SharesMinted: result.SharesMinted.String(),
		SharesLocked: result.SharesLocked.String(),
		Refund0:      result.Refund0.String(),
		Refund1:      result.Refund1.String(),
	}, nil
}

// Withdraw 提取流动性
func (s *DexService) Withdraw(ctx context.Context, req *WithdrawRequest) (*WithdrawDTO, error) {
	shares, err := decimal.NewFromString(req.Shares)
	if err != nil {
		return nil, fmt.Errorf("%w: shares %q", domain.ErrInvalidAmount, req.Shares)
	}
	min0, err := parseMinAmount("min_amount0", req.MinAmount0)
	if err != nil {
		return nil, err
	}
	min1, err := parseMinAmount("min_amount1", req.MinAmount1)
	if err != nil {
		return nil, err
	}
	if err := s.breaker.Check(req.PoolID); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err := s.breaker.CheckWithdraw(req.PoolID, req.Depositor, now); err != nil {
		return nil, err
	}

	var amount0, amount1 decimal.Decimal
	err = s.uow.Execute(ctx, func(txCtx context.Context) error {
		pool, err := s.findPool(txCtx, req.PoolID)
		if err != nil {
			return err
		}
		position, err := s.repos.Positions.Find(txCtx, req.PoolID, req.Depositor)
		if err != nil {
			return err
		}
		if position == nil {
			return fmt.Errorf("%w: no position for %s in pool %s",
				domain.ErrInsufficientLiquidity, req.Depositor, req.PoolID)
		}

		amount0, amount1, err = s.ledger.Withdraw(pool, position, shares, min0, min1)
		if err != nil {
			return err
		}
		if err := s.repos.Positions.Save(txCtx, position); err != nil {
			return err
		}
		return s.repos.Pools.Save(txCtx, pool)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, &domain.LiquidityChangedEvent{
		BaseEvent: s.baseEvent(domain.EventLiquidityChanged, req.PoolID, now),
		Depositor: req.Depositor,
		Direction: "WITHDRAW",
		Amount0:   amount0,
		Amount1:   amount1,
		Shares:    shares,
	})

	return &WithdrawDTO{
		PoolID:  req.PoolID,
		Amount0: amount0.String(),
		Amount1: amount1.String(),
	}, nil
}

// Quote 只读报价，不消耗状态
func (s *DexService) Quote(ctx context.Context, req *QuoteRequest) (*QuoteDTO, error) {
	amountIn, err := decimal.NewFromString(req.AmountIn)
	if err != nil {
		return nil, fmt.Errorf("%w: amount_in %q", domain.ErrInvalidAmount, req.AmountIn)
	}
	pool, err := s.findPool(ctx, req.PoolID)
	if err != nil {
		return nil, err
	}
	amountOut, err := pool.QuoteOutput(req.AssetIn, amountIn)
	if err != nil {
		return nil, err
	}
	return &QuoteDTO{
		PoolID:    req.PoolID,
		AssetIn:   req.AssetIn,
		AmountIn:  amountIn.String(),
		AmountOut: amountOut.String(),
	}, nil
}

// Commit 提交订单承诺，保证金随单缴纳
func (s *DexService) Commit(ctx context.Context, req *CommitRequest) (*CommitDTO, error) {
	bond, err := decimal.NewFromString(req.Bond)
	if err != nil {
		return nil, fmt.Errorf("%w: bond %q", domain.ErrInvalidAmount, req.Bond)
	}
	if bond.LessThan(s.cfg.MinBond) {
		return nil, fmt.Errorf("%w: bond %s below minimum %s", domain.ErrInsufficientBond, bond, s.cfg.MinBond)
	}

	now := s.clock.Now()
	commitmentID := fmt.Sprintf("C-%d", idgen.GenID())
	var batchNumber int64

	err = s.uow.Execute(ctx, func(txCtx context.Context) error {
		if _, err := s.findPool(txCtx, req.PoolID); err != nil {
			return err
		}
		batch, err := s.findCurrentBatch(txCtx, req.PoolID)
		if err != nil {
			return err
		}
		if err := batch.RequirePhase(domain.PhaseCommit); err != nil {
			return err
		}
		batchNumber = batch.Number

		commitment := &domain.OrderCommitment{
			CommitmentID: commitmentID,
			PoolID:       req.PoolID,
			BatchNumber:  batch.Number,
			Submitter:    req.Submitter,
			Hash:         req.Hash,
			Bond:         bond,
			Status:       domain.CommitmentCommitted,
			CreatedAt:    now,
		}
		if err := s.repos.Commitments.Save(txCtx, commitment); err != nil {
			return err
		}

		entry, err := domain.NewBondEntry(commitmentID, req.PoolID, req.Submitter, bond, now)
		if err != nil {
			return err
		}
		return s.repos.Bonds.Save(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	return &CommitDTO{
		CommitmentID: commitmentID,
		PoolID:       req.PoolID,
		BatchNumber:  batchNumber,
		Status:       string(domain.CommitmentCommitted),
	}, nil
}

// Reveal 揭示订单。只有所属批次处于 REVEAL 阶段时才允许。
func (s *DexService) Reveal(ctx context.Context, req *RevealRequest) (*RevealDTO, error) {
	amountIn, err := decimal.NewFromString(req.AmountIn)
	if err != nil {
		return nil, fmt.Errorf("%w: amount_in %q", domain.ErrInvalidAmount, req.AmountIn)
	}
	minOut, err := decimal.NewFromString(req.MinAmountOut)
	if err != nil {
		return nil, fmt.Errorf("%w: min_amount_out %q", domain.ErrInvalidAmount, req.MinAmountOut)
	}

	now := s.clock.Now()
	var dto *RevealDTO
	err = s.uow.Execute(ctx, func(txCtx context.Context) error {
		commitment, err := s.repos.Commitments.FindByID(txCtx, req.CommitmentID)
		if err != nil {
			return err
		}
		if commitment == nil {
			return fmt.Errorf("%w: %s", domain.ErrCommitmentNotFound, req.CommitmentID)
		}

		batch, err := s.repos.Batches.FindByNumber(txCtx, commitment.PoolID, commitment.BatchNumber)
		if err != nil {
			return err
		}
		if batch == nil {
			return fmt.Errorf("%w: pool %s batch %d", domain.ErrBatchNotFound, commitment.PoolID, commitment.BatchNumber)
		}
		if err := batch.RequirePhase(domain.PhaseReveal); err != nil {
			return err
		}

		fields := domain.OrderFields{
			Trader:       req.Trader,
			AssetIn:      req.AssetIn,
			AssetOut:     req.AssetOut,
			AmountIn:     amountIn,
			MinAmountOut: minOut,
			Priority:     req.Priority,
		}
		order, err := s.validator.Validate(commitment, fields, req.Secret)
		if err != nil {
			return err
		}
		if err := commitment.MarkRevealed(now); err != nil {
			return err
		}
		if err := batch.AdmitOrder(order); err != nil {
			return err
		}

		if err := s.repos.Commitments.Save(txCtx, commitment); err != nil {
			return err
		}
		if err := s.repos.Batches.Save(txCtx, batch); err != nil {
			return err
		}

		dto = &RevealDTO{
			CommitmentID: commitment.CommitmentID,
			BatchNumber:  batch.Number,
			RevealIndex:  order.RevealIndex,
			Status:       string(domain.CommitmentRevealed),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// AdvancePhase 按逻辑时钟推进当前批次的阶段
func (s *DexService) AdvancePhase(ctx context.Context, poolID string) (*BatchDTO, error) {
	now := s.clock.Now()
	var dto *BatchDTO
	err := s.uow.Execute(ctx, func(txCtx context.Context) error {
		batch, err := s.findCurrentBatch(txCtx, poolID)
		if err != nil {
			return err
		}
		if err := batch.Advance(now); err != nil {
			return err
		}
		if err := s.repos.Batches.Save(txCtx, batch); err != nil {
			return err
		}
		dto = toBatchDTO(batch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Settle 执行批次结算：
// 清扫过期承诺并罚没保证金 → 统一清算 → 返还诚实揭示者的保证金 →
// 关闭批次并开启后继批次。整个过程在单个事务与池级重入锁内完成。
func (s *DexService) Settle(ctx context.Context, req *SettleRequest) (*SettleDTO, error) {
	if !s.executors[req.Executor] {
		return nil, fmt.Errorf("%w: %s is not an authorized executor", domain.ErrUnauthorized, req.Executor)
	}
	if err := s.breaker.Check(req.PoolID); err != nil {
		return nil, err
	}
	if err := s.breaker.Enter(req.PoolID); err != nil {
		return nil, err
	}
	defer s.breaker.Exit(req.PoolID)

	now := s.clock.Now()
	var (
		result  *domain.BatchSwapResult
		pool    *domain.Pool
		slashed []*domain.BondSlashedEvent
	)

	err := s.uow.Execute(ctx, func(txCtx context.Context) error {
		var err error
		pool, err = s.findPool(txCtx, req.PoolID)
		if err != nil {
			return err
		}
		batch, err := s.findCurrentBatch(txCtx, req.PoolID)
		if err != nil {
			return err
		}
		if err := batch.RequirePhase(domain.PhaseSettle); err != nil {
			return err
		}

		commitments, err := s.repos.Commitments.FindByBatch(txCtx, req.PoolID, batch.Number)
		if err != nil {
			return err
		}

		// 清扫：仍处 COMMITTED 的承诺过期，保证金罚没
		for _, c := range commitments {
			if c.Status != domain.CommitmentCommitted {
				continue
			}
			if err := c.MarkExpired(); err != nil {
				return err
			}
			if err := s.repos.Commitments.Save(txCtx, c); err != nil {
				return err
			}
			if err := s.settleBond(txCtx, c.CommitmentID, now, (*domain.BondEntry).Slash); err != nil {
				return err
			}
			slashed = append(slashed, &domain.BondSlashedEvent{
				BaseEvent:    s.baseEvent(domain.EventBondSlashed, req.PoolID, now),
				CommitmentID: c.CommitmentID,
				Submitter:    c.Submitter,
				Amount:       c.Bond,
				BatchNumber:  batch.Number,
			})
		}

		sample, err := s.repos.Oracle.LatestSample(txCtx, req.PoolID)
		if err != nil {
			return err
		}

		result, err = s.clearing.SettleBatch(pool, batch, sample, now)
		if err != nil {
			return err
		}

		// 诚实揭示者的保证金返还，不论其订单是否被滑点保护排除
		for _, c := range commitments {
			if c.Status != domain.CommitmentRevealed {
				continue
			}
			if err := s.settleBond(txCtx, c.CommitmentID, now, (*domain.BondEntry).Refund); err != nil {
				return err
			}
		}

		if err := batch.MarkSettled(result.ClearingPrice, now); err != nil {
			return err
		}
		if err := s.repos.Batches.Save(txCtx, batch); err != nil {
			return err
		}
		if err := s.repos.Pools.Save(txCtx, pool); err != nil {
			return err
		}

		commitDur, revealDur := s.phaseDurations()
		next := batch.NextBatch(now, commitDur, revealDur)
		return s.repos.Batches.Save(txCtx, next)
	})
	if err != nil {
		return nil, err
	}

	s.publishSettlement(ctx, pool, result, slashed, now)

	filled := 0
	fills := make([]*FillDTO, 0, len(result.Fills))
	for _, f := range result.Fills {
		if !f.Excluded {
			filled++
		}
		fills = append(fills, &FillDTO{
			CommitmentID: f.CommitmentID,
			Trader:       f.Trader,
			AssetIn:      f.AssetIn,
			AmountIn:     f.AmountIn.String(),
			AmountOut:    f.AmountOut.String(),
			Excluded:     f.Excluded,
		})
	}

	logger.Info(ctx, "batch settled",
		"pool_id", result.PoolID,
		"batch_number", result.BatchNumber,
		"clearing_price", result.ClearingPrice.String(),
		"filled", filled,
		"excluded", result.ExcludedCount,
		"slashed", len(slashed))

	return &SettleDTO{
		PoolID:        result.PoolID,
		BatchNumber:   result.BatchNumber,
		ClearingPrice: result.ClearingPrice.String(),
		FilledCount:   filled,
		ExcludedCount: result.ExcludedCount,
		SlashedCount:  len(slashed),
		TreasuryFee0:  result.TreasuryFee0.String(),
		TreasuryFee1:  result.TreasuryFee1.String(),
		Fills:         fills,
	}, nil
}

// settleBond 对承诺对应的保证金执行返还或罚没
func (s *DexService) settleBond(ctx context.Context, commitmentID string, now int64, op func(*domain.BondEntry, int64) error) error {
	entry, err := s.repos.Bonds.FindByCommitment(ctx, commitmentID)
	if err != nil {
		return err
	}
	if entry == nil {
		return nil
	}
	if err := op(entry, now); err != nil {
		return err
	}
	return s.repos.Bonds.Save(ctx, entry)
}

// publishSettlement 结算完成后的事件发布与熔断记账
func (s *DexService) publishSettlement(ctx context.Context, pool *domain.Pool, result *domain.BatchSwapResult, slashed []*domain.BondSlashedEvent, now int64) {
	s.publish(ctx, &domain.BatchSettledEvent{
		BaseEvent:     s.baseEvent(domain.EventBatchSettled, result.PoolID, now),
		BatchNumber:   result.BatchNumber,
		ClearingPrice: result.ClearingPrice,
		FilledCount:   len(result.Fills) - result.ExcludedCount,
		ExcludedCount: result.ExcludedCount,
		TotalIn0:      result.TotalIn0,
		TotalIn1:      result.TotalIn1,
		TotalOut0:     result.TotalOut0,
		TotalOut1:     result.TotalOut1,
	})
	if result.TreasuryFee0.Sign() > 0 {
		s.publish(ctx, &domain.FeeAccruedEvent{
			BaseEvent:   s.baseEvent(domain.EventFeeAccrued, result.PoolID, now),
			BatchNumber: result.BatchNumber,
			Asset:       pool.Asset0,
			Amount:      result.TreasuryFee0,
		})
	}
	if result.TreasuryFee1.Sign() > 0 {
		s.publish(ctx, &domain.FeeAccruedEvent{
			BaseEvent:   s.baseEvent(domain.EventFeeAccrued, result.PoolID, now),
			BatchNumber: result.BatchNumber,
			Asset:       pool.Asset1,
			Amount:      result.TreasuryFee1,
		})
	}
	for _, ev := range slashed {
		s.publish(ctx, ev)
	}

	// 名义额以 asset0 口径累计：asset0 侧流入 + asset0 侧流出
	notional := result.TotalIn0.Add(result.TotalOut0)
	if s.breaker.RecordNotional(result.PoolID, notional, now) {
		threshold := s.breaker.Threshold()
		logger.Warn(ctx, "circuit breaker tripped",
			"pool_id", result.PoolID, "notional", notional.String(), "threshold", threshold.String())
		s.publish(ctx, &domain.BreakerTrippedEvent{
			BaseEvent:      s.baseEvent(domain.EventBreakerTripped, result.PoolID, now),
			WindowNotional: notional,
			Threshold:      threshold,
		})
	}
}

// SetFee 管理员调整池费率
func (s *DexService) SetFee(ctx context.Context, req *SetFeeRequest) (*PoolDTO, error) {
	if !s.admins[req.Caller] {
		return nil, fmt.Errorf("%w: %s is not an admin", domain.ErrUnauthorized, req.Caller)
	}
	if req.FeeBps < 0 || req.FeeBps > s.cfg.MaxFeeBps {
		return nil, fmt.Errorf("%w: fee %d bps exceeds protocol maximum %d",
			domain.ErrInvalidFee, req.FeeBps, s.cfg.MaxFeeBps)
	}

	var pool *domain.Pool
	err := s.uow.Execute(ctx, func(txCtx context.Context) error {
		var err error
		pool, err = s.findPool(txCtx, req.PoolID)
		if err != nil {
			return err
		}
		pool.FeeBps = req.FeeBps
		return s.repos.Pools.Save(txCtx, pool)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "pool fee updated", "pool_id", req.PoolID, "fee_bps", req.FeeBps, "caller", req.Caller)
	return toPoolDTO(pool), nil
}

// SetAmplification 管理员调整稳定曲线池的放大系数
func (s *DexService) SetAmplification(ctx context.Context, req *SetAmplificationRequest) (*PoolDTO, error) {
	if !s.admins[req.Caller] {
		return nil, fmt.Errorf("%w: %s is not an admin", domain.ErrUnauthorized, req.Caller)
	}
	if err := s.checkAmplification(req.Amplification); err != nil {
		return nil, err
	}

	var pool *domain.Pool
	err := s.uow.Execute(ctx, func(txCtx context.Context) error {
		var err error
		pool, err = s.findPool(txCtx, req.PoolID)
		if err != nil {
			return err
		}
		if err := pool.SetAmplification(req.Amplification); err != nil {
			return err
		}
		return s.repos.Pools.Save(txCtx, pool)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "pool amplification updated",
		"pool_id", req.PoolID, "amplification", req.Amplification, "caller", req.Caller)
	return toPoolDTO(pool), nil
}

// SetPhaseDurations 管理员调整批次阶段时长，从下一个开启的批次生效
func (s *DexService) SetPhaseDurations(ctx context.Context, req *SetPhaseDurationsRequest) error {
	if !s.admins[req.Caller] {
		return fmt.Errorf("%w: %s is not an admin", domain.ErrUnauthorized, req.Caller)
	}
	if req.CommitDuration <= 0 || req.RevealDuration <= 0 {
		return fmt.Errorf("%w: phase durations must be positive (%d, %d)",
			domain.ErrInvalidAmount, req.CommitDuration, req.RevealDuration)
	}

	s.durationMu.Lock()
	s.commitDuration = req.CommitDuration
	s.revealDuration = req.RevealDuration
	s.durationMu.Unlock()

	logger.Info(ctx, "phase durations updated",
		"commit_duration", req.CommitDuration, "reveal_duration", req.RevealDuration, "caller", req.Caller)
	return nil
}

// SetBreakerThreshold 管理员调整熔断名义额阈值
func (s *DexService) SetBreakerThreshold(ctx context.Context, req *SetBreakerThresholdRequest) error {
	if !s.admins[req.Caller] {
		return fmt.Errorf("%w: %s is not an admin", domain.ErrUnauthorized, req.Caller)
	}
	threshold, err := decimal.NewFromString(req.Threshold)
	if err != nil {
		return fmt.Errorf("%w: threshold %q", domain.ErrInvalidAmount, req.Threshold)
	}
	if err := s.breaker.SetThreshold(threshold); err != nil {
		return err
	}
	logger.Info(ctx, "breaker threshold updated", "threshold", threshold.String(), "caller", req.Caller)
	return nil
}

// ResetBreaker 授权方重置熔断器，冷却期未满则失败
func (s *DexService) ResetBreaker(ctx context.Context, req *ResetBreakerRequest) error {
	if !s.admins[req.Caller] {
		return fmt.Errorf("%w: %s is not an admin", domain.ErrUnauthorized, req.Caller)
	}
	if err := s.breaker.Reset(req.PoolID, s.clock.Now()); err != nil {
		return err
	}
	logger.Info(ctx, "circuit breaker reset", "pool_id", req.PoolID, "caller", req.Caller)
	return nil
}

// IngestOracleSample 写入外部参考价样本。时间戳回退的样本被丢弃。
func (s *DexService) IngestOracleSample(ctx context.Context, input *OracleSampleInput) error {
	price, err := decimal.NewFromString(input.Price)
	if err != nil || price.Sign() <= 0 {
		return fmt.Errorf("%w: oracle price %q", domain.ErrInvalidAmount, input.Price)
	}

	sample := &domain.ReferenceSample{
		PoolID:            input.PoolID,
		Price:             price,
		Confidence:        parseDecimalOrZero(input.Confidence),
		DeviationZScore:   parseDecimalOrZero(input.DeviationZScore),
		Regime:            domain.Regime(input.Regime),
		ManipulationScore: parseDecimalOrZero(input.ManipulationScore),
		Timestamp:         input.Timestamp,
	}
	if sample.Regime == "" {
		sample.Regime = domain.RegimeNormal
	}

	latest, err := s.repos.Oracle.LatestSample(ctx, input.PoolID)
	if err != nil {
		return err
	}
	if latest != nil && input.Timestamp < latest.Timestamp {
		logger.Warn(ctx, "stale oracle sample dropped",
			"pool_id", input.PoolID, "sample_ts", input.Timestamp, "latest_ts", latest.Timestamp)
		return nil
	}

	return s.repos.Oracle.SaveSample(ctx, sample)
}

// GetPool 查询资金池
func (s *DexService) GetPool(ctx context.Context, poolID string) (*PoolDTO, error) {
	pool, err := s.findPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	return toPoolDTO(pool), nil
}

// ListPools 列出全部资金池
func (s *DexService) ListPools(ctx context.Context) ([]*PoolDTO, error) {
	pools, err := s.repos.Pools.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]*PoolDTO, 0, len(pools))
	for _, p := range pools {
		dtos = append(dtos, toPoolDTO(p))
	}
	return dtos, nil
}

// GetCurrentBatch 查询池的当前批次
func (s *DexService) GetCurrentBatch(ctx context.Context, poolID string) (*BatchDTO, error) {
	batch, err := s.findCurrentBatch(ctx, poolID)
	if err != nil {
		return nil, err
	}
	return toBatchDTO(batch), nil
}

// GetBatch 查询历史批次
func (s *DexService) GetBatch(ctx context.Context, poolID string, number int64) (*BatchDTO, error) {
	batch, err := s.repos.Batches.FindByNumber(ctx, poolID, number)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, fmt.Errorf("%w: pool %s batch %d", domain.ErrBatchNotFound, poolID, number)
	}
	return toBatchDTO(batch), nil
}

// GetCommitment 查询订单承诺
func (s *DexService) GetCommitment(ctx context.Context, commitmentID string) (*CommitDTO, error) {
	commitment, err := s.repos.Commitments.FindByID(ctx, commitmentID)
	if err != nil {
		return nil, err
	}
	if commitment == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCommitmentNotFound, commitmentID)
	}
	return &CommitDTO{
		CommitmentID: commitment.CommitmentID,
		PoolID:       commitment.PoolID,
		BatchNumber:  commitment.BatchNumber,
		Status:       string(commitment.Status),
	}, nil
}

// GetPosition 查询流动性头寸
func (s *DexService) GetPosition(ctx context.Context, poolID, depositor string) (*PositionDTO, error) {
	position, err := s.repos.Positions.Find(ctx, poolID, depositor)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return &PositionDTO{PoolID: poolID, Depositor: depositor, Shares: "0"}, nil
	}
	return &PositionDTO{
		PoolID:        position.PoolID,
		Depositor:     position.Depositor,
		Shares:        position.Shares.String(),
		LastDepositAt: position.LastDepositAt,
	}, nil
}

func (s *DexService) findPool(ctx context.Context, poolID string) (*domain.Pool, error) {
	pool, err := s.repos.Pools.FindByID(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrPoolNotFound, poolID)
	}
	return pool, nil
}

func (s *DexService) findCurrentBatch(ctx context.Context, poolID string) (*domain.Batch, error) {
	batch, err := s.repos.Batches.FindCurrent(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, fmt.Errorf("%w: no open batch for pool %s", domain.ErrBatchNotFound, poolID)
	}
	return batch, nil
}

func (s *DexService) baseEvent(eventType domain.EventType, poolID string, now int64) domain.BaseEvent {
	return domain.BaseEvent{
		EventID:   fmt.Sprintf("E-%d", idgen.GenID()),
		Type:      eventType,
		PoolID:    poolID,
		Timestamp: now,
	}
}

// publish 事件发布失败只记日志，不影响主流程
func (s *DexService) publish(ctx context.Context, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Error(ctx, "publish event failed", "error", err)
	}
}

func toPoolDTO(p *domain.Pool) *PoolDTO {
	return &PoolDTO{
		PoolID:        p.PoolID,
		Asset0:        p.Asset0,
		Asset1:        p.Asset1,
		Reserve0:      p.Reserve0.String(),
		Reserve1:      p.Reserve1.String(),
		TotalShares:   p.TotalShares.String(),
		FeeBps:        p.FeeBps,
		CurveKind:     string(p.CurveKind),
		Amplification: p.Amplification,
		Initialized:   p.Initialized,
	}
}

func toBatchDTO(b *domain.Batch) *BatchDTO {
	dto := &BatchDTO{
		PoolID:     b.PoolID,
		Number:     b.Number,
		Phase:      string(b.Phase),
		PhaseStart: b.PhaseStart,
		OrderCount: len(b.Orders),
		SettledAt:  b.SettledAt,
	}
	if b.PriceSet {
		dto.ClearingPrice = b.ClearingPrice.String()
	}
	return dto
}

// parseMinAmount 解析可选的下限字段：空值视为零，负值拒绝
func parseMinAmount(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil || v.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s %q", domain.ErrInvalidAmount, field, s)
	}
	return v, nil
}

func parseDecimalOrZero(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
