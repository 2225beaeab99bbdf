package domain

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// CircuitBreaker 包裹 SETTLE 执行与流动性提取的三重防护：
//  1. 重入锁：同一池的结算进行中时拒绝再次进入；
//  2. 同周期闪电贷防护：同一原子周期内先存后取的流动性操作被拒绝；
//  3. 滚动量熔断：窗口内累计名义成交额超阈值即触发，冷却期满后由授权方重置。
type CircuitBreaker struct {
	mu sync.Mutex

	// settling 池 ID → 结算进行中
	settling map[string]bool
	// lastDeposit (池|存入人) → 最近存入的周期号
	lastDeposit map[string]int64

	// windowSeconds 滚动窗口长度（秒）
	windowSeconds int64
	// notionalThreshold 窗口内名义额阈值
	notionalThreshold decimal.Decimal
	// cooldownSeconds 触发后的强制冷却时长（秒）
	cooldownSeconds int64
	// guardPeriodSeconds 闪电贷防护的周期长度（秒）
	guardPeriodSeconds int64

	// volumes 池 ID → 窗口内的名义额记录
	volumes map[string][]volumeEntry
	// trippedAt 池 ID → 触发时间（unix 秒），未触发则缺失
	trippedAt map[string]int64
}

type volumeEntry struct {
	at       int64
	notional decimal.Decimal
}

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	WindowSeconds      int64
	NotionalThreshold  decimal.Decimal
	CooldownSeconds    int64
	GuardPeriodSeconds int64
}

// NewCircuitBreaker 创建熔断器
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.GuardPeriodSeconds <= 0 {
		cfg.GuardPeriodSeconds = 1
	}
	return &CircuitBreaker{
		settling:           make(map[string]bool),
		lastDeposit:        make(map[string]int64),
		windowSeconds:      cfg.WindowSeconds,
		notionalThreshold:  cfg.NotionalThreshold,
		cooldownSeconds:    cfg.CooldownSeconds,
		guardPeriodSeconds: cfg.GuardPeriodSeconds,
		volumes:            make(map[string][]volumeEntry),
		trippedAt:          make(map[string]int64),
	}
}

// Enter 获取池的结算互斥锁，成功后必须配对调用 Exit
func (cb *CircuitBreaker) Enter(poolID string) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.settling[poolID] {
		return fmt.Errorf("%w: pool %s", ErrReentrancy, poolID)
	}
	cb.settling[poolID] = true
	return nil
}

// Exit 释放池的结算互斥锁
func (cb *CircuitBreaker) Exit(poolID string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	delete(cb.settling, poolID)
}

// Check 被门控的操作执行前调用，熔断中直接拒绝
func (cb *CircuitBreaker) Check(poolID string) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if _, tripped := cb.trippedAt[poolID]; tripped {
		return fmt.Errorf("%w: pool %s", ErrBreakerTripped, poolID)
	}
	return nil
}

// NoteDeposit 记录存入发生的周期，供闪电贷防护比对
func (cb *CircuitBreaker) NoteDeposit(poolID, depositor string, now int64) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.lastDeposit[guardKey(poolID, depositor)] = now / cb.guardPeriodSeconds
}

// CheckWithdraw 闪电贷防护：与最近一次存入处于同一周期的提取被拒绝
func (cb *CircuitBreaker) CheckWithdraw(poolID, depositor string, now int64) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	last, ok := cb.lastDeposit[guardKey(poolID, depositor)]
	if ok && last == now/cb.guardPeriodSeconds {
		return fmt.Errorf("%w: pool %s depositor %s", ErrFlashLoanGuard, poolID, depositor)
	}
	return nil
}

// RecordNotional 累计结算名义额并做窗口裁剪，越阈即置为触发态。
// 越阈发生在本次结算完成之后，因此当次操作不失败，后续被门控操作开始失败。
// 返回是否刚刚触发。
func (cb *CircuitBreaker) RecordNotional(poolID string, notional decimal.Decimal, now int64) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	entries := cb.volumes[poolID]
	pruned := entries[:0]
	sum := decimal.Zero
	for _, e := range entries {
		if now-e.at <= cb.windowSeconds {
			pruned = append(pruned, e)
			sum = sum.Add(e.notional)
		}
	}
	pruned = append(pruned, volumeEntry{at: now, notional: notional})
	sum = sum.Add(notional)
	cb.volumes[poolID] = pruned

	if _, tripped := cb.trippedAt[poolID]; !tripped && sum.GreaterThan(cb.notionalThreshold) {
		cb.trippedAt[poolID] = now
		return true
	}
	return false
}

// Reset 授权方重置熔断器，冷却期未满则拒绝
func (cb *CircuitBreaker) Reset(poolID string, now int64) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	at, tripped := cb.trippedAt[poolID]
	if !tripped {
		return nil
	}
	if now < at+cb.cooldownSeconds {
		return fmt.Errorf("%w: cooldown ends at %d, now %d", ErrCooldownActive, at+cb.cooldownSeconds, now)
	}
	delete(cb.trippedAt, poolID)
	cb.volumes[poolID] = nil
	return nil
}

// SetThreshold 管理员调整名义额阈值
func (cb *CircuitBreaker) SetThreshold(threshold decimal.Decimal) error {
	if threshold.Sign() <= 0 {
		return fmt.Errorf("%w: breaker threshold must be positive", ErrInvalidAmount)
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.notionalThreshold = threshold
	return nil
}

// Threshold 返回当前生效的名义额阈值
func (cb *CircuitBreaker) Threshold() decimal.Decimal {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.notionalThreshold
}

func guardKey(poolID, depositor string) string {
	return poolID + "|" + depositor
}
