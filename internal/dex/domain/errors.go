package domain

import "errors"

// 领域错误定义。所有被拒绝的操作不产生任何持久化副作用，
// 调用方通过 errors.Is 判定错误类别。
var (
	// ErrPhaseViolation 在非法阶段执行操作（如 COMMIT 阶段揭示订单）
	ErrPhaseViolation = errors.New("operation not allowed in current batch phase")
	// ErrPhaseNotElapsed 阶段时长未满，不能推进
	ErrPhaseNotElapsed = errors.New("phase duration has not elapsed")
	// ErrPreimageMismatch 揭示的订单字段与承诺哈希不符
	ErrPreimageMismatch = errors.New("revealed fields do not match commitment hash")
	// ErrAlreadyRevealed 承诺已被揭示，不允许重复揭示
	ErrAlreadyRevealed = errors.New("commitment already revealed")
	// ErrCommitmentExpired 承诺已过期（未在 REVEAL 窗口内揭示）
	ErrCommitmentExpired = errors.New("commitment expired")
	// ErrCommitmentNotFound 承诺不存在
	ErrCommitmentNotFound = errors.New("commitment not found")
	// ErrInsufficientBond 保证金低于配置的最小值
	ErrInsufficientBond = errors.New("bond below configured minimum")
	// ErrSlippageViolation 成交量低于订单声明的最小可接受输出
	ErrSlippageViolation = errors.New("allocation below order minimum output")
	// ErrConvergenceFailure 稳定曲线牛顿迭代在上限内未收敛
	ErrConvergenceFailure = errors.New("newton-raphson iteration did not converge")
	// ErrBreakerTripped 熔断器处于触发状态
	ErrBreakerTripped = errors.New("circuit breaker tripped")
	// ErrReentrancy 同一池的结算正在进行中
	ErrReentrancy = errors.New("settlement already in progress for pool")
	// ErrFlashLoanGuard 同一周期内存入后又取出流动性
	ErrFlashLoanGuard = errors.New("withdraw in same period as deposit")
	// ErrCooldownActive 熔断器冷却期未满，不能重置
	ErrCooldownActive = errors.New("breaker cooldown still active")
	// ErrInvalidAmount 金额非法（非正数或超出范围）
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidCurveParams 曲线参数非法（如放大系数越界）
	ErrInvalidCurveParams = errors.New("invalid curve parameters")
	// ErrInvalidFee 手续费率越界
	ErrInvalidFee = errors.New("invalid fee rate")
	// ErrInsufficientLiquidity 池内流动性不足
	ErrInsufficientLiquidity = errors.New("insufficient pool liquidity")
	// ErrPoolNotInitialized 池未完成首次注资
	ErrPoolNotInitialized = errors.New("pool not initialized")
	// ErrPoolNotFound 池不存在
	ErrPoolNotFound = errors.New("pool not found")
	// ErrPoolExists 池已存在
	ErrPoolExists = errors.New("pool already exists")
	// ErrPriceImmutable 批次结算价一经写入不可变更
	ErrPriceImmutable = errors.New("batch clearing price already set")
	// ErrArithmetic 算术保护（除零或中间量为负）
	ErrArithmetic = errors.New("arithmetic guard violated")
	// ErrUnauthorized 调用方无权执行该操作
	ErrUnauthorized = errors.New("caller not authorized")
	// ErrUnknownAsset 资产不属于该池
	ErrUnknownAsset = errors.New("asset does not belong to pool")
	// ErrBatchNotFound 批次不存在
	ErrBatchNotFound = errors.New("batch not found")
)
