package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker() *CircuitBreaker {
	return NewCircuitBreaker(BreakerConfig{
		WindowSeconds:      300,
		NotionalThreshold:  d(10_000),
		CooldownSeconds:    600,
		GuardPeriodSeconds: 1,
	})
}

func TestReentrancyLock(t *testing.T) {
	cb := newTestBreaker()

	require.NoError(t, cb.Enter("p1"))
	assert.ErrorIs(t, cb.Enter("p1"), ErrReentrancy)

	// 不同池互不影响
	require.NoError(t, cb.Enter("p2"))

	cb.Exit("p1")
	require.NoError(t, cb.Enter("p1"))
}

func TestFlashLoanGuard(t *testing.T) {
	cb := newTestBreaker()

	cb.NoteDeposit("p1", "alice", 100)

	// 同一周期内先存后取被拒绝
	assert.ErrorIs(t, cb.CheckWithdraw("p1", "alice", 100), ErrFlashLoanGuard)
	// 其他存入人不受影响
	assert.NoError(t, cb.CheckWithdraw("p1", "bob", 100))
	// 下一个周期放行
	assert.NoError(t, cb.CheckWithdraw("p1", "alice", 101))
}

func TestFlashLoanGuardPeriod(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{
		WindowSeconds:      300,
		NotionalThreshold:  d(10_000),
		CooldownSeconds:    600,
		GuardPeriodSeconds: 10,
	})

	cb.NoteDeposit("p1", "alice", 100)
	// 105 与 100 同属周期 10
	assert.ErrorIs(t, cb.CheckWithdraw("p1", "alice", 105), ErrFlashLoanGuard)
	assert.NoError(t, cb.CheckWithdraw("p1", "alice", 110))
}

func TestNotionalTripAndReset(t *testing.T) {
	cb := newTestBreaker()

	assert.False(t, cb.RecordNotional("p1", d(6000), 100))
	assert.NoError(t, cb.Check("p1"))

	// 窗口内累计越阈：触发
	assert.True(t, cb.RecordNotional("p1", d(6000), 200))
	assert.ErrorIs(t, cb.Check("p1"), ErrBreakerTripped)

	// 冷却期内拒绝重置
	assert.ErrorIs(t, cb.Reset("p1", 500), ErrCooldownActive)
	assert.ErrorIs(t, cb.Check("p1"), ErrBreakerTripped)

	// 冷却期满后重置放行
	require.NoError(t, cb.Reset("p1", 800))
	assert.NoError(t, cb.Check("p1"))
}

func TestNotionalWindowPruning(t *testing.T) {
	cb := newTestBreaker()

	assert.False(t, cb.RecordNotional("p1", d(6000), 100))
	// 间隔超过窗口，旧记录被裁剪，不触发
	assert.False(t, cb.RecordNotional("p1", d(6000), 500))
	assert.NoError(t, cb.Check("p1"))
}

func TestResetUntrippedIsNoop(t *testing.T) {
	cb := newTestBreaker()
	assert.NoError(t, cb.Reset("p1", 100))
}

func TestSetThreshold(t *testing.T) {
	cb := newTestBreaker()
	assert.ErrorIs(t, cb.SetThreshold(d(0)), ErrInvalidAmount)
	require.NoError(t, cb.SetThreshold(d(5000)))

	assert.True(t, cb.RecordNotional("p1", d(5001), 100))
}
