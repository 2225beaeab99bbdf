package memory

import (
	"context"
	"sync"

	"github.com/wyfcoding/dexsettlement/internal/dex/domain"
)

// 全量仓储端口的内存实现，供单元测试与本地联调使用。

type PoolRepo struct {
	mu    sync.RWMutex
	pools map[string]*domain.Pool
}

func NewPoolRepo() *PoolRepo {
	return &PoolRepo{pools: make(map[string]*domain.Pool)}
}

func (r *PoolRepo) Save(_ context.Context, pool *domain.Pool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *pool
	r.pools[pool.PoolID] = &cp
	return nil
}

func (r *PoolRepo) FindByID(_ context.Context, poolID string) (*domain.Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pool, ok := r.pools[poolID]
	if !ok {
		return nil, nil
	}
	cp := *pool
	return &cp, nil
}

func (r *PoolRepo) FindAll(_ context.Context) ([]*domain.Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pools := make([]*domain.Pool, 0, len(r.pools))
	for _, p := range r.pools {
		cp := *p
		pools = append(pools, &cp)
	}
	return pools, nil
}

type CommitmentRepo struct {
	mu          sync.RWMutex
	commitments map[string]*domain.OrderCommitment
}

func NewCommitmentRepo() *CommitmentRepo {
	return &CommitmentRepo{commitments: make(map[string]*domain.OrderCommitment)}
}

func (r *CommitmentRepo) Save(_ context.Context, c *domain.OrderCommitment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.commitments[c.CommitmentID] = &cp
	return nil
}

func (r *CommitmentRepo) FindByID(_ context.Context, commitmentID string) (*domain.OrderCommitment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.commitments[commitmentID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *CommitmentRepo) FindByBatch(_ context.Context, poolID string, batchNumber int64) ([]*domain.OrderCommitment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*domain.OrderCommitment
	for _, c := range r.commitments {
		if c.PoolID == poolID && c.BatchNumber == batchNumber {
			cp := *c
			result = append(result, &cp)
		}
	}
	return result, nil
}

type batchKey struct {
	poolID string
	number int64
}

type BatchRepo struct {
	mu      sync.RWMutex
	batches map[batchKey]*domain.Batch
}

func NewBatchRepo() *BatchRepo {
	return &BatchRepo{batches: make(map[batchKey]*domain.Batch)}
}

func (r *BatchRepo) Save(_ context.Context, batch *domain.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *batch
	cp.Orders = append([]*domain.RevealedOrder(nil), batch.Orders...)
	r.batches[batchKey{batch.PoolID, batch.Number}] = &cp
	return nil
}

func (r *BatchRepo) FindCurrent(_ context.Context, poolID string) (*domain.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var current *domain.Batch
	for key, b := range r.batches {
		if key.poolID != poolID || b.Phase == domain.PhaseClosed {
			continue
		}
		if current == nil || b.Number > current.Number {
			current = b
		}
	}
	if current == nil {
		return nil, nil
	}
	cp := *current
	cp.Orders = append([]*domain.RevealedOrder(nil), current.Orders...)
	return &cp, nil
}

func (r *BatchRepo) FindByNumber(_ context.Context, poolID string, number int64) (*domain.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.batches[batchKey{poolID, number}]
	if !ok {
		return nil, nil
	}
	cp := *b
	cp.Orders = append([]*domain.RevealedOrder(nil), b.Orders...)
	return &cp, nil
}

type positionKey struct {
	poolID    string
	depositor string
}

type PositionRepo struct {
	mu        sync.RWMutex
	positions map[positionKey]*domain.LiquidityPosition
}

func NewPositionRepo() *PositionRepo {
	return &PositionRepo{positions: make(map[positionKey]*domain.LiquidityPosition)}
}

func (r *PositionRepo) Save(_ context.Context, p *domain.LiquidityPosition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.positions[positionKey{p.PoolID, p.Depositor}] = &cp
	return nil
}

func (r *PositionRepo) Find(_ context.Context, poolID, depositor string) (*domain.LiquidityPosition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.positions[positionKey{poolID, depositor}]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *PositionRepo) FindByPool(_ context.Context, poolID string) ([]*domain.LiquidityPosition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*domain.LiquidityPosition
	for key, p := range r.positions {
		if key.poolID == poolID {
			cp := *p
			result = append(result, &cp)
		}
	}
	return result, nil
}

type BondRepo struct {
	mu    sync.RWMutex
	bonds map[string]*domain.BondEntry
}

func NewBondRepo() *BondRepo {
	return &BondRepo{bonds: make(map[string]*domain.BondEntry)}
}

func (r *BondRepo) Save(_ context.Context, b *domain.BondEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.bonds[b.CommitmentID] = &cp
	return nil
}

func (r *BondRepo) FindByCommitment(_ context.Context, commitmentID string) (*domain.BondEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bonds[commitmentID]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

type OracleRepo struct {
	mu      sync.RWMutex
	samples map[string]*domain.ReferenceSample
}

func NewOracleRepo() *OracleRepo {
	return &OracleRepo{samples: make(map[string]*domain.ReferenceSample)}
}

func (r *OracleRepo) SaveSample(_ context.Context, sample *domain.ReferenceSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sample
	r.samples[sample.PoolID] = &cp
	return nil
}

func (r *OracleRepo) LatestSample(_ context.Context, poolID string) (*domain.ReferenceSample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.samples[poolID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

// UnitOfWork 内存实现不提供回滚，直接串行执行
type UnitOfWork struct{}

func NewUnitOfWork() *UnitOfWork { return &UnitOfWork{} }

func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// EventCollector 收集发布的事件，供测试断言
type EventCollector struct {
	mu     sync.Mutex
	events []any
}

func NewEventCollector() *EventCollector { return &EventCollector{} }

func (c *EventCollector) Publish(_ context.Context, event any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *EventCollector) Events() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.events...)
}

// FakeClock 可手动推进的逻辑时钟
type FakeClock struct {
	mu   sync.Mutex
	unix int64
}

func NewFakeClock(unix int64) *FakeClock { return &FakeClock{unix: unix} }

func (c *FakeClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unix
}

func (c *FakeClock) Advance(seconds int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unix += seconds
}
