package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/dexsettlement/internal/dex/domain"
	"github.com/wyfcoding/dexsettlement/pkg/cache"
)

// OracleRepo 参考价样本的 Redis 实现。
// 每池只保留最新样本，键带 TTL，过期后结算退化为纯曲线定价。
type OracleRepo struct {
	cache *cache.RedisCache
	ttl   time.Duration
}

func NewOracleRepo(c *cache.RedisCache, ttl time.Duration) domain.OracleRepository {
	return &OracleRepo{cache: c, ttl: ttl}
}

func sampleKey(poolID string) string {
	return fmt.Sprintf("dex:oracle:sample:%s", poolID)
}

func (r *OracleRepo) SaveSample(ctx context.Context, sample *domain.ReferenceSample) error {
	return r.cache.SetJSON(ctx, sampleKey(sample.PoolID), sample, r.ttl)
}

func (r *OracleRepo) LatestSample(ctx context.Context, poolID string) (*domain.ReferenceSample, error) {
	var sample domain.ReferenceSample
	found, err := r.cache.GetJSON(ctx, sampleKey(poolID), &sample)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &sample, nil
}
