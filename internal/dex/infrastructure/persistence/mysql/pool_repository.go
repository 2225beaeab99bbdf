package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/dexsettlement/internal/dex/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PoolRepo struct {
	db *gorm.DB
}

func NewPoolRepo(db *gorm.DB) domain.PoolRepository {
	return &PoolRepo{db: db}
}

func (r *PoolRepo) Save(ctx context.Context, pool *domain.Pool) error {
	model := poolModelFrom(pool)
	return dbFrom(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pool_id"}},
		UpdateAll: true,
	}).Create(model).Error
}

func (r *PoolRepo) FindByID(ctx context.Context, poolID string) (*domain.Pool, error) {
	var model PoolModel
	err := dbFrom(ctx, r.db).Where("pool_id = ?", poolID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.toDomain(), nil
}

func (r *PoolRepo) FindAll(ctx context.Context) ([]*domain.Pool, error) {
	var models []*PoolModel
	if err := dbFrom(ctx, r.db).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	pools := make([]*domain.Pool, 0, len(models))
	for _, m := range models {
		pools = append(pools, m.toDomain())
	}
	return pools, nil
}
