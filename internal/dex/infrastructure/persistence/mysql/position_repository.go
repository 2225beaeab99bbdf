package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/dexsettlement/internal/dex/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PositionRepo struct {
	db *gorm.DB
}

func NewPositionRepo(db *gorm.DB) domain.PositionRepository {
	return &PositionRepo{db: db}
}

func (r *PositionRepo) Save(ctx context.Context, position *domain.LiquidityPosition) error {
	model := &PositionModel{
		PoolID:        position.PoolID,
		Depositor:     position.Depositor,
		Shares:        position.Shares,
		LastDepositAt: position.LastDepositAt,
	}
	return dbFrom(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pool_id"}, {Name: "depositor"}},
		DoUpdates: clause.AssignmentColumns([]string{"shares", "last_deposit_at"}),
	}).Create(model).Error
}

func (r *PositionRepo) Find(ctx context.Context, poolID, depositor string) (*domain.LiquidityPosition, error) {
	var model PositionModel
	err := dbFrom(ctx, r.db).
		Where("pool_id = ? AND depositor = ?", poolID, depositor).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.toDomain(), nil
}

func (r *PositionRepo) FindByPool(ctx context.Context, poolID string) ([]*domain.LiquidityPosition, error) {
	var models []*PositionModel
	err := dbFrom(ctx, r.db).
		Where("pool_id = ?", poolID).
		Order("depositor ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	positions := make([]*domain.LiquidityPosition, 0, len(models))
	for _, m := range models {
		positions = append(positions, m.toDomain())
	}
	return positions, nil
}
