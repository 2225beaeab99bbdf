package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/dexsettlement/internal/dex/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BatchRepo struct {
	db *gorm.DB
}

func NewBatchRepo(db *gorm.DB) domain.BatchRepository {
	return &BatchRepo{db: db}
}

func (r *BatchRepo) Save(ctx context.Context, batch *domain.Batch) error {
	db := dbFrom(ctx, r.db)

	model := &BatchModel{
		PoolID:         batch.PoolID,
		Number:         batch.Number,
		Phase:          string(batch.Phase),
		PhaseStart:     batch.PhaseStart,
		CommitDuration: batch.CommitDuration,
		RevealDuration: batch.RevealDuration,
		ClearingPrice:  batch.ClearingPrice,
		PriceSet:       batch.PriceSet,
		SettledAt:      batch.SettledAt,
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pool_id"}, {Name: "number"}},
		UpdateAll: true,
	}).Create(model).Error
	if err != nil {
		return err
	}

	for _, order := range batch.Orders {
		om := orderModelFrom(order)
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pool_id"}, {Name: "batch_number"}, {Name: "reveal_index"}},
			UpdateAll: true,
		}).Create(om).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *BatchRepo) FindCurrent(ctx context.Context, poolID string) (*domain.Batch, error) {
	var model BatchModel
	err := dbFrom(ctx, r.db).
		Where("pool_id = ? AND phase <> ?", poolID, string(domain.PhaseClosed)).
		Order("number DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.hydrate(ctx, &model)
}

func (r *BatchRepo) FindByNumber(ctx context.Context, poolID string, number int64) (*domain.Batch, error) {
	var model BatchModel
	err := dbFrom(ctx, r.db).
		Where("pool_id = ? AND number = ?", poolID, number).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.hydrate(ctx, &model)
}

// hydrate 装配批次及其揭示订单
func (r *BatchRepo) hydrate(ctx context.Context, model *BatchModel) (*domain.Batch, error) {
	var orderModels []*RevealedOrderModel
	err := dbFrom(ctx, r.db).
		Where("pool_id = ? AND batch_number = ?", model.PoolID, model.Number).
		Order("reveal_index ASC").
		Find(&orderModels).Error
	if err != nil {
		return nil, err
	}

	orders := make([]*domain.RevealedOrder, 0, len(orderModels))
	for _, om := range orderModels {
		orders = append(orders, om.toDomain())
	}

	return &domain.Batch{
		PoolID:         model.PoolID,
		Number:         model.Number,
		Phase:          domain.BatchPhase(model.Phase),
		PhaseStart:     model.PhaseStart,
		CommitDuration: model.CommitDuration,
		RevealDuration: model.RevealDuration,
		Orders:         orders,
		ClearingPrice:  model.ClearingPrice,
		PriceSet:       model.PriceSet,
		SettledAt:      model.SettledAt,
	}, nil
}
