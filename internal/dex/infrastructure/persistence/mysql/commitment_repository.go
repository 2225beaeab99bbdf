package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/dexsettlement/internal/dex/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommitmentRepo struct {
	db *gorm.DB
}

func NewCommitmentRepo(db *gorm.DB) domain.CommitmentRepository {
	return &CommitmentRepo{db: db}
}

func (r *CommitmentRepo) Save(ctx context.Context, commitment *domain.OrderCommitment) error {
	model := commitmentModelFrom(commitment)
	return dbFrom(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "commitment_id"}},
		UpdateAll: true,
	}).Create(model).Error
}

func (r *CommitmentRepo) FindByID(ctx context.Context, commitmentID string) (*domain.OrderCommitment, error) {
	var model CommitmentModel
	err := dbFrom(ctx, r.db).Where("commitment_id = ?", commitmentID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.toDomain(), nil
}

func (r *CommitmentRepo) FindByBatch(ctx context.Context, poolID string, batchNumber int64) ([]*domain.OrderCommitment, error) {
	var models []*CommitmentModel
	err := dbFrom(ctx, r.db).
		Where("pool_id = ? AND batch_number = ?", poolID, batchNumber).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	commitments := make([]*domain.OrderCommitment, 0, len(models))
	for _, m := range models {
		commitments = append(commitments, m.toDomain())
	}
	return commitments, nil
}
