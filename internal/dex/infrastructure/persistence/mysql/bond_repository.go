package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/dexsettlement/internal/dex/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BondRepo struct {
	db *gorm.DB
}

func NewBondRepo(db *gorm.DB) domain.BondRepository {
	return &BondRepo{db: db}
}

func (r *BondRepo) Save(ctx context.Context, bond *domain.BondEntry) error {
	model := bondModelFrom(bond)
	return dbFrom(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "commitment_id"}},
		UpdateAll: true,
	}).Create(model).Error
}

func (r *BondRepo) FindByCommitment(ctx context.Context, commitmentID string) (*domain.BondEntry, error) {
	var model BondModel
	err := dbFrom(ctx, r.db).Where("commitment_id = ?", commitmentID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.toDomain(), nil
}
