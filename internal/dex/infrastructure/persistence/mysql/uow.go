package mysql

import (
	"context"

	"github.com/wyfcoding/dexsettlement/internal/dex/domain"
	"gorm.io/gorm"
)

type txKey struct{}

// UnitOfWork 基于 gorm 事务实现的工作单元，
// 事务句柄通过 context 传递给同一事务内的仓储调用
type UnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork 创建工作单元
func NewUnitOfWork(db *gorm.DB) domain.UnitOfWork {
	return &UnitOfWork{db: db}
}

// Execute 在单个事务内执行 fn，fn 返回错误即整体回滚
func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFrom 取出 context 中的事务句柄，没有则退回基础连接
func dbFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}
