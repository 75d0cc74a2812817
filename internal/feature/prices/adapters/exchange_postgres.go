package adapters

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"stockprice_backend/internal/feature/prices/domain/entity"
	"stockprice_backend/internal/feature/prices/usecase"
	"stockprice_backend/internal/platform/db/pgerr"
)

type exchangePostgres struct {
	db *gorm.DB
}

var _ usecase.ExchangeRepository = (*exchangePostgres)(nil)

// NewExchangeRepository returns the gorm-backed exchange directory.
func NewExchangeRepository(db *gorm.DB) *exchangePostgres {
	return &exchangePostgres{db: db}
}

// ExchangeModel is a row of exchanges.
type ExchangeModel struct {
	ID   uint   `gorm:"primaryKey"`
	Code string `gorm:"size:16;not null;uniqueIndex"`
	Name string `gorm:"size:128;not null"`
}

func (ExchangeModel) TableName() string {
	return "exchanges"
}

// ResolveExchangeID maps an exchange code to its id.
func (r *exchangePostgres) ResolveExchangeID(ctx context.Context, code string) (uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&ExchangeModel{}).
		Where("code = ?", code).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, pgerr.Wrap("resolve exchange", err)
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: %s", entity.ErrExchangeNotFound, code)
	}
	return ids[0], nil
}

// Ensure registers the exchange if it does not exist yet and returns its id.
func (r *exchangePostgres) Ensure(ctx context.Context, code, name string) (uint, error) {
	m := ExchangeModel{Code: code, Name: name}
	if err := r.db.WithContext(ctx).Where(ExchangeModel{Code: code}).FirstOrCreate(&m).Error; err != nil {
		return 0, pgerr.Wrap("ensure exchange", err)
	}
	return m.ID, nil
}
