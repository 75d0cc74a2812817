// Package adapters implements the stock directory on top of gorm.
package adapters

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stockprice_backend/internal/feature/stocks/domain/entity"
	"stockprice_backend/internal/feature/stocks/usecase"
	"stockprice_backend/internal/platform/db/pgerr"
)

type stockPostgres struct {
	db  *gorm.DB
	now func() time.Time
}

var (
	_ usecase.StockRepository  = (*stockPostgres)(nil)
	_ usecase.MasterRepository = (*stockPostgres)(nil)
)

// NewStockRepository returns the gorm-backed stock directory.
func NewStockRepository(db *gorm.DB) *stockPostgres {
	return &stockPostgres{db: db, now: time.Now}
}

// StockModel is a row of stocks.
type StockModel struct {
	ID          uint       `gorm:"primaryKey"`
	Symbol      string     `gorm:"size:32;not null;uniqueIndex"`
	Name        string     `gorm:"size:255;not null"`
	ISIN        string     `gorm:"column:isin;size:16"`
	Instrument  string     `gorm:"size:32"`
	DhanID      string     `gorm:"size:32"`
	Active      bool       `gorm:"not null;index"`
	ListedDate  *time.Time `gorm:"type:date"`
	LastUpdated time.Time  `gorm:"not null"`
}

func (StockModel) TableName() string {
	return "stocks"
}

// StockExchangeModel links a stock to an exchange it trades on.
type StockExchangeModel struct {
	StockSymbol string `gorm:"primaryKey;size:32"`
	ExchangeID  uint   `gorm:"primaryKey"`
}

func (StockExchangeModel) TableName() string {
	return "stock_exchanges"
}

// ListActive returns all active stocks ordered by symbol.
func (r *stockPostgres) ListActive(ctx context.Context) ([]entity.Stock, error) {
	var rows []StockModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("symbol ASC").
		Find(&rows).Error; err != nil {
		return nil, pgerr.Wrap("list active stocks", err)
	}
	out := make([]entity.Stock, 0, len(rows))
	for _, m := range rows {
		s := entity.Stock{Symbol: m.Symbol, Name: m.Name, ISIN: m.ISIN, Active: m.Active}
		if m.ListedDate != nil {
			y, mo, d := m.ListedDate.Date()
			listed := time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
			s.ListedDate = &listed
		}
		out = append(out, s)
	}
	return out, nil
}

// CountActive counts the active stocks.
func (r *stockPostgres) CountActive(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).
		Model(&StockModel{}).
		Where("active = ?", true).
		Count(&n).Error; err != nil {
		return 0, pgerr.Wrap("count active stocks", err)
	}
	return n, nil
}

// SyncMaster upserts every record as an active stock listed on exchangeID and marks
// stocks missing from records inactive, all in one transaction.
func (r *stockPostgres) SyncMaster(ctx context.Context, exchangeID uint, records []entity.MasterRecord) (entity.SyncResult, error) {
	res := entity.SyncResult{Received: len(records)}
	if len(records) == 0 {
		return res, entity.ErrEmptyMaster
	}

	now := r.now().UTC()
	symbols := make([]string, 0, len(records))

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range records {
			m := StockModel{
				Symbol:      rec.Symbol,
				Name:        rec.CompanyName,
				ISIN:        rec.ISIN,
				Instrument:  rec.Instrument,
				DhanID:      rec.DhanID,
				Active:      true,
				LastUpdated: now,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "symbol"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "isin", "instrument", "dhan_id", "active", "last_updated"}),
			}).Create(&m).Error; err != nil {
				return err
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&StockExchangeModel{StockSymbol: rec.Symbol, ExchangeID: exchangeID}).Error; err != nil {
				return err
			}
			symbols = append(symbols, rec.Symbol)
		}

		deactivate := tx.Model(&StockModel{}).
			Where("active = ? AND symbol NOT IN ?", true, symbols).
			Updates(map[string]any{"active": false, "last_updated": now})
		if deactivate.Error != nil {
			return deactivate.Error
		}
		res.Deactivated = int(deactivate.RowsAffected)
		return nil
	})
	if err != nil {
		return entity.SyncResult{Received: len(records)}, pgerr.Wrap("sync stock master", err)
	}
	res.Upserted = len(symbols)
	return res, nil
}
