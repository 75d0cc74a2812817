// Package adapters implements the price and exchange stores on top of gorm.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stockprice_backend/internal/feature/prices/domain/entity"
	"stockprice_backend/internal/feature/prices/usecase"
	"stockprice_backend/internal/platform/db/pgerr"
)

type pricePostgres struct {
	db *gorm.DB
}

var _ usecase.PriceRepository = (*pricePostgres)(nil)

// NewPriceRepository returns the gorm-backed candle store.
func NewPriceRepository(db *gorm.DB) *pricePostgres {
	return &pricePostgres{db: db}
}

// PriceModel is a row of price_history. (stock_symbol, exchange_id, price_date) is unique.
type PriceModel struct {
	ID         uint      `gorm:"primaryKey"`
	Symbol     string    `gorm:"column:stock_symbol;size:32;not null;uniqueIndex:price_history_key,priority:1"`
	ExchangeID uint      `gorm:"not null;uniqueIndex:price_history_key,priority:2;index:price_history_exchange_date,priority:1"`
	PriceDate  time.Time `gorm:"type:date;not null;uniqueIndex:price_history_key,priority:3;index:price_history_exchange_date,priority:2"`

	Open   float64 `gorm:"column:price_open;not null"`
	High   float64 `gorm:"column:price_high;not null"`
	Low    float64 `gorm:"column:price_low;not null"`
	Close  float64 `gorm:"column:price_close;not null"`
	Volume int64   `gorm:"not null;default:0"`
	Source string  `gorm:"size:16;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PriceModel) TableName() string {
	return "price_history"
}

var priceKey = []clause.Column{{Name: "stock_symbol"}, {Name: "exchange_id"}, {Name: "price_date"}}

// latestPerStock restricts an aliased price_history p to each stock's newest row.
const latestPerStock = `p.price_date = (
	SELECT MAX(p2.price_date) FROM price_history p2
	WHERE p2.stock_symbol = p.stock_symbol AND p2.exchange_id = p.exchange_id)`

func toModel(e entity.Candle) PriceModel {
	source := e.Source
	if source == "" {
		source = entity.SourceYahoo
	}
	return PriceModel{
		Symbol:     e.Symbol,
		ExchangeID: e.ExchangeID,
		PriceDate:  e.Date,
		Open:       e.Open,
		High:       e.High,
		Low:        e.Low,
		Close:      e.Close,
		Volume:     e.Volume,
		Source:     source,
	}
}

func toEntity(m PriceModel) entity.Candle {
	y, mo, d := m.PriceDate.Date()
	return entity.Candle{
		Symbol:     m.Symbol,
		ExchangeID: m.ExchangeID,
		Date:       time.Date(y, mo, d, 0, 0, 0, 0, time.UTC),
		Open:       m.Open,
		High:       m.High,
		Low:        m.Low,
		Close:      m.Close,
		Volume:     m.Volume,
		Source:     m.Source,
	}
}

func toEntities(rows []PriceModel) []entity.Candle {
	out := make([]entity.Candle, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out
}

// ExistingDates returns the distinct stored price dates of (symbol, exchangeID) within [from, to].
func (r *pricePostgres) ExistingDates(ctx context.Context, symbol string, exchangeID uint, from, to time.Time) ([]time.Time, error) {
	var dates []time.Time
	err := r.db.WithContext(ctx).
		Model(&PriceModel{}).
		Where("stock_symbol = ? AND exchange_id = ? AND price_date BETWEEN ? AND ?", symbol, exchangeID, from, to).
		Distinct().
		Order("price_date").
		Pluck("price_date", &dates).Error
	if err != nil {
		return nil, pgerr.Wrap("existing price dates", err)
	}
	return dates, nil
}

// UpsertNoOverwrite inserts candles in one transaction. Rows whose key already
// exists are left untouched, so Inserted counts only new rows.
func (r *pricePostgres) UpsertNoOverwrite(ctx context.Context, candles []entity.Candle) (entity.UpsertResult, error) {
	return r.upsert(ctx, candles, clause.OnConflict{Columns: priceKey, DoNothing: true})
}

// UpsertOverwrite inserts candles in one transaction and replaces OHLCV and source
// of rows whose key already exists.
func (r *pricePostgres) UpsertOverwrite(ctx context.Context, candles []entity.Candle) (entity.UpsertResult, error) {
	return r.upsert(ctx, candles, clause.OnConflict{
		Columns: priceKey,
		DoUpdates: clause.AssignmentColumns([]string{
			"price_open", "price_high", "price_low", "price_close", "volume", "source", "updated_at",
		}),
	})
}

func (r *pricePostgres) upsert(ctx context.Context, candles []entity.Candle, onConflict clause.OnConflict) (entity.UpsertResult, error) {
	res := entity.UpsertResult{Attempted: len(candles)}
	if len(candles) == 0 {
		return res, nil
	}
	for _, c := range candles {
		if err := c.Validate(); err != nil {
			return res, err
		}
	}

	inserted := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range candles {
			m := toModel(c)
			result := tx.Clauses(onConflict).Create(&m)
			if result.Error != nil {
				return fmt.Errorf("%s %s: %w", c.Symbol, c.Date.Format("2006-01-02"), result.Error)
			}
			inserted += int(result.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return res, pgerr.Wrap("upsert price_history", err)
	}
	res.Inserted = inserted
	return res, nil
}

// Latest returns the newest candle of symbol on the exchange.
func (r *pricePostgres) Latest(ctx context.Context, symbol string, exchangeID uint) (entity.Candle, error) {
	var m PriceModel
	err := r.db.WithContext(ctx).
		Where("stock_symbol = ? AND exchange_id = ?", symbol, exchangeID).
		Order("price_date DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.Candle{}, fmt.Errorf("%w: %s", entity.ErrPriceNotFound, symbol)
	}
	if err != nil {
		return entity.Candle{}, pgerr.Wrap("latest price", err)
	}
	return toEntity(m), nil
}

// History returns the candles of symbol within [from, to] in ascending date order.
func (r *pricePostgres) History(ctx context.Context, symbol string, exchangeID uint, from, to time.Time) ([]entity.Candle, error) {
	var rows []PriceModel
	err := r.db.WithContext(ctx).
		Where("stock_symbol = ? AND exchange_id = ? AND price_date BETWEEN ? AND ?", symbol, exchangeID, from, to).
		Order("price_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pgerr.Wrap("price history", err)
	}
	return toEntities(rows), nil
}

// MarketLatest returns the newest candle of every stock on the exchange, ordered by symbol.
func (r *pricePostgres) MarketLatest(ctx context.Context, exchangeID uint) ([]entity.Candle, error) {
	var rows []PriceModel
	err := r.db.WithContext(ctx).
		Table("price_history AS p").
		Select("p.*").
		Where("p.exchange_id = ?", exchangeID).
		Where(latestPerStock).
		Order("p.stock_symbol ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pgerr.Wrap("market latest prices", err)
	}
	return toEntities(rows), nil
}

// LatestTradingDate returns the newest price date stored for the exchange.
// ok is false when the exchange has no prices at all.
func (r *pricePostgres) LatestTradingDate(ctx context.Context, exchangeID uint) (date time.Time, ok bool, err error) {
	var dates []time.Time
	err = r.db.WithContext(ctx).
		Model(&PriceModel{}).
		Where("exchange_id = ?", exchangeID).
		Order("price_date DESC").
		Limit(1).
		Pluck("price_date", &dates).Error
	if err != nil {
		return time.Time{}, false, pgerr.Wrap("latest trading date", err)
	}
	if len(dates) == 0 {
		return time.Time{}, false, nil
	}
	y, m, d := dates[0].Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true, nil
}

// CoverageCount counts the distinct stocks that have a candle on date.
func (r *pricePostgres) CoverageCount(ctx context.Context, exchangeID uint, date time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&PriceModel{}).
		Where("exchange_id = ? AND price_date = ?", exchangeID, date).
		Distinct("stock_symbol").
		Count(&n).Error
	if err != nil {
		return 0, pgerr.Wrap("coverage count", err)
	}
	return n, nil
}

type staleRow struct {
	Symbol    string    `gorm:"column:stock_symbol"`
	PriceDate time.Time `gorm:"column:price_date"`
}

// StaleStocks returns every stock whose newest price date is before cutoff,
// most stale first.
func (r *pricePostgres) StaleStocks(ctx context.Context, exchangeID uint, cutoff time.Time) ([]entity.StaleStock, error) {
	var rows []staleRow
	err := r.db.WithContext(ctx).
		Table("price_history AS p").
		Select("p.stock_symbol, p.price_date").
		Where("p.exchange_id = ?", exchangeID).
		Where(latestPerStock).
		Where("p.price_date < ?", cutoff).
		Order("p.price_date ASC, p.stock_symbol ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, pgerr.Wrap("stale stocks", err)
	}
	out := make([]entity.StaleStock, 0, len(rows))
	for _, row := range rows {
		y, m, d := row.PriceDate.Date()
		out = append(out, entity.StaleStock{
			Symbol:        row.Symbol,
			LastPriceDate: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		})
	}
	return out, nil
}
