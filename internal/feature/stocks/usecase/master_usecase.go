package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stockprice_backend/internal/feature/stocks/domain/entity"
	"stockprice_backend/internal/platform/retry"
)

// equitySegment is the master-list segment code of cash equities.
const equitySegment = "E"

// MasterSource pages through the broker's instrument master list. Pages start at 1.
type MasterSource interface {
	FetchPage(ctx context.Context, page int) ([]entity.MasterRecord, error)
}

// MasterRepository persists a full master list.
type MasterRepository interface {
	SyncMaster(ctx context.Context, exchangeID uint, records []entity.MasterRecord) (entity.SyncResult, error)
}

// ExchangeResolver maps exchange codes to ids.
type ExchangeResolver interface {
	ResolveExchangeID(ctx context.Context, code string) (uint, error)
}

// MasterOptions tunes the paginated fetch.
type MasterOptions struct {
	Retry     retry.Policy
	PagePause time.Duration // wait between pages; the source throttles bursts with 503s
	MaxPages  int           // safety stop; 0 means unlimited
}

// MasterUsecase refreshes the stock directory from the broker master list.
type MasterUsecase struct {
	source    MasterSource
	repo      MasterRepository
	exchanges ExchangeResolver
	opts      MasterOptions
}

// NewMasterUsecase creates a MasterUsecase.
func NewMasterUsecase(source MasterSource, repo MasterRepository, exchanges ExchangeResolver, opts MasterOptions) *MasterUsecase {
	return &MasterUsecase{source: source, repo: repo, exchanges: exchanges, opts: opts}
}

// Sync fetches every page of the master list and applies it to the stock directory.
// A page that still fails after the retry budget aborts the sync without writing,
// so a partial list never deactivates stocks.
func (u *MasterUsecase) Sync(ctx context.Context, exchangeCode string) (entity.SyncResult, error) {
	exchangeID, err := u.exchanges.ResolveExchangeID(ctx, exchangeCode)
	if err != nil {
		return entity.SyncResult{}, err
	}

	records, pages, err := u.fetchAll(ctx)
	if err != nil {
		return entity.SyncResult{Pages: pages}, err
	}
	slog.Info("stock master fetched", "exchange", exchangeCode, "pages", pages, "stocks", len(records))

	res, err := u.repo.SyncMaster(ctx, exchangeID, records)
	res.Pages = pages
	if err != nil {
		return res, err
	}
	slog.Info("stock master synced", "exchange", exchangeCode,
		"upserted", res.Upserted, "deactivated", res.Deactivated)
	return res, nil
}

func (u *MasterUsecase) fetchAll(ctx context.Context) ([]entity.MasterRecord, int, error) {
	seen := make(map[string]struct{})
	var out []entity.MasterRecord

	pages := 0
	for page := 1; u.opts.MaxPages == 0 || page <= u.opts.MaxPages; page++ {
		records, err := retry.Value(ctx, u.opts.Retry, fmt.Sprintf("master page %d", page),
			func(ctx context.Context) ([]entity.MasterRecord, error) {
				return u.source.FetchPage(ctx, page)
			})
		if err != nil {
			return nil, pages, fmt.Errorf("fetch master page %d: %w", page, err)
		}
		if len(records) == 0 {
			break
		}
		pages++

		for _, rec := range records {
			if rec.Segment != equitySegment || rec.Symbol == "" || strings.TrimSpace(rec.CompanyName) == "" {
				continue
			}
			rec.Symbol = strings.ToUpper(rec.Symbol)
			rec.CompanyName = strings.TrimSpace(rec.CompanyName)
			if _, dup := seen[rec.Symbol]; dup {
				continue
			}
			seen[rec.Symbol] = struct{}{}
			out = append(out, rec)
		}
		slog.Debug("stock master page fetched", "page", page, "collected", len(out))

		if u.opts.PagePause > 0 {
			select {
			case <-ctx.Done():
				return nil, pages, ctx.Err()
			case <-time.After(u.opts.PagePause):
			}
		}
	}
	return out, pages, nil
}
