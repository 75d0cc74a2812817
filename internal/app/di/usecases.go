package di

import (
	"stockprice_backend/internal/config"
	backfillusecase "stockprice_backend/internal/feature/backfill/usecase"
	latestadapters "stockprice_backend/internal/feature/latestprices/adapters"
	latestusecase "stockprice_backend/internal/feature/latestprices/usecase"
	healthusecase "stockprice_backend/internal/feature/markethealth/usecase"
	pricesadapters "stockprice_backend/internal/feature/prices/adapters"
	pricesusecase "stockprice_backend/internal/feature/prices/usecase"
	stocksadapters "stockprice_backend/internal/feature/stocks/adapters"
	stocksusecase "stockprice_backend/internal/feature/stocks/usecase"
	"stockprice_backend/internal/platform/retry"
)

func retryPolicy(cfg config.Retry) retry.Policy {
	return retry.Policy{MaxAttempts: cfg.Attempts, Unit: cfg.Unit}
}

// NewBackfillUsecase wires the historical backfill. recorder may be nil.
func NewBackfillUsecase(cfg config.Config, i *Infra, recorder backfillusecase.Recorder) (*backfillusecase.BackfillUsecase, error) {
	yahooClient, err := NewYahooClient()
	if err != nil {
		return nil, err
	}
	store, err := NewPriceStore(i, cfg.Cache)
	if err != nil {
		return nil, err
	}
	locker, err := NewLocker(i.Redis, i.DB)
	if err != nil {
		return nil, err
	}

	fetcher := backfillusecase.NewCandleFetcher(yahooClient, NewProviderLimiter(cfg.Provider), recorder,
		backfillusecase.FetcherOptions{
			Variants:       cfg.Backfill.Variants,
			VariantTimeout: cfg.Backfill.VariantTimeout,
		})

	return backfillusecase.NewBackfillUsecase(
		stocksadapters.NewStockRepository(i.DB),
		pricesadapters.NewExchangeRepository(i.DB),
		store,
		fetcher,
		locker,
		recorder,
		backfillusecase.Options{
			ExchangeCode:   cfg.ExchangeCode,
			RetentionYears: cfg.Backfill.RetentionYears,
			Workers:        cfg.Backfill.Workers,
			RunTimeout:     cfg.Backfill.RunTimeout,
			LockTTL:        cfg.Backfill.LockTTL,
		},
	), nil
}

// NewLatestPricesUsecase wires the latest-price fetch and seed steps.
func NewLatestPricesUsecase(cfg config.Config, i *Infra) (*latestusecase.LatestPricesUsecase, error) {
	yahooClient, err := NewYahooClient()
	if err != nil {
		return nil, err
	}
	store, err := NewPriceStore(i, cfg.Cache)
	if err != nil {
		return nil, err
	}

	return latestusecase.NewLatestPricesUsecase(
		stocksadapters.NewStockRepository(i.DB),
		yahooClient,
		NewProviderLimiter(cfg.Provider),
		latestadapters.NewFileArtifactStore(cfg.Latest.ArtifactPath),
		pricesadapters.NewExchangeRepository(i.DB),
		store,
		latestusecase.Options{
			ExchangeCode: cfg.ExchangeCode,
			Variants:     cfg.Latest.Variants,
			Range:        cfg.Latest.Range,
			Timeout:      cfg.Latest.Timeout,
			Workers:      cfg.Latest.Workers,
			Retry:        retryPolicy(cfg.Retry),
		},
	), nil
}

// NewMasterUsecase wires the stock master sync.
func NewMasterUsecase(cfg config.Config, i *Infra) (*stocksusecase.MasterUsecase, error) {
	dhanClient, err := NewDhanClient()
	if err != nil {
		return nil, err
	}
	return stocksusecase.NewMasterUsecase(
		dhanClient,
		stocksadapters.NewStockRepository(i.DB),
		pricesadapters.NewExchangeRepository(i.DB),
		stocksusecase.MasterOptions{
			Retry:     retryPolicy(cfg.Retry),
			PagePause: cfg.Master.PagePause,
			MaxPages:  cfg.Master.MaxPages,
		},
	), nil
}

// ReadUsecases are the usecases behind the HTTP read endpoints.
type ReadUsecases struct {
	Prices       *pricesusecase.PricesUsecase
	Stocks       *stocksusecase.StocksUsecase
	MarketHealth *healthusecase.MarketHealthUsecase
}

// NewReadUsecases wires the HTTP read path. Price reads go through the cache.
func NewReadUsecases(cfg config.Config, i *Infra) (*ReadUsecases, error) {
	store, err := NewPriceStore(i, cfg.Cache)
	if err != nil {
		return nil, err
	}
	exchanges := pricesadapters.NewExchangeRepository(i.DB)
	stockRepo := stocksadapters.NewStockRepository(i.DB)

	return &ReadUsecases{
		Prices: pricesusecase.NewPricesUsecase(store, exchanges),
		Stocks: stocksusecase.NewStocksUsecase(stockRepo),
		// health queries must see the store uncached
		MarketHealth: healthusecase.NewMarketHealthUsecase(pricesadapters.NewPriceRepository(i.DB), stockRepo, exchanges),
	}, nil
}
