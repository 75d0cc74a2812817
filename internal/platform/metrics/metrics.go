// Package metrics exposes Prometheus instruments for the backfill pipeline and the HTTP server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stockprice_backend/internal/feature/backfill/domain/entity"
	"stockprice_backend/internal/feature/backfill/usecase"
)

// Config names the metric families.
type Config struct {
	Namespace string `envconfig:"METRICS_NAMESPACE" default:"stockprice"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Registry owns the collectors of one process.
type Registry struct {
	reg *prometheus.Registry

	fetchFailures   *prometheus.CounterVec
	runs            *prometheus.CounterVec
	runDuration     prometheus.Histogram
	candlesFetched  prometheus.Counter
	candlesInserted prometheus.Counter
	failedStocks    prometheus.Counter
	lastRunStats    *prometheus.GaugeVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

var _ usecase.Recorder = (*Registry)(nil)

// New creates a Registry with Go runtime and process collectors installed.
func New(cfg Config) *Registry {
	ns := cfg.Namespace
	if ns == "" {
		ns = "stockprice"
	}

	r := &Registry{
		reg: prometheus.NewRegistry(),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "backfill", Name: "fetch_failures_total",
			Help: "Provider fetch failures per symbol variant and range, by kind.",
		}, []string{"kind"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "backfill", Name: "runs_total",
			Help: "Backfill runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: "backfill", Name: "run_duration_seconds",
			Help:    "Wall time of backfill runs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		}),
		candlesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "backfill", Name: "candles_fetched_total",
			Help: "Candles returned by the provider.",
		}),
		candlesInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "backfill", Name: "candles_inserted_total",
			Help: "Candles newly written to the store.",
		}),
		failedStocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "backfill", Name: "failed_stocks_total",
			Help: "Stocks whose backfill failed.",
		}),
		lastRunStats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: "backfill", Name: "last_run",
			Help: "Counters of the most recent backfill run.",
		}, []string{"stat"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.fetchFailures, r.runs, r.runDuration,
		r.candlesFetched, r.candlesInserted, r.failedStocks, r.lastRunStats,
		r.httpRequests, r.httpDuration,
	)
	return r
}

// FetchFailed counts one failed variant fetch.
func (r *Registry) FetchFailed(kind string) {
	r.fetchFailures.WithLabelValues(kind).Inc()
}

// RunFinished records the outcome and counters of a backfill run.
func (r *Registry) RunFinished(outcome string, stats entity.Stats, elapsed time.Duration) {
	r.runs.WithLabelValues(outcome).Inc()
	r.runDuration.Observe(elapsed.Seconds())
	r.candlesFetched.Add(float64(stats.CandlesFetched))
	r.candlesInserted.Add(float64(stats.CandlesInserted))
	r.failedStocks.Add(float64(stats.FailedStocks))

	r.lastRunStats.WithLabelValues("stocks_processed").Set(float64(stats.StocksProcessed))
	r.lastRunStats.WithLabelValues("stocks_with_gaps").Set(float64(stats.StocksWithGaps))
	r.lastRunStats.WithLabelValues("missing_dates").Set(float64(stats.TotalMissingDates))
	r.lastRunStats.WithLabelValues("ranges").Set(float64(stats.TotalRanges))
	r.lastRunStats.WithLabelValues("candles_fetched").Set(float64(stats.CandlesFetched))
	r.lastRunStats.WithLabelValues("candles_inserted").Set(float64(stats.CandlesInserted))
	r.lastRunStats.WithLabelValues("failed_stocks").Set(float64(stats.FailedStocks))
}

// Middleware instruments gin requests. Unmatched routes are labeled "unmatched".
func (r *Registry) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		r.httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		r.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
