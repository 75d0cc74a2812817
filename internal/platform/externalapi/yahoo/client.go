package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"stockprice_backend/internal/feature/prices/domain/entity"
	"stockprice_backend/internal/platform/externalapi/yahoo/dto"
	platformhttp "stockprice_backend/internal/platform/http"
	"stockprice_backend/internal/shared/tradingcal"
)

const provider = "yahoo"

// Client fetches daily sessions from the chart endpoint.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient creates a Client.
func NewClient(cfg Config, client *http.Client) *Client {
	return &Client{cfg: cfg, client: client}
}

// History returns the daily sessions of symbol between the start of from and the
// end of to, both taken as UTC dates.
func (c *Client) History(ctx context.Context, symbol string, from, to time.Time) ([]entity.Session, error) {
	period1 := tradingcal.Day(from).Unix()
	period2 := tradingcal.Day(to).Add(24*time.Hour - time.Second).Unix()

	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("period1", strconv.FormatInt(period1, 10))
	q.Set("period2", strconv.FormatInt(period2, 10))
	return c.chart(ctx, symbol, q)
}

// Recent returns the daily sessions of symbol over a relative range such as "5d".
func (c *Client) Recent(ctx context.Context, symbol, rng string) ([]entity.Session, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("range", rng)
	return c.chart(ctx, symbol, q)
}

func (c *Client) chart(ctx context.Context, symbol string, q url.Values) ([]entity.Session, error) {
	u := fmt.Sprintf("%s/%s?%s", c.cfg.BaseURL, url.PathEscape(symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if err := platformhttp.CheckStatus(provider, res); err != nil {
		return nil, err
	}

	var body dto.ChartResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", entity.ErrProviderMalformed, symbol, err)
	}
	return toSessions(symbol, body)
}

// toSessions checks the parallel-array shape and zips it into sessions.
func toSessions(symbol string, body dto.ChartResponse) ([]entity.Session, error) {
	if len(body.Chart.Result) == 0 {
		if e := body.Chart.Error; e != nil {
			return nil, fmt.Errorf("%w: %s: %s %s", entity.ErrProviderEmpty, symbol, e.Code, e.Description)
		}
		return nil, fmt.Errorf("%w: %s: no result", entity.ErrProviderEmpty, symbol)
	}
	r := body.Chart.Result[0]
	if len(r.Timestamp) == 0 {
		return nil, fmt.Errorf("%w: %s: no timestamps", entity.ErrProviderEmpty, symbol)
	}
	if len(r.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: %s: no quote block", entity.ErrProviderMalformed, symbol)
	}
	q := r.Indicators.Quote[0]
	n := len(r.Timestamp)
	if len(q.Open) != n || len(q.High) != n || len(q.Low) != n || len(q.Close) != n {
		return nil, fmt.Errorf("%w: %s: %d timestamps, open=%d high=%d low=%d close=%d",
			entity.ErrProviderMalformed, symbol, n, len(q.Open), len(q.High), len(q.Low), len(q.Close))
	}

	sessions := make([]entity.Session, 0, n)
	for i, ts := range r.Timestamp {
		s := entity.Session{
			Date:  tradingcal.Day(time.Unix(ts, 0).UTC()),
			Open:  q.Open[i],
			High:  q.High[i],
			Low:   q.Low[i],
			Close: q.Close[i],
		}
		// volume is optional and may be shorter on some listings
		if i < len(q.Volume) {
			s.Volume = q.Volume[i]
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}
