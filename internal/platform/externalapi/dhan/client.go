package dhan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"stockprice_backend/internal/feature/stocks/domain/entity"
	"stockprice_backend/internal/feature/stocks/usecase"
	"stockprice_backend/internal/platform/externalapi/dhan/dto"
	platformhttp "stockprice_backend/internal/platform/http"
)

const provider = "dhan"

var fields = []string{"Sym", "DispSym", "Isin", "Seg", "Inst", "Sid", "Seosym", "Exch"}

// Client pages through the screener's equity list.
type Client struct {
	cfg    Config
	client *http.Client
}

var _ usecase.MasterSource = (*Client)(nil)

// NewClient creates a Client.
func NewClient(cfg Config, client *http.Client) *Client {
	return &Client{cfg: cfg, client: client}
}

// FetchPage returns one page of the equity list ordered by market cap. Pages start at 1.
func (c *Client) FetchPage(ctx context.Context, page int) ([]entity.MasterRecord, error) {
	payload, err := json.Marshal(dto.ScreenerRequest{Data: dto.ScreenerQuery{
		Sort:  "Mcap",
		Order: "desc",
		Count: c.cfg.PageSize,
		Params: []dto.Param{
			{Field: "OgInst", Val: "ES"},
			{Field: "Exch", Val: c.cfg.Exchange},
		},
		Fields: fields,
		Page:   page,
	}})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Origin", "https://dhan.co")
	req.Header.Set("Referer", "https://dhan.co/all-stocks-list/")

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

	var body dto.ScreenerResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("dhan: decode page %d: %w", page, err)
	}

	out := make([]entity.MasterRecord, 0, len(body.Data))
	for _, it := range body.Data {
		exch := it.Exch
		if exch == "" {
			exch = c.cfg.Exchange
		}
		inst := it.Inst
		if inst == "" {
			inst = "EQUITY"
		}
		out = append(out, entity.MasterRecord{
			Symbol:      it.Sym,
			CompanyName: it.DispSym,
			Exchange:    exch,
			ISIN:        it.Isin,
			Segment:     it.Seg,
			Instrument:  inst,
			DhanID:      it.Sid.String(),
			Slug:        it.Seosym,
		})
	}
	return out, nil
}
