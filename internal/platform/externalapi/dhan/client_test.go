package dhan

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockprice_backend/internal/feature/stocks/domain/entity"
	"stockprice_backend/internal/platform/externalapi/dhan/dto"
	platformhttp "stockprice_backend/internal/platform/http"
)

func newTestClient(url string) *Client {
	return NewClient(Config{BaseURL: url, PageSize: 50, Exchange: "NSE"}, &http.Client{Timeout: 5 * time.Second})
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	cfg := Config{BaseURL: "https://example.test", PageSize: 10}
	c := NewClient(cfg, &http.Client{})

	require.NotNil(t, c)
	assert.Equal(t, cfg, c.cfg)
}

func TestClient_FetchPage_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req dto.ScreenerRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 3, req.Data.Page)
		assert.Equal(t, 50, req.Data.Count)
		assert.Equal(t, "Mcap", req.Data.Sort)
		assert.Contains(t, req.Data.Params, dto.Param{Field: "Exch", Val: "NSE"})

		_, _ = w.Write([]byte(`{"data":[
			{"Sym":"TCS","DispSym":"Tata Consultancy Services","Isin":"INE467B01029","Seg":"E","Inst":"EQUITY","Sid":11536,"Seosym":"tata-consultancy-services-ltd","Exch":"NSE"},
			{"Sym":"ABC","DispSym":"Abc Ltd","Seg":"E","Sid":42}
		]}`))
	}))
	defer server.Close()

	records, err := newTestClient(server.URL).FetchPage(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, []entity.MasterRecord{
		{
			Symbol: "TCS", CompanyName: "Tata Consultancy Services", Exchange: "NSE",
			ISIN: "INE467B01029", Segment: "E", Instrument: "EQUITY", DhanID: "11536",
			Slug: "tata-consultancy-services-ltd",
		},
		{Symbol: "ABC", CompanyName: "Abc Ltd", Exchange: "NSE", Segment: "E", Instrument: "EQUITY", DhanID: "42"},
	}, records)
}

func TestClient_FetchPage_EmptyPage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	records, err := newTestClient(server.URL).FetchPage(context.Background(), 99)

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestClient_FetchPage_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		body      string
		transient bool
		isStatus  bool
	}{
		{name: "error: throttled with 503", status: http.StatusServiceUnavailable, body: "busy", transient: true, isStatus: true},
		{name: "error: forbidden", status: http.StatusForbidden, body: "no", isStatus: true},
		{name: "error: invalid json", status: http.StatusOK, body: "<html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).FetchPage(context.Background(), 1)

			require.Error(t, err)
			var se *platformhttp.StatusError
			assert.Equal(t, tt.isStatus, errors.As(err, &se))
			if tt.isStatus {
				assert.Equal(t, tt.transient, se.Transient())
			}
		})
	}
}
