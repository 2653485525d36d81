package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skalibog/vpchart/internal/config"
	"github.com/skalibog/vpchart/internal/platform/httpclient"
	"github.com/skalibog/vpchart/pkg/models"
)

const moexBody = `{
  "candles": {
    "columns": ["open", "close", "high", "low", "value", "volume", "begin", "end"],
    "data": [
      [270.1, 271.5, 272.0, 269.8, 1.0e9, 1200, "2024-05-06 10:00:00", "2024-05-06 10:59:59"],
      [271.5, 270.9, 272.3, 270.2, 1.1e9, 900,  "2024-05-06 11:00:00", "2024-05-06 11:59:59"],
      [null,  270.0, 271.0, 269.0, 1.0e9, 500,  "2024-05-06 12:00:00", "2024-05-06 12:59:59"],
      [270.9, 272.2, 273.0, 270.5, 1.2e9, "1500", "2024-05-06 13:00:00", "2024-05-06 13:59:59"]
    ]
  }
}`

func testMOEXClient(t *testing.T, handler http.HandlerFunc, maxCandles int) *MOEXClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Default().Source.MOEX
	cfg.BaseURL = srv.URL + "/iss"
	cfg.MaxCandles = maxCandles
	client := httpclient.New(httpclient.Options{
		Timeout:           time.Second,
		RequestsPerSecond: 100,
		InitialInterval:   time.Millisecond,
	})

	c := NewMOEXClient(cfg, client)
	c.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestMOEX_FetchCandles(t *testing.T) {
	c := testMOEXClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/iss/engines/stock/markets/shares/securities/SBER/candles.json", r.URL.Path)
		assert.Equal(t, "60", r.URL.Query().Get("interval"))
		assert.Equal(t, "2023-06-02", r.URL.Query().Get("from"))
		assert.Equal(t, "5000", r.URL.Query().Get("limit"))
		assert.Equal(t, "vpchart", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(moexBody))
	}, 2000)

	series, err := c.FetchCandles(context.Background(), "sber", "1h")
	require.NoError(t, err)

	assert.Equal(t, "SBER", series.Symbol)
	assert.Equal(t, "1h", series.Timeframe)
	require.Equal(t, 3, series.CandlesCount, "строка с пустым open отброшена")

	first := series.Candles[0]
	assert.Equal(t, time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC), first.Time)
	assert.Equal(t, 270.1, first.Open)
	assert.Equal(t, 271.5, first.Close)
	assert.Equal(t, 1200.0, first.Volume)
	assert.Equal(t, 1500.0, series.Candles[2].Volume)
	assert.Equal(t, "SBER|1h", series.Key())
}

func TestMOEX_KeepsNewest(t *testing.T) {
	c := testMOEXClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(moexBody))
	}, 2)

	series, err := c.FetchCandles(context.Background(), "SBER", "1d")
	require.NoError(t, err)
	require.Len(t, series.Candles, 2)
	assert.Equal(t, 13, series.Candles[1].Time.Hour())
}

func TestMOEX_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"no candles block", `{"history": {}}`, ErrUnexpectedFormat},
		{"missing column", `{"candles": {"columns": ["open","close","high","low","begin"], "data": []}}`, ErrUnexpectedFormat},
		{"empty data", `{"candles": {"columns": ["open","close","high","low","volume","begin"], "data": []}}`, ErrEmptySeries},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testMOEXClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}, 2000)
			_, err := c.FetchCandles(context.Background(), "SBER", "1h")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMOEX_RejectsBadRequest(t *testing.T) {
	c := testMOEXClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("запрос не должен уходить к источнику")
	}, 2000)

	_, err := c.FetchCandles(context.Background(), "SB/ER", "1h")
	assert.ErrorIs(t, err, models.ErrInvalidSymbol)

	_, err = c.FetchCandles(context.Background(), "SBER", "4h")
	assert.ErrorIs(t, err, models.ErrInvalidTimeframe)
}

func TestMOEX_UpstreamFailure(t *testing.T) {
	c := testMOEXClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, 2000)

	_, err := c.FetchCandles(context.Background(), "SBER", "1h")
	require.Error(t, err)
	assert.True(t, httpclient.IsStatus(err, http.StatusNotFound))
}
