package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skalibog/vpchart/internal/config"
	"github.com/skalibog/vpchart/pkg/models"
)

const healthPass = `{"name":"influxdb","message":"ready for queries and writes","status":"pass","checks":[],"version":"v2.7.0","commit":"test"}`

const queryCSV = "#datatype,string,long,dateTime:RFC3339,string,string,double,double,double,double,double\r\n" +
	"#group,false,false,false,true,true,false,false,false,false,false\r\n" +
	"#default,_result,,,,,,,,,\r\n" +
	",result,table,_time,symbol,timeframe,close,high,low,open,volume\r\n" +
	",,0,2024-01-01T11:00:00Z,SBER,1h,2.5,3,1.5,2,20\r\n" +
	",,0,2024-01-01T10:00:00Z,SBER,1h,1.5,2,0.5,1,10\r\n" +
	"\r\n"

type fakeInflux struct {
	mu     sync.Mutex
	writes []string
	query  string
	health string
}

func (f *fakeInflux) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, f.health)
	})
	mux.HandleFunc("/api/v2/write", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Error(err)
		}
		f.mu.Lock()
		f.writes = append(f.writes, string(body))
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/v2/query", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.query = string(body)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_, _ = io.WriteString(w, queryCSV)
	})
	return mux
}

func newTestStorage(t *testing.T) (*InfluxDBStorage, *fakeInflux) {
	t.Helper()
	fake := &fakeInflux{health: healthPass}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	s, err := NewInfluxDBStorage(context.Background(), config.StorageConfig{
		Type:         "influxdb",
		URL:          srv.URL,
		Token:        "token",
		Organization: "org",
		Bucket:       "candles",
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, fake
}

func TestCandlePoint(t *testing.T) {
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	p := candlePoint("SBER", "1h", models.Candle{Time: ts, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10})

	line := write.PointToLineProtocol(p, time.Second)
	assert.Equal(t, "candles,symbol=SBER,timeframe=1h close=1.5,high=2,low=0.5,open=1,volume=10 1704103200\n", line)
}

func TestCandlesQuery(t *testing.T) {
	q := candlesQuery("candles", `SB"ER`, "1h", 0)
	assert.Contains(t, q, `from(bucket: "candles")`)
	assert.Contains(t, q, `r.symbol == "SB\"ER"`)
	assert.Contains(t, q, `r.timeframe == "1h"`)
	assert.Contains(t, q, "limit(n: 5000)")

	assert.Contains(t, candlesQuery("candles", "SBER", "1h", 300), "limit(n: 300)")
}

func TestSaveSeries(t *testing.T) {
	s, fake := newTestStorage(t)
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	series := models.NewSeries("SBER", "1h", []models.Candle{
		{Time: ts, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Open: 1, High: 2, Low: 0.5, Close: 1.5},
		{Time: ts.Add(time.Hour), Open: 2, High: 3, Low: 1.5, Close: 2.5, Volume: 20},
	})
	require.NoError(t, s.SaveSeries(context.Background(), series))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.writes, 1)
	lines := strings.Split(strings.TrimSpace(fake.writes[0]), "\n")
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "candles,symbol=SBER,timeframe=1h "))
}

func TestSaveSeries_NothingToWrite(t *testing.T) {
	s, fake := newTestStorage(t)

	require.NoError(t, s.SaveSeries(context.Background(), nil))
	require.NoError(t, s.SaveSeries(context.Background(), models.NewSeries("SBER", "1h", []models.Candle{{Open: 1, High: 1, Low: 1, Close: 1}})))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Empty(t, fake.writes)
}

func TestLoadSeries(t *testing.T) {
	s, fake := newTestStorage(t)

	series, err := s.LoadSeries(context.Background(), "SBER", "1h", 100)
	require.NoError(t, err)
	require.Len(t, series.Candles, 2)

	assert.Equal(t, "SBER|1h", series.Key())
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), series.Candles[0].Time)
	assert.Equal(t, models.Candle{
		Time: time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC), Open: 2, High: 3, Low: 1.5, Close: 2.5, Volume: 20,
	}, series.Candles[1])

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Contains(t, fake.query, "limit(n: 100)")
}

func TestNewInfluxDBStorage_Unhealthy(t *testing.T) {
	fake := &fakeInflux{health: `{"name":"influxdb","status":"fail","checks":[]}`}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	_, err := NewInfluxDBStorage(context.Background(), config.StorageConfig{URL: srv.URL, Bucket: "candles"})
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	s, err := New(context.Background(), config.StorageConfig{Type: "none"})
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = New(context.Background(), config.StorageConfig{Type: "postgres"})
	assert.Error(t, err)
}
