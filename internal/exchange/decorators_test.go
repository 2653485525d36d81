package exchange

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skalibog/vpchart/internal/cache"
	"github.com/skalibog/vpchart/internal/storage"
	"github.com/skalibog/vpchart/pkg/models"
)

type stubFetcher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *stubFetcher) Name() string { return "stub" }

func (f *stubFetcher) FetchCandles(_ context.Context, symbol, timeframe string) (*models.CandleSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return models.NewSeries(symbol, timeframe, []models.Candle{
		{Time: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
	}), nil
}

type stubStorage struct {
	saved  []*models.CandleSeries
	loaded *models.CandleSeries
	err    error
}

func (s *stubStorage) SaveSeries(_ context.Context, series *models.CandleSeries) error {
	s.saved = append(s.saved, series)
	return nil
}

func (s *stubStorage) LoadSeries(_ context.Context, symbol, timeframe string, _ int) (*models.CandleSeries, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.loaded == nil || s.loaded.Key() != symbol+"|"+timeframe {
		return nil, storage.ErrNotFound
	}
	return s.loaded, nil
}

func (s *stubStorage) Close() {}

func TestWithCache(t *testing.T) {
	src := &stubFetcher{}
	f := WithCache(src, cache.NewMemory(), time.Minute)
	ctx := context.Background()

	first, err := f.FetchCandles(ctx, "SBER", "1h")
	require.NoError(t, err)
	second, err := f.FetchCandles(ctx, " sber ", "1h")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, src.calls)

	_, err = f.FetchCandles(ctx, "SBER", "1d")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, "stub", f.Name())
}

func TestWithCache_ErrorsNotCached(t *testing.T) {
	src := &stubFetcher{err: errors.New("down")}
	f := WithCache(src, cache.NewMemory(), time.Minute)

	_, err := f.FetchCandles(context.Background(), "SBER", "1h")
	require.Error(t, err)
	_, err = f.FetchCandles(context.Background(), "SBER", "1h")
	require.Error(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestWithCache_Disabled(t *testing.T) {
	src := &stubFetcher{}
	assert.Same(t, Fetcher(src), WithCache(src, nil, time.Minute))
	assert.Same(t, Fetcher(src), WithCache(src, cache.NewMemory(), 0))
}

func TestWithArchive_SavesFetched(t *testing.T) {
	store := &stubStorage{}
	f := WithArchive(&stubFetcher{}, store, 100)

	series, err := f.FetchCandles(context.Background(), "SBER", "1h")
	require.NoError(t, err)
	require.Len(t, store.saved, 1)
	assert.Same(t, series, store.saved[0])
}

func TestWithArchive_FallsBack(t *testing.T) {
	archived := models.NewSeries("SBER", "1h", []models.Candle{{Open: 1, High: 1, Low: 1, Close: 1}})
	store := &stubStorage{loaded: archived}
	f := WithArchive(&stubFetcher{err: errors.New("down")}, store, 100)

	series, err := f.FetchCandles(context.Background(), "sber", "1h")
	require.NoError(t, err)
	assert.Same(t, archived, series)

	_, err = f.FetchCandles(context.Background(), "GAZP", "1h")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Contains(t, err.Error(), "down")
}

func TestWithArchive_CancelledSkipsArchive(t *testing.T) {
	store := &stubStorage{loaded: models.NewSeries("SBER", "1h", nil)}
	f := WithArchive(&stubFetcher{err: context.Canceled}, store, 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.FetchCandles(ctx, "SBER", "1h")
	assert.ErrorIs(t, err, context.Canceled)
}
