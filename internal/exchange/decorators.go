package exchange

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/skalibog/vpchart/internal/cache"
	"github.com/skalibog/vpchart/internal/storage"
	"github.com/skalibog/vpchart/pkg/logger"
	"github.com/skalibog/vpchart/pkg/models"
)

func seriesKey(symbol, timeframe string) string {
	return normalizedSymbol(symbol) + "|" + strings.TrimSpace(timeframe)
}

// CachedFetcher отдаёт серию из кэша, при промахе загружает и кладёт её в кэш
type CachedFetcher struct {
	next  Fetcher
	cache cache.Cache
	ttl   time.Duration
}

// WithCache оборачивает источник кэшем; без кэша возвращает источник как есть
func WithCache(next Fetcher, c cache.Cache, ttl time.Duration) Fetcher {
	if c == nil || ttl <= 0 {
		return next
	}
	return &CachedFetcher{next: next, cache: c, ttl: ttl}
}

func (f *CachedFetcher) Name() string {
	return f.next.Name()
}

func (f *CachedFetcher) FetchCandles(ctx context.Context, symbol, timeframe string) (*models.CandleSeries, error) {
	key := f.next.Name() + ":" + seriesKey(symbol, timeframe)

	series, err := f.cache.Get(ctx, key)
	switch {
	case err == nil:
		logger.Debug("Серия из кэша", zap.String("key", key))
		return series, nil
	case !errors.Is(err, cache.ErrMiss):
		logger.Warn("Ошибка чтения кэша", zap.String("key", key), zap.Error(err))
	}

	series, err = f.next.FetchCandles(ctx, symbol, timeframe)
	if err != nil {
		return nil, err
	}
	if err := f.cache.Set(ctx, key, series, f.ttl); err != nil {
		logger.Warn("Ошибка записи в кэш", zap.String("key", key), zap.Error(err))
	}
	return series, nil
}

// ArchivedFetcher сохраняет загруженные серии в архив и отдаёт архивную
// копию, когда источник недоступен
type ArchivedFetcher struct {
	next  Fetcher
	store storage.Storage
	limit int
}

// WithArchive оборачивает источник архивом; без архива возвращает источник как есть
func WithArchive(next Fetcher, store storage.Storage, limit int) Fetcher {
	if store == nil {
		return next
	}
	return &ArchivedFetcher{next: next, store: store, limit: limit}
}

func (f *ArchivedFetcher) Name() string {
	return f.next.Name()
}

func (f *ArchivedFetcher) FetchCandles(ctx context.Context, symbol, timeframe string) (*models.CandleSeries, error) {
	series, err := f.next.FetchCandles(ctx, symbol, timeframe)
	if err == nil {
		if saveErr := f.store.SaveSeries(ctx, series); saveErr != nil {
			logger.Warn("Ошибка сохранения серии в архив",
				zap.String("key", series.Key()), zap.Error(saveErr))
		}
		return series, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	archived, archErr := f.store.LoadSeries(ctx, normalizedSymbol(symbol), strings.TrimSpace(timeframe), f.limit)
	if archErr != nil {
		return nil, multierr.Append(err, archErr)
	}
	logger.Warn("Источник недоступен, используется архив",
		zap.String("key", archived.Key()),
		zap.Int("candles", len(archived.Candles)),
		zap.Error(err))
	return archived, nil
}

func normalizedSymbol(symbol string) string {
	if s, err := models.NormalizeSymbol(symbol); err == nil {
		return s
	}
	return symbol
}
