package exchange

import (
	"context"
	"errors"

	"github.com/skalibog/vpchart/pkg/models"
)

var (
	// ErrEmptySeries источник не вернул ни одной корректной свечи
	ErrEmptySeries = errors.New("источник вернул пустую серию свечей")
	// ErrUnexpectedFormat ответ источника не удалось разобрать
	ErrUnexpectedFormat = errors.New("неожиданный формат ответа источника")
)

// Fetcher загружает серию свечей у внешнего поставщика
type Fetcher interface {
	Name() string
	FetchCandles(ctx context.Context, symbol, timeframe string) (*models.CandleSeries, error)
}

// keepNewest оставляет не больше limit последних свечей
func keepNewest(candles []models.Candle, limit int) []models.Candle {
	if limit > 0 && len(candles) > limit {
		return candles[len(candles)-limit:]
	}
	return candles
}
