package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"go.uber.org/zap"

	"github.com/skalibog/vpchart/internal/config"
	"github.com/skalibog/vpchart/pkg/logger"
	"github.com/skalibog/vpchart/pkg/models"
)

// Рынки Binance
const (
	MarketSpot    = "spot"
	MarketFutures = "futures"
)

// BinanceClient клиент для загрузки свечей Binance
type BinanceClient struct {
	futures *futures.Client
	spot    *binance.Client
	market  string
	limit   int
}

// NewBinanceClient создает новый клиент Binance
func NewBinanceClient(cfg config.BinanceConfig) (*BinanceClient, error) {
	futuresClient := futures.NewClient(cfg.APIKey, cfg.APISecret)
	spotClient := binance.NewClient(cfg.APIKey, cfg.APISecret)

	if cfg.Testnet {
		futuresClient.BaseURL = "https://testnet.binancefuture.com"
		// Для спот-клиента нужно изменить базовый URL
		spotClient.BaseURL = "https://testnet.binance.vision"
	}

	market := cfg.Market
	if market == "" {
		market = MarketSpot
	}
	if market != MarketSpot && market != MarketFutures {
		return nil, fmt.Errorf("неизвестный рынок Binance %q", cfg.Market)
	}

	limit := cfg.Limit
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}

	return &BinanceClient{
		futures: futuresClient,
		spot:    spotClient,
		market:  market,
		limit:   limit,
	}, nil
}

// SetBaseURL направляет запросы на другой адрес
func (c *BinanceClient) SetBaseURL(u string) {
	c.spot.BaseURL = u
	c.futures.BaseURL = u
}

func (c *BinanceClient) Name() string {
	return models.ProviderBinance
}

// FetchCandles получает последние свечи по инструменту
func (c *BinanceClient) FetchCandles(ctx context.Context, symbol, timeframe string) (*models.CandleSeries, error) {
	symbol, err := models.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	timeframe, err = models.NormalizeTimeframe(models.ProviderBinance, timeframe)
	if err != nil {
		return nil, err
	}

	rows, err := c.klines(ctx, symbol, timeframe)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения свечей: %w", err)
	}

	candles := models.Sanitize(rows)
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: Binance %s %s", ErrEmptySeries, symbol, timeframe)
	}

	series := models.NewSeries(symbol, timeframe, candles)
	logger.Info("Получены свечи Binance",
		zap.String("symbol", symbol),
		zap.String("timeframe", timeframe),
		zap.String("market", c.market),
		zap.Int("count", series.CandlesCount))
	return series, nil
}

func (c *BinanceClient) klines(ctx context.Context, symbol, interval string) ([]models.RawCandle, error) {
	if c.market == MarketFutures {
		klines, err := c.futures.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			Limit(c.limit).
			Do(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([]models.RawCandle, len(klines))
		for i, k := range klines {
			rows[i] = rawKline(k.OpenTime, k.Open, k.High, k.Low, k.Close, k.Volume)
		}
		return rows, nil
	}

	klines, err := c.spot.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(c.limit).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]models.RawCandle, len(klines))
	for i, k := range klines {
		rows[i] = rawKline(k.OpenTime, k.Open, k.High, k.Low, k.Close, k.Volume)
	}
	return rows, nil
}

// rawKline строковые цены Binance в сырую строку свечи
func rawKline(openTime int64, open, high, low, closePrice, volume string) models.RawCandle {
	return models.RawCandle{
		Time:   time.UnixMilli(openTime).UTC().Format(time.RFC3339),
		Open:   parseDecimal(open),
		High:   parseDecimal(high),
		Low:    parseDecimal(low),
		Close:  parseDecimal(closePrice),
		Volume: parseDecimal(volume),
	}
}

func parseDecimal(s string) *float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
