package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/skalibog/vpchart/internal/config"
	"github.com/skalibog/vpchart/internal/platform/httpclient"
	"github.com/skalibog/vpchart/pkg/logger"
	"github.com/skalibog/vpchart/pkg/models"
)

// Значения interval для /candles.json MOEX ISS
var moexIntervals = map[string]int{
	"10m": 10,
	"1h":  60,
	"1d":  24,
}

// MOEXClient загрузка свечей из MOEX ISS
type MOEXClient struct {
	cfg  config.MOEXConfig
	http *httpclient.Client
	now  func() time.Time
}

// NewMOEXClient создает клиент MOEX ISS
func NewMOEXClient(cfg config.MOEXConfig, client *httpclient.Client) *MOEXClient {
	return &MOEXClient{cfg: cfg, http: client, now: time.Now}
}

func (c *MOEXClient) Name() string {
	return models.ProviderMOEX
}

type moexResponse struct {
	Candles *struct {
		Columns []string            `json:"columns"`
		Data    [][]json.RawMessage `json:"data"`
	} `json:"candles"`
}

// FetchCandles получает свечи за последний год (history_days) и оставляет
// не больше max_candles последних
func (c *MOEXClient) FetchCandles(ctx context.Context, symbol, timeframe string) (*models.CandleSeries, error) {
	symbol, err := models.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	timeframe, err = models.NormalizeTimeframe(models.ProviderMOEX, timeframe)
	if err != nil {
		return nil, err
	}

	u := c.candlesURL(symbol, timeframe)
	logger.Debug("Запрос свечей MOEX", zap.String("url", u))

	var resp moexResponse
	headers := map[string]string{"User-Agent": c.cfg.UserAgent}
	if err := c.http.GetJSON(ctx, u, headers, &resp); err != nil {
		return nil, fmt.Errorf("ошибка получения свечей MOEX %s %s: %w", symbol, timeframe, err)
	}

	rows, err := parseMOEXCandles(resp)
	if err != nil {
		return nil, err
	}

	candles := keepNewest(models.Sanitize(rows), c.cfg.MaxCandles)
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: MOEX %s %s", ErrEmptySeries, symbol, timeframe)
	}

	series := models.NewSeries(symbol, timeframe, candles)
	logger.Info("Получены свечи MOEX",
		zap.String("symbol", symbol),
		zap.String("timeframe", timeframe),
		zap.String("from", series.From),
		zap.Int("count", series.CandlesCount))
	return series, nil
}

func (c *MOEXClient) candlesURL(symbol, timeframe string) string {
	days := c.cfg.HistoryDays
	if days <= 0 {
		days = 365
	}
	from := c.now().AddDate(0, 0, -days).Format("2006-01-02")

	q := url.Values{}
	q.Set("interval", strconv.Itoa(moexIntervals[timeframe]))
	q.Set("from", from)
	if c.cfg.Limit > 0 {
		q.Set("limit", strconv.Itoa(c.cfg.Limit))
	}

	return fmt.Sprintf("%s/engines/%s/markets/%s/securities/%s/candles.json?%s",
		strings.TrimRight(c.cfg.BaseURL, "/"),
		url.PathEscape(c.cfg.Engine),
		url.PathEscape(c.cfg.Market),
		url.PathEscape(symbol),
		q.Encode())
}

// parseMOEXCandles раскладывает блок columns/data в сырые строки свечей
func parseMOEXCandles(resp moexResponse) ([]models.RawCandle, error) {
	if resp.Candles == nil || resp.Candles.Columns == nil || resp.Candles.Data == nil {
		return nil, fmt.Errorf("%w: нет блока candles", ErrUnexpectedFormat)
	}

	idx := make(map[string]int, len(resp.Candles.Columns))
	for i, col := range resp.Candles.Columns {
		idx[col] = i
	}
	for _, col := range []string{"begin", "open", "high", "low", "close", "volume"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: нет колонки %q", ErrUnexpectedFormat, col)
		}
	}

	rows := make([]models.RawCandle, 0, len(resp.Candles.Data))
	for _, row := range resp.Candles.Data {
		at := func(col string) json.RawMessage {
			if i := idx[col]; i < len(row) {
				return row[i]
			}
			return nil
		}
		rows = append(rows, models.RawCandle{
			Time:   rawString(at("begin")),
			Open:   rawFloat(at("open")),
			High:   rawFloat(at("high")),
			Low:    rawFloat(at("low")),
			Close:  rawFloat(at("close")),
			Volume: rawFloat(at("volume")),
		})
	}
	return rows, nil
}

func rawString(m json.RawMessage) string {
	var s string
	if err := json.Unmarshal(m, &s); err != nil {
		return ""
	}
	return s
}

// rawFloat число или строка с числом; null и прочее дают nil
func rawFloat(m json.RawMessage) *float64 {
	if v := bytes.TrimSpace(m); len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(m, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(m, &s); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}
