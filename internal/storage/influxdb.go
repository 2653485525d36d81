package storage

import (
	"context"
	"fmt"
	"strconv"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"go.uber.org/zap"

	"github.com/skalibog/vpchart/internal/config"
	"github.com/skalibog/vpchart/pkg/logger"
	"github.com/skalibog/vpchart/pkg/models"
)

const measurement = "candles"

// InfluxDBStorage реализует интерфейс Storage с использованием InfluxDB
type InfluxDBStorage struct {
	client   influxdb2.Client
	queryAPI api.QueryAPI
	writeAPI api.WriteAPIBlocking
	org      string
	bucket   string
}

// NewInfluxDBStorage создает новое хранилище InfluxDB
func NewInfluxDBStorage(ctx context.Context, cfg config.StorageConfig) (*InfluxDBStorage, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	// Проверка соединения
	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ошибка соединения с InfluxDB: %w", err)
	}
	if health == nil || health.Status != domain.HealthCheckStatusPass {
		client.Close()
		return nil, fmt.Errorf("InfluxDB не в состоянии 'pass': %+v", health)
	}

	return &InfluxDBStorage{
		client:   client,
		queryAPI: client.QueryAPI(cfg.Organization),
		writeAPI: client.WriteAPIBlocking(cfg.Organization, cfg.Bucket),
		org:      cfg.Organization,
		bucket:   cfg.Bucket,
	}, nil
}

// Close закрывает соединение с базой данных
func (s *InfluxDBStorage) Close() {
	s.client.Close()
}

// SaveSeries сохраняет свечи серии. Свечи без времени пропускаются:
// точка InfluxDB без метки времени получила бы время записи.
func (s *InfluxDBStorage) SaveSeries(ctx context.Context, series *models.CandleSeries) error {
	if series == nil || len(series.Candles) == 0 {
		return nil
	}

	points := make([]*write.Point, 0, len(series.Candles))
	for _, c := range series.Candles {
		if c.Time.IsZero() {
			continue
		}
		points = append(points, candlePoint(series.Symbol, series.Timeframe, c))
	}
	if len(points) == 0 {
		return nil
	}

	if err := s.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("ошибка записи свечей: %w", err)
	}
	logger.Debug("Серия сохранена в InfluxDB",
		zap.String("key", series.Key()),
		zap.Int("points", len(points)))
	return nil
}

// LoadSeries получает последние limit свечей в порядке возрастания времени
func (s *InfluxDBStorage) LoadSeries(ctx context.Context, symbol, timeframe string, limit int) (*models.CandleSeries, error) {
	result, err := s.queryAPI.Query(ctx, candlesQuery(s.bucket, symbol, timeframe, limit))
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса свечей: %w", err)
	}
	defer result.Close()

	var candles []models.Candle
	for result.Next() {
		record := result.Record()
		candles = append(candles, models.Candle{
			Time:   record.Time().UTC(),
			Open:   fieldFloat(record.ValueByKey("open")),
			High:   fieldFloat(record.ValueByKey("high")),
			Low:    fieldFloat(record.ValueByKey("low")),
			Close:  fieldFloat(record.ValueByKey("close")),
			Volume: fieldFloat(record.ValueByKey("volume")),
		})
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", result.Err())
	}
	if len(candles) == 0 {
		return nil, ErrNotFound
	}

	// Запрос отдаёт свечи от новых к старым
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
	return models.NewSeries(symbol, timeframe, candles), nil
}

func candlePoint(symbol, timeframe string, c models.Candle) *write.Point {
	return influxdb2.NewPoint(
		measurement,
		map[string]string{
			"symbol":    symbol,
			"timeframe": timeframe,
		},
		map[string]interface{}{
			"open":   c.Open,
			"high":   c.High,
			"low":    c.Low,
			"close":  c.Close,
			"volume": c.Volume,
		},
		c.Time,
	)
}

// candlesQuery Flux-запрос последних свечей; сортировка по убыванию нужна для limit
func candlesQuery(bucket, symbol, timeframe string, limit int) string {
	return fmt.Sprintf(`
		from(bucket: %s)
			|> range(start: 0)
			|> filter(fn: (r) => r._measurement == %s)
			|> filter(fn: (r) => r.symbol == %s)
			|> filter(fn: (r) => r.timeframe == %s)
			|> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
			|> group()
			|> sort(columns: ["_time"], desc: true)
			|> limit(n: %d)
	`, strconv.Quote(bucket), strconv.Quote(measurement), strconv.Quote(symbol), strconv.Quote(timeframe), queryLimit(limit))
}

func queryLimit(limit int) int {
	if limit <= 0 {
		return 5000
	}
	return limit
}

func fieldFloat(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	}
	return 0
}

var _ Storage = (*InfluxDBStorage)(nil)
