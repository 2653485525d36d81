package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/skalibog/vpchart/internal/config"
	"github.com/skalibog/vpchart/pkg/models"
)

// ErrNotFound в архиве нет свечей по запросу
var ErrNotFound = errors.New("свечи не найдены в архиве")

// Storage архив загруженных серий свечей
type Storage interface {
	SaveSeries(ctx context.Context, series *models.CandleSeries) error
	LoadSeries(ctx context.Context, symbol, timeframe string, limit int) (*models.CandleSeries, error)
	Close()
}

// New открывает архив по настройкам; для типа "none" возвращает nil
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "influxdb":
		s, err := NewInfluxDBStorage(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("неизвестный тип хранилища %q", cfg.Type)
}
