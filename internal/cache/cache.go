package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skalibog/vpchart/internal/config"
	"github.com/skalibog/vpchart/pkg/models"
)

// ErrMiss ключа нет в кэше или срок его жизни истёк
var ErrMiss = errors.New("нет в кэше")

// Cache кэш серий свечей с ограниченным сроком жизни
type Cache interface {
	Get(ctx context.Context, key string) (*models.CandleSeries, error)
	Set(ctx context.Context, key string, series *models.CandleSeries, ttl time.Duration) error
	Close() error
}

// New создает кэш по настройкам; для типа "none" возвращает nil
func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemory(), nil
	case "redis":
		return NewRedis(cfg.Redis), nil
	}
	return nil, fmt.Errorf("неизвестный тип кэша %q", cfg.Type)
}
