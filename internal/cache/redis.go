package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/skalibog/vpchart/internal/config"
	"github.com/skalibog/vpchart/pkg/models"
)

// Redis кэш серий в Redis, значения хранятся в JSON
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis создает кэш Redis; соединение устанавливается при первом запросе
func NewRedis(cfg config.RedisConfig) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:        cfg.Addr,
			Password:    cfg.Password,
			DB:          cfg.DB,
			DialTimeout: 2 * time.Second,
		}),
		prefix: cfg.Prefix,
	}
}

func (r *Redis) key(key string) string {
	return r.prefix + "series:" + key
}

func (r *Redis) Get(ctx context.Context, key string) (*models.CandleSeries, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из Redis: %w", err)
	}

	var series models.CandleSeries
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, fmt.Errorf("ошибка разбора значения из Redis: %w", err)
	}
	return &series, nil
}

func (r *Redis) Set(ctx context.Context, key string, series *models.CandleSeries, ttl time.Duration) error {
	data, err := json.Marshal(series)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("ошибка записи в Redis: %w", err)
	}
	return nil
}

// Ping проверяет соединение
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
