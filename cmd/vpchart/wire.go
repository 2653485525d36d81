package main

import (
	"context"
	"fmt"
	"time"

	"github.com/skalibog/vpchart/internal/analysis/technical"
	"github.com/skalibog/vpchart/internal/cache"
	"github.com/skalibog/vpchart/internal/config"
	"github.com/skalibog/vpchart/internal/engine"
	"github.com/skalibog/vpchart/internal/exchange"
	"github.com/skalibog/vpchart/internal/interaction"
	"github.com/skalibog/vpchart/internal/loader"
	"github.com/skalibog/vpchart/internal/platform/httpclient"
	"github.com/skalibog/vpchart/internal/profile"
	"github.com/skalibog/vpchart/internal/storage"
	"github.com/skalibog/vpchart/pkg/models"
)

// newProvider клиент поставщика свечей из source.provider
func newProvider(cfg config.SourceConfig) (exchange.Fetcher, error) {
	switch cfg.Provider {
	case models.ProviderMOEX:
		client := httpclient.New(httpclient.Options{
			Timeout:           time.Duration(cfg.MOEX.TimeoutSeconds) * time.Second,
			RequestsPerSecond: cfg.MOEX.RequestsPerSecond,
			MaxRetries:        cfg.MOEX.MaxRetries,
		})
		return exchange.NewMOEXClient(cfg.MOEX, client), nil
	case models.ProviderBinance:
		return exchange.NewBinanceClient(cfg.Binance)
	}
	return nil, fmt.Errorf("%w: %q", models.ErrUnknownProvider, cfg.Provider)
}

// newLoader собирает цепочку источник → архив → кэш и загрузчик поверх неё.
// Кэш и архив закрываются вместе с загрузчиком.
func newLoader(ctx context.Context, cfg *config.Config) (*loader.Loader, error) {
	fetcher, err := newProvider(cfg.Source)
	if err != nil {
		return nil, err
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	limit := cfg.Source.MOEX.MaxCandles
	if cfg.Source.Provider == models.ProviderBinance {
		limit = cfg.Source.Binance.Limit
	}
	fetcher = exchange.WithArchive(fetcher, store, limit)

	c, err := cache.New(cfg.Cache)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	fetcher = exchange.WithCache(fetcher, c, time.Duration(cfg.Cache.TTLSeconds)*time.Second)

	l := loader.New(fetcher, cfg.Loader)
	if c != nil {
		l.OnClose(c.Close)
	}
	if store != nil {
		l.OnClose(func() error {
			store.Close()
			return nil
		})
	}
	return l, nil
}

func profileOptions(cfg config.ProfileConfig) (engine.ProfileOptions, error) {
	mode, err := profile.ParseStepMode(cfg.StepMode)
	if err != nil {
		return engine.ProfileOptions{}, err
	}
	return engine.ProfileOptions{
		Visible:      cfg.Visible,
		StepMode:     mode,
		Width:        cfg.Width,
		RangeEnabled: cfg.RangeEnabled,
		Auto:         cfg.Auto,
	}, nil
}

func newSession(cfg *config.Config) (*engine.Session, error) {
	opts, err := profileOptions(cfg.Profile)
	if err != nil {
		return nil, err
	}
	ctrl := interaction.NewController(interaction.Options{
		HoverCrosshair: cfg.Chart.HoverCrosshair,
		MaxBars:        cfg.Chart.MaxBars,
	})
	return engine.NewSession(ctrl, technical.NewAnalyzer(cfg.Profile), opts, cfg.Chart.BarsPerScreen), nil
}
