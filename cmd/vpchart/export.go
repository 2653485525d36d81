package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/skalibog/vpchart/internal/config"
	"github.com/skalibog/vpchart/internal/engine"
	"github.com/skalibog/vpchart/internal/loader"
	"github.com/skalibog/vpchart/internal/render"
	"github.com/skalibog/vpchart/pkg/logger"
)

// exportPNG загружает серию сразу и сохраняет один кадр в файл
func exportPNG(ctx context.Context, cfg *config.Config, l *loader.Loader, session *engine.Session, renderer *render.Renderer, path string) (err error) {
	series, err := l.Load(ctx, cfg.Source.Symbol, cfg.Source.Timeframe)
	if err != nil {
		return err
	}

	session.Resize(cfg.Chart.Width, cfg.Chart.Height)
	session.SetSeries(series)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ошибка создания файла: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if err := renderer.WritePNG(f, session.View(), cfg.Chart.Width, cfg.Chart.Height); err != nil {
		return err
	}
	logger.Info("График сохранён",
		zap.String("path", path),
		zap.String("key", series.Key()),
		zap.Int("candles", len(series.Candles)))
	return nil
}
