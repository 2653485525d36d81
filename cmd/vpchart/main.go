package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/skalibog/vpchart/internal/config"
	"github.com/skalibog/vpchart/internal/render"
	"github.com/skalibog/vpchart/internal/ui"
	"github.com/skalibog/vpchart/pkg/logger"
)

func main() {
	// Обработка флагов командной строки
	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации")
	pngPath := flag.String("png", "", "сохранить график в PNG и выйти")
	symbol := flag.String("symbol", "", "тикер, перекрывает source.symbol")
	timeframe := flag.String("tf", "", "таймфрейм, перекрывает source.timeframe")
	flag.Parse()

	if err := run(*configPath, *pngPath, *symbol, *timeframe); err != nil {
		logger.Error("Завершение с ошибкой", zap.Error(err))
		_ = logger.Sync()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(configPath, pngPath, symbol, timeframe string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}
	if symbol != "" {
		cfg.Source.Symbol = symbol
	}
	if timeframe != "" {
		cfg.Source.Timeframe = timeframe
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logger.Init(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File, Truncate: cfg.Log.Truncate}); err != nil {
		return fmt.Errorf("ошибка инициализации логгера: %w", err)
	}
	logger.Info("Запуск",
		zap.String("provider", cfg.Source.Provider),
		zap.String("symbol", cfg.Source.Symbol),
		zap.String("timeframe", cfg.Source.Timeframe))

	// Отмена по сигналам завершения
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l, err := newLoader(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Close(); err != nil {
			logger.Warn("Ошибка освобождения ресурсов", zap.Error(err))
		}
	}()

	session, err := newSession(cfg)
	if err != nil {
		return err
	}
	style, err := render.NewStyle(cfg.Profile)
	if err != nil {
		return err
	}
	renderer := render.NewRenderer(style)

	if pngPath != "" {
		return exportPNG(ctx, cfg, l, session, renderer, pngPath)
	}

	userInterface := ui.NewTermUI(cfg.UI, session, renderer, l, ui.Options{
		Provider:   cfg.Source.Provider,
		Symbols:    cfg.Source.Symbols,
		Timeframes: cfg.Source.Timeframes,
		Symbol:     cfg.Source.Symbol,
		Timeframe:  cfg.Source.Timeframe,
	})
	return userInterface.Run()
}
