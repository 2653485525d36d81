package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/skalibog/vpchart/internal/profile"
	"github.com/skalibog/vpchart/pkg/logger"
	"github.com/skalibog/vpchart/pkg/models"
)

// Config представляет полную конфигурацию приложения
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Chart   ChartConfig   `yaml:"chart"`
	Profile ProfileConfig `yaml:"profile"`
	Loader  LoaderConfig  `yaml:"loader"`
	Cache   CacheConfig   `yaml:"cache"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	UI      UIConfig      `yaml:"ui"`
}

// SourceConfig откуда берутся свечи
type SourceConfig struct {
	Provider   string        `yaml:"provider"`
	Symbol     string        `yaml:"symbol"`
	Timeframe  string        `yaml:"timeframe"`
	Symbols    []string      `yaml:"symbols"`
	Timeframes []string      `yaml:"timeframes"`
	MOEX       MOEXConfig    `yaml:"moex"`
	Binance    BinanceConfig `yaml:"binance"`
}

// MOEXConfig настройки MOEX ISS
type MOEXConfig struct {
	BaseURL           string  `yaml:"base_url"`
	Engine            string  `yaml:"engine"`
	Market            string  `yaml:"market"`
	UserAgent         string  `yaml:"user_agent"`
	Limit             int     `yaml:"limit"`
	MaxCandles        int     `yaml:"max_candles"`
	HistoryDays       int     `yaml:"history_days"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	MaxRetries        int     `yaml:"max_retries"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
}

// BinanceConfig содержит настройки подключения к Binance
type BinanceConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Testnet   bool   `yaml:"testnet"`
	Market    string `yaml:"market"`
	Limit     int    `yaml:"limit"`
}

// ChartConfig масштаб и размер поверхности для экспорта
type ChartConfig struct {
	BarsPerScreen  int  `yaml:"bars_per_screen"`
	MaxBars        int  `yaml:"max_bars"`
	HoverCrosshair bool `yaml:"hover_crosshair"`
	Width          int  `yaml:"width"`
	Height         int  `yaml:"height"`
}

// ProfileConfig настройки объёмных профилей
type ProfileConfig struct {
	Visible      bool                `yaml:"visible"`
	StepMode     string              `yaml:"step_mode"`
	Width        int                 `yaml:"width"`
	Color        string              `yaml:"color"`
	POCColor     string              `yaml:"poc_color"`
	ShowPOC      bool                `yaml:"show_poc"`
	VAOpacity    float64             `yaml:"va_opacity"`
	RangeEnabled bool                `yaml:"range_enabled"`
	Auto         profile.AutoToggles `yaml:"auto"`
	MAPeriod     int                 `yaml:"ma_period"`
	MAType       string              `yaml:"ma_type"`
}

// LoaderConfig настройки загрузки свечей
type LoaderConfig struct {
	DebounceMs     int `yaml:"debounce_ms"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// CacheConfig кэш ответов поставщика
type CacheConfig struct {
	Type       string      `yaml:"type"`
	TTLSeconds int         `yaml:"ttl_seconds"`
	Redis      RedisConfig `yaml:"redis"`
}

// RedisConfig подключение к Redis
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// StorageConfig настройки хранения данных
type StorageConfig struct {
	Type         string `yaml:"type"`
	URL          string `yaml:"url"`
	Token        string `yaml:"token"`
	Organization string `yaml:"organization"`
	Bucket       string `yaml:"bucket"`
}

// LogConfig настройки журнала
type LogConfig struct {
	Level    string `yaml:"level"`
	File     string `yaml:"file"`
	Truncate bool   `yaml:"truncate"`
}

// UIConfig настройки пользовательского интерфейса
type UIConfig struct {
	CellWidth  int  `yaml:"cell_width"`
	CellHeight int  `yaml:"cell_height"`
	ShowHelp   bool `yaml:"show_help"`
}

// Default конфигурация по умолчанию
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Provider:   models.ProviderMOEX,
			Symbol:     "SBER",
			Timeframe:  "1h",
			Symbols:    []string{"SBER", "GAZP", "LKOH", "YNDX", "GMKN"},
			Timeframes: []string{"10m", "1h", "1d"},
			MOEX: MOEXConfig{
				BaseURL:           "https://iss.moex.com/iss",
				Engine:            "stock",
				Market:            "shares",
				UserAgent:         "vpchart",
				Limit:             5000,
				MaxCandles:        2000,
				HistoryDays:       365,
				RequestsPerSecond: 5,
				MaxRetries:        3,
				TimeoutSeconds:    15,
			},
			Binance: BinanceConfig{Market: "spot", Limit: 1000},
		},
		Chart: ChartConfig{
			BarsPerScreen: 140,
			MaxBars:       1000,
			Width:         1280,
			Height:        720,
		},
		Profile: ProfileConfig{
			Visible:      true,
			StepMode:     "auto",
			Width:        80,
			Color:        "#4c566a",
			POCColor:     "#F7D447",
			ShowPOC:      true,
			VAOpacity:    0.4,
			RangeEnabled: true,
			MAType:       "sma",
		},
		Loader: LoaderConfig{
			DebounceMs:     400,
			TimeoutSeconds: 30,
		},
		Cache: CacheConfig{
			Type:       "memory",
			TTLSeconds: 60,
			Redis:      RedisConfig{Addr: "localhost:6379", Prefix: "vpchart:"},
		},
		Storage: StorageConfig{
			Type:   "none",
			URL:    "http://localhost:8086",
			Bucket: "candles",
		},
		Log: LogConfig{
			Level: "info",
			File:  "vpchart",
		},
		UI: UIConfig{
			CellWidth:  4,
			CellHeight: 8,
			ShowHelp:   true,
		},
	}
}

// Load загружает конфигурацию из файла поверх значений по умолчанию.
// Отсутствующий файл не ошибка. После файла применяются .env и переменные окружения.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("ошибка разбора файла конфигурации: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		logger.Warn("Файл конфигурации не найден, используются значения по умолчанию", zap.String("path", path))
	default:
		return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("ошибка чтения .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("Загружена конфигурация", zap.String("path", path), zap.Any("config", cfg.redacted()))
	logger.Info("Загружена конфигурация",
		zap.String("provider", cfg.Source.Provider),
		zap.String("symbol", cfg.Source.Symbol),
		zap.String("timeframe", cfg.Source.Timeframe))
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"VPCHART_PROVIDER":   &c.Source.Provider,
		"VPCHART_SYMBOL":     &c.Source.Symbol,
		"VPCHART_TIMEFRAME":  &c.Source.Timeframe,
		"BINANCE_API_KEY":    &c.Source.Binance.APIKey,
		"BINANCE_API_SECRET": &c.Source.Binance.APISecret,
		"INFLUX_TOKEN":       &c.Storage.Token,
		"REDIS_ADDR":         &c.Cache.Redis.Addr,
		"REDIS_PASSWORD":     &c.Cache.Redis.Password,
		"VPCHART_LOG_LEVEL":  &c.Log.Level,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("VPCHART_BARS_PER_SCREEN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VPCHART_BARS_PER_SCREEN: %w", err)
		}
		c.Chart.BarsPerScreen = n
	}
	return nil
}

// Validate проверяет согласованность настроек и нормализует тикер
func (c *Config) Validate() error {
	symbol, err := models.NormalizeSymbol(c.Source.Symbol)
	if err != nil {
		return fmt.Errorf("source.symbol: %w", err)
	}
	c.Source.Symbol = symbol

	if _, err := models.NormalizeTimeframe(c.Source.Provider, c.Source.Timeframe); err != nil {
		return fmt.Errorf("source.timeframe: %w", err)
	}
	for _, tf := range c.Source.Timeframes {
		if _, err := models.NormalizeTimeframe(c.Source.Provider, tf); err != nil {
			return fmt.Errorf("source.timeframes: %w", err)
		}
	}

	if _, err := profile.ParseStepMode(c.Profile.StepMode); err != nil {
		return fmt.Errorf("profile.step_mode: %w", err)
	}
	if c.Profile.Width < 40 || c.Profile.Width > 200 {
		return fmt.Errorf("profile.width должна быть в [40, 200], получено %d", c.Profile.Width)
	}
	if c.Profile.VAOpacity < 0 || c.Profile.VAOpacity > 1 {
		return fmt.Errorf("profile.va_opacity должна быть в [0, 1], получено %v", c.Profile.VAOpacity)
	}
	if c.Profile.MAPeriod < 0 || c.Profile.MAPeriod == 1 {
		return fmt.Errorf("profile.ma_period должен быть 0 или не меньше 2, получено %d", c.Profile.MAPeriod)
	}
	switch c.Profile.MAType {
	case "sma", "ema":
	default:
		return fmt.Errorf("profile.ma_type: неизвестный тип %q", c.Profile.MAType)
	}

	if c.Chart.BarsPerScreen < 20 {
		return fmt.Errorf("chart.bars_per_screen должно быть не меньше 20, получено %d", c.Chart.BarsPerScreen)
	}

	switch c.Cache.Type {
	case "none", "memory", "redis":
	default:
		return fmt.Errorf("cache.type: неизвестный тип %q", c.Cache.Type)
	}
	switch c.Storage.Type {
	case "none", "influxdb":
	default:
		return fmt.Errorf("storage.type: неизвестный тип %q", c.Storage.Type)
	}
	return nil
}

// redacted копия без секретов для журнала
func (c *Config) redacted() Config {
	cp := *c
	if cp.Source.Binance.APISecret != "" {
		cp.Source.Binance.APISecret = "***"
	}
	if cp.Storage.Token != "" {
		cp.Storage.Token = "***"
	}
	if cp.Cache.Redis.Password != "" {
		cp.Cache.Redis.Password = "***"
	}
	return cp
}
